package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min mgl32.Vec3 // Minimum corner
	Max mgl32.Vec3 // Maximum corner
}

// EmptyAABB returns an inverted box that any Extend or Union replaces
func EmptyAABB() AABB {
	inf := float32(math.Inf(1))
	return AABB{
		Min: mgl32.Vec3{inf, inf, inf},
		Max: mgl32.Vec3{-inf, -inf, -inf},
	}
}

// NewAABBFromPoints creates an AABB that bounds all given points
func NewAABBFromPoints(points ...mgl32.Vec3) AABB {
	if len(points) == 0 {
		return AABB{}
	}
	box := AABB{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		box = box.Extend(p)
	}
	return box
}

// Extend returns the box grown to contain p
func (b AABB) Extend(p mgl32.Vec3) AABB {
	for k := 0; k < 3; k++ {
		b.Min[k] = min(b.Min[k], p[k])
		b.Max[k] = max(b.Max[k], p[k])
	}
	return b
}

// Union returns an AABB that bounds both this AABB and another
func (b AABB) Union(other AABB) AABB {
	for k := 0; k < 3; k++ {
		b.Min[k] = min(b.Min[k], other.Min[k])
		b.Max[k] = max(b.Max[k], other.Max[k])
	}
	return b
}

// Center returns the center point of the AABB
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (b AABB) Size() mgl32.Vec3 {
	return b.Max.Sub(b.Min)
}

// SurfaceArea returns the surface area of the AABB
func (b AABB) SurfaceArea() float32 {
	s := b.Size()
	return 2 * (s[0]*s[1] + s[1]*s[2] + s[2]*s[0])
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent
func (b AABB) LongestAxis() int {
	s := b.Size()
	if s[0] > s[1] && s[0] > s[2] {
		return 0
	}
	if s[1] > s[2] {
		return 1
	}
	return 2
}

// IsValid returns true if min <= max on all axes
func (b AABB) IsValid() bool {
	return b.Min[0] <= b.Max[0] && b.Min[1] <= b.Max[1] && b.Min[2] <= b.Max[2]
}

// Expand returns an AABB expanded by the given amount in all directions
func (b AABB) Expand(amount float32) AABB {
	e := mgl32.Vec3{amount, amount, amount}
	return AABB{Min: b.Min.Sub(e), Max: b.Max.Add(e)}
}

// Hit runs the slab test against a ray given by its origin and safe
// inverted direction, accepting entries closer than t.
func (b AABB) Hit(o, invD [3]float32, t float32) bool {
	return BBoxTest(o, invD, t, b.Min, b.Max)
}

// Bounds returns the box in the [min, max] layout used by BVHNode.
func (b AABB) Bounds() [2][3]float32 {
	return [2][3]float32{b.Min, b.Max}
}
