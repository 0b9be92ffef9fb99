package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Camera is a pinhole camera. Side and Up are scaled so that a pixel offset
// of half the image width maps to the edge of the field of view.
type Camera struct {
	Origin mgl32.Vec3
	Fwd    mgl32.Vec3
	Side   mgl32.Vec3
	Up     mgl32.Vec3
	Fov    float32 // horizontal field of view in degrees
}

// NewCamera builds a camera looking along fwd with the given field of view in
// degrees. World up is +Y; a camera looking straight up or down falls back
// to +Z.
func NewCamera(origin, fwd mgl32.Vec3, fov float32) Camera {
	fwd = fwd.Normalize()

	worldUp := mgl32.Vec3{0, 1, 0}
	if abs32(fwd.Dot(worldUp)) > 1-FltEps*10 {
		worldUp = mgl32.Vec3{0, 0, 1}
	}

	side := fwd.Cross(worldUp).Normalize()
	up := side.Cross(fwd)

	scale := 2 * float32(math.Tan(float64(mgl32.DegToRad(fov))/2))

	return Camera{
		Origin: origin,
		Fwd:    fwd,
		Side:   side.Mul(scale),
		Up:     up.Mul(scale),
		Fov:    fov,
	}
}

// LookAt builds a camera at origin looking at target.
func LookAt(origin, target mgl32.Vec3, fov float32) Camera {
	return NewCamera(origin, target.Sub(origin), fov)
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
