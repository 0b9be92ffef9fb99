package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UVSphere tessellates a sphere into rings x segments quads. UV u runs around
// the equator and v from the south to the north pole.
func UVSphere(center mgl32.Vec3, radius float32, segments, rings int, material uint32) *MeshDesc {
	segments = max(segments, 3)
	rings = max(rings, 2)

	var b meshBuilder
	for r := 0; r <= rings; r++ {
		v := float32(r) / float32(rings)
		theta := float64(v) * math.Pi
		sinT, cosT := math.Sincos(theta)

		for s := 0; s <= segments; s++ {
			u := float32(s) / float32(segments)
			phi := float64(u) * 2 * math.Pi
			sinP, cosP := math.Sincos(phi)

			n := mgl32.Vec3{float32(sinT * cosP), float32(-cosT), float32(sinT * sinP)}
			b.vertex(center.Add(n.Mul(radius)), n, u, v)
		}
	}

	row := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			i0 := uint32(r)*row + uint32(s)
			i1 := i0 + 1
			i2 := i0 + row + 1
			i3 := i0 + row

			// Skip the degenerate triangles at the poles
			if r != 0 {
				b.tri(i0, i2, i1)
			}
			if r != rings-1 {
				b.tri(i0, i3, i2)
			}
		}
	}
	return b.desc(material)
}
