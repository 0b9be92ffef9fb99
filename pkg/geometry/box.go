package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Box creates a box made up of 6 quads with outward normals.
// Size represents half-extents (so a size of (1,1,1) creates a 2x2x2 box).
// Rotation is in radians around X, Y, Z axes (applied in that order).
func Box(center, size, rotation mgl32.Vec3, material uint32) *MeshDesc {
	// Define the 8 corners of a unit box centered at origin
	corners := [8]mgl32.Vec3{
		{-1, -1, -1}, // 0: left-bottom-back
		{1, -1, -1},  // 1: right-bottom-back
		{1, 1, -1},   // 2: right-top-back
		{-1, 1, -1},  // 3: left-top-back
		{-1, -1, 1},  // 4: left-bottom-front
		{1, -1, 1},   // 5: right-bottom-front
		{1, 1, 1},    // 6: right-top-front
		{-1, 1, 1},   // 7: left-top-front
	}

	rot := mgl32.Rotate3DZ(rotation[2]).Mul3(mgl32.Rotate3DY(rotation[1])).Mul3(mgl32.Rotate3DX(rotation[0]))

	// Scale corners by size, rotate and translate to center
	for i := range corners {
		c := mgl32.Vec3{corners[i][0] * size[0], corners[i][1] * size[1], corners[i][2] * size[2]}
		corners[i] = rot.Mul3x1(c).Add(center)
	}

	var b meshBuilder
	face := func(c, u, v int) {
		b.quad(corners[c], corners[u].Sub(corners[c]), corners[v].Sub(corners[c]))
	}

	face(4, 5, 7) // Front face (Z+)
	face(1, 0, 2) // Back face (Z-)
	face(5, 1, 6) // Right face (X+)
	face(0, 4, 3) // Left face (X-)
	face(3, 7, 2) // Top face (Y+)
	face(4, 0, 5) // Bottom face (Y-)

	return b.desc(material)
}
