package geometry

import (
	"github.com/go-gl/mathgl/mgl32"
)

// meshBuilder accumulates PxyzNxyzTuv vertices and triangle indices.
type meshBuilder struct {
	attrs   []float32
	indices []uint32
}

func (b *meshBuilder) vertex(p, n mgl32.Vec3, u, v float32) uint32 {
	idx := uint32(len(b.attrs) / 8)
	b.attrs = append(b.attrs, p[0], p[1], p[2], n[0], n[1], n[2], u, v)
	return idx
}

func (b *meshBuilder) tri(i0, i1, i2 uint32) {
	b.indices = append(b.indices, i0, i1, i2)
}

// quad appends a planar rectangle spanned by u and v from corner. The
// normal is u × v and the UVs run 0..1 along each edge.
func (b *meshBuilder) quad(corner, u, v mgl32.Vec3) {
	n := u.Cross(v).Normalize()
	i0 := b.vertex(corner, n, 0, 0)
	i1 := b.vertex(corner.Add(u), n, 1, 0)
	i2 := b.vertex(corner.Add(u).Add(v), n, 1, 1)
	i3 := b.vertex(corner.Add(v), n, 0, 1)
	b.tri(i0, i1, i2)
	b.tri(i0, i2, i3)
}

func (b *meshBuilder) desc(material uint32) *MeshDesc {
	return &MeshDesc{
		Layout:  PxyzNxyzTuv,
		Attrs:   b.attrs,
		Indices: b.indices,
		Shapes:  []Shape{{MaterialIndex: material, IndexStart: 0, IndexCount: len(b.indices)}},
	}
}

// Quad creates a two-triangle rectangle from a corner point and two edge
// vectors. The face normal is u × v.
func Quad(corner, u, v mgl32.Vec3, material uint32) *MeshDesc {
	var b meshBuilder
	b.quad(corner, u, v)
	return b.desc(material)
}
