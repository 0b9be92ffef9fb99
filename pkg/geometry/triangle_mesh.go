package geometry

import (
	"errors"
	"fmt"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/go-gl/mathgl/mgl32"
)

// VertexLayout describes how vertex attributes are interleaved in MeshDesc.Attrs.
type VertexLayout int

const (
	// PxyzNxyzTuv is position, normal and one UV set (8 floats).
	PxyzNxyzTuv VertexLayout = iota
	// PxyzNxyzBxyzTuv adds a bitangent (11 floats).
	PxyzNxyzBxyzTuv
)

// Stride returns the number of floats per vertex.
func (l VertexLayout) Stride() int {
	if l == PxyzNxyzBxyzTuv {
		return 11
	}
	return 8
}

func (l VertexLayout) String() string {
	switch l {
	case PxyzNxyzTuv:
		return "PxyzNxyzTuv"
	case PxyzNxyzBxyzTuv:
		return "PxyzNxyzBxyzTuv"
	}
	return fmt.Sprintf("VertexLayout(%d)", int(l))
}

// Shape assigns a material to a contiguous range of MeshDesc.Indices.
type Shape struct {
	MaterialIndex uint32
	IndexStart    int
	IndexCount    int
}

// MeshDesc is an indexed triangle mesh with interleaved attributes.
type MeshDesc struct {
	Layout  VertexLayout
	Attrs   []float32
	Indices []uint32
	Shapes  []Shape
}

var (
	ErrEmptyMesh    = errors.New("mesh has no triangles")
	ErrBadIndex     = errors.New("vertex index out of range")
	ErrBadShape     = errors.New("shape range out of bounds")
	ErrBadAttrCount = errors.New("attribute count is not a multiple of the layout stride")
)

// VertexCount returns the number of vertices described by Attrs.
func (m *MeshDesc) VertexCount() int {
	return len(m.Attrs) / m.Layout.Stride()
}

// Validate checks index and shape ranges.
func (m *MeshDesc) Validate() error {
	if len(m.Attrs)%m.Layout.Stride() != 0 {
		return fmt.Errorf("%w: %d floats, layout %v", ErrBadAttrCount, len(m.Attrs), m.Layout)
	}
	if len(m.Indices) == 0 || len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %d indices", ErrEmptyMesh, len(m.Indices))
	}
	nv := uint32(m.VertexCount())
	for i, idx := range m.Indices {
		if idx >= nv {
			return fmt.Errorf("%w: index %d at %d, %d vertices", ErrBadIndex, idx, i, nv)
		}
	}
	for i, s := range m.Shapes {
		if s.IndexStart < 0 || s.IndexCount < 0 || s.IndexStart+s.IndexCount > len(m.Indices) {
			return fmt.Errorf("%w: shape %d covers [%d, %d) of %d", ErrBadShape, i, s.IndexStart, s.IndexStart+s.IndexCount, len(m.Indices))
		}
	}
	return nil
}

// PreprocessedMesh is a mesh ready to be appended to a scene: one TriAccel
// per triangle and a micro BVH whose leaves index into Tris. Node links are
// local to the mesh.
type PreprocessedMesh struct {
	Nodes      []core.BVHNode
	Tris       []core.TriAccel
	TriIndices []uint32
}

// PreprocessMesh builds triangle accelerators and the micro BVH for m.
func PreprocessMesh(m *MeshDesc) (*PreprocessedMesh, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	stride := m.Layout.Stride()
	pos := func(i uint32) mgl32.Vec3 {
		a := m.Attrs[int(i)*stride:]
		return mgl32.Vec3{a[0], a[1], a[2]}
	}

	numTris := len(m.Indices) / 3
	tris := make([]core.TriAccel, numTris)
	boxes := make([]core.AABB, numTris)

	for i := 0; i < numTris; i++ {
		p0 := pos(m.Indices[i*3])
		p1 := pos(m.Indices[i*3+1])
		p2 := pos(m.Indices[i*3+2])

		tris[i] = PreprocessTri(p0, p1, p2)
		boxes[i] = core.NewAABBFromPoints(p0, p1, p2)
	}

	for _, s := range m.Shapes {
		for i := s.IndexStart / 3; i < (s.IndexStart+s.IndexCount)/3; i++ {
			tris[i].MI = s.MaterialIndex
		}
	}

	nodes, indices := core.BuildBVH(boxes)
	return &PreprocessedMesh{Nodes: nodes, Tris: tris, TriIndices: indices}, nil
}

// Vertices unpacks the attributes of m. Bitangents are computed from the UV
// parametrisation when the layout does not carry them.
func Vertices(m *MeshDesc) []core.Vertex {
	stride := m.Layout.Stride()
	out := make([]core.Vertex, m.VertexCount())

	for i := range out {
		a := m.Attrs[i*stride : (i+1)*stride]
		v := &out[i]
		copy(v.P[:], a[0:3])
		copy(v.N[:], a[3:6])
		if m.Layout == PxyzNxyzBxyzTuv {
			copy(v.B[:], a[6:9])
			copy(v.T0[:], a[9:11])
		} else {
			copy(v.T0[:], a[6:8])
		}
	}

	if m.Layout == PxyzNxyzTuv {
		ComputeTangents(out, m.Indices)
	}
	return out
}

// ComputeTangents fills the B (bitangent) of every vertex with the
// direction of increasing v in UV space, averaged over adjacent triangles
// and orthogonalised against the normal.
func ComputeTangents(vertices []core.Vertex, indices []uint32) {
	acc := make([]mgl32.Vec3, len(vertices))

	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := indices[i], indices[i+1], indices[i+2]
		v0, v1, v2 := &vertices[i0], &vertices[i1], &vertices[i2]

		dp1 := mgl32.Vec3(v1.P).Sub(v0.P)
		dp2 := mgl32.Vec3(v2.P).Sub(v0.P)
		du1, dv1 := v1.T0[0]-v0.T0[0], v1.T0[1]-v0.T0[1]
		du2, dv2 := v2.T0[0]-v0.T0[0], v2.T0[1]-v0.T0[1]

		det := du1*dv2 - dv1*du2
		if abs32(det) < core.FltEps {
			continue
		}
		r := 1 / det
		dpdv := dp2.Mul(du1 * r).Sub(dp1.Mul(du2 * r))

		acc[i0] = acc[i0].Add(dpdv)
		acc[i1] = acc[i1].Add(dpdv)
		acc[i2] = acc[i2].Add(dpdv)
	}

	for i := range vertices {
		n := mgl32.Vec3(vertices[i].N)
		b := acc[i].Sub(n.Mul(n.Dot(acc[i])))
		if b.Len() < core.FltEps {
			b = anyPerpendicular(n)
		}
		vertices[i].B = b.Normalize()
	}
}

func anyPerpendicular(n mgl32.Vec3) mgl32.Vec3 {
	axis := mgl32.Vec3{1, 0, 0}
	if abs32(n[0]) > 0.9 {
		axis = mgl32.Vec3{0, 1, 0}
	}
	return n.Cross(axis)
}

// TransformBoundingBox returns the world-space box enclosing bbox after the
// affine transform xform, using Arvo's per-axis extent method.
func TransformBoundingBox(bbox [2][3]float32, xform mgl32.Mat4) [2][3]float32 {
	var out [2][3]float32
	for i := 0; i < 3; i++ {
		out[0][i] = xform[12+i]
		out[1][i] = xform[12+i]
		for j := 0; j < 3; j++ {
			a := xform[j*4+i] * bbox[0][j]
			b := xform[j*4+i] * bbox[1][j]
			out[0][i] += min(a, b)
			out[1][i] += max(a, b)
		}
	}
	return out
}
