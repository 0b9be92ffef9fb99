package core

import "github.com/go-gl/mathgl/mgl32"

// TriAccel is a triangle preprocessed for Wald's projection test. The
// dominant normal axis w is stored in CI & TriWBits; the other fields are
// expressed on the two remaining axes u = NextU[w], v = NextV[w].
type TriAccel struct {
	NU, NV   float32 // normal components on u and v divided by the w component
	NP       float32 // plane offset
	PU, PV   float32 // first vertex on u and v
	CI       int32
	E0U, E0V float32 // scaled edge coefficients
	E1U, E1V float32
	MI       uint32 // material index
}

// W returns the dominant projection axis.
func (t *TriAccel) W() int { return int(t.CI & TriWBits) }

// BVHNode is a node of a flat, stack-less traversable bounding volume
// hierarchy. Leaves have PrimCount > 0; internal nodes use LeftChild and
// RightChild. Parent and Sibling are NoIndex at the root.
type BVHNode struct {
	PrimIndex, PrimCount  uint32
	LeftChild, RightChild uint32
	Parent, Sibling       uint32
	SpaceAxis             uint32 // axis with the largest distance between the child centroids
	BBox                  [2][3]float32
}

// IsLeaf reports whether the node references primitives.
func (n *BVHNode) IsLeaf() bool { return n.PrimCount != 0 }

// Mesh references a micro BVH inside Scene.Nodes.
type Mesh struct {
	NodeIndex, NodeCount uint32
}

// Transform holds a column-major object-to-world matrix and its inverse.
type Transform struct {
	Xform, InvXform mgl32.Mat4
}

// MeshInstance places a mesh in the world with a transform. The bounding
// box is in world space.
type MeshInstance struct {
	BBoxMin   [3]float32
	TrIndex   uint32
	BBoxMax   [3]float32
	MeshIndex uint32
}

// Vertex is the shading data attached to a triangle corner.
type Vertex struct {
	P, N, B [3]float32
	T0      [2]float32
}

// MaterialKind enumerates the supported surface models.
type MaterialKind uint32

const (
	Diffuse MaterialKind = iota
	Glossy
	Refractive
	Emissive
	Mix
	Transparent
)

func (k MaterialKind) String() string {
	switch k {
	case Diffuse:
		return "diffuse"
	case Glossy:
		return "glossy"
	case Refractive:
		return "refractive"
	case Emissive:
		return "emissive"
	case Mix:
		return "mix"
	case Transparent:
		return "transparent"
	}
	return "unknown"
}

// Material is a closed variant over MaterialKind. Roughness applies to
// Glossy and Refractive, Strength to Emissive and Mix, Fresnel to Mix and
// IOR to Refractive.
type Material struct {
	Kind      MaterialKind
	Textures  [MaxMaterialTextures]uint32
	MainColor [3]float32
	Roughness float32
	Strength  float32
	Fresnel   float32
	IOR       float32
}

// Texture locates every mip level of a texture inside the atlas.
type Texture struct {
	Size [2]uint16
	Page [NumMipLevels]uint8
	Pos  [NumMipLevels][2]uint16
}

// Environment describes the sky and the sun.
type Environment struct {
	SkyColor    [3]float32
	SunDir      [3]float32
	SunColor    [3]float32
	SunSoftness float32
}

// Pixel is an 8-bit RGBA texel.
type Pixel struct {
	R, G, B, A uint8
}

// AtlasSource is read access to a paged texture atlas.
type AtlasSource interface {
	Get(page, x, y int) Pixel
	SizeX() int
	SizeY() int
}
