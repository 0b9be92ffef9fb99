package core

// Scene is the flat, read-only representation consumed by a render pass.
// Meshes own micro BVHs inside Nodes; the macro BVH over mesh instances
// starts at MacroNodesStart.
type Scene struct {
	Nodes      []BVHNode
	Tris       []TriAccel
	TriIndices []uint32

	Transforms    []Transform
	Meshes        []Mesh
	MeshInstances []MeshInstance
	MiIndices     []uint32

	Vertices   []Vertex
	VtxIndices []uint32

	Materials []Material
	Textures  []Texture
	Atlas     AtlasSource

	// FlatNormals is the shared default normal map, NoIndex if none was made.
	// Materials pointing at it shade with the interpolated normal.
	FlatNormals uint32

	Env    Environment
	Camera Camera

	MacroNodesStart, MacroNodesCount uint32
}

// Empty reports whether the scene has nothing to intersect.
func (s *Scene) Empty() bool {
	return s.MacroNodesCount == 0 || len(s.MeshInstances) == 0
}

// RootBounds returns the bounding box of the macro tree root.
func (s *Scene) RootBounds() AABB {
	if s.Empty() {
		return AABB{}
	}
	b := s.Nodes[s.MacroNodesStart].BBox
	return AABB{Min: b[0], Max: b[1]}
}
