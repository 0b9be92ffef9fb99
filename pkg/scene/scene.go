// Package scene assembles meshes, instances, materials and textures into the
// flat core.Scene consumed by the renderer.
package scene

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/df07/go-packet-raytracer/pkg/texture"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// DefaultAtlasSize is the page size of the texture atlas.
const DefaultAtlasSize = 2048

var (
	ErrBadMesh     = errors.New("mesh index out of range")
	ErrBadInstance = errors.New("mesh instance index out of range")
	ErrSingular    = errors.New("transform is not invertible")
)

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger used for build summaries and atlas events.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithAtlasSize sets the atlas page size. It must be applied before any
// texture is added.
func WithAtlasSize(x, y int) Option {
	return func(b *Builder) { b.atlasX, b.atlasY = x, y }
}

// WithMeshFile sets the PLY file used by the "ply" built-in scene.
func WithMeshFile(path string) Option {
	return func(b *Builder) { b.meshFile = path }
}

type instance struct {
	mesh    uint32
	removed bool
}

// Builder accumulates scene data. Meshes are preprocessed as they are added;
// the macro BVH over the live instances is rebuilt by Build.
type Builder struct {
	s      core.Scene
	atlas  *texture.Atlas
	logger *zap.Logger

	atlasX, atlasY int
	instances      []instance
	meshFile       string

	defaultTexture, defaultNormals uint32
}

// NewBuilder returns an empty builder with a black sky and no sun.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		logger:         zap.NewNop(),
		atlasX:         DefaultAtlasSize,
		atlasY:         DefaultAtlasSize,
		defaultTexture: core.NoIndex,
		defaultNormals: core.NoIndex,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.atlas = texture.NewAtlas(b.atlasX, b.atlasY, b.logger)
	b.s.Atlas = b.atlas
	b.s.FlatNormals = core.NoIndex
	return b
}

// SetEnvironment sets the sky and sun. The sun direction is normalised.
func (b *Builder) SetEnvironment(env core.Environment) {
	if d := mgl32.Vec3(env.SunDir); d.Len() > 0 {
		env.SunDir = d.Normalize()
	}
	b.s.Env = env
}

// SetCamera sets the scene camera.
func (b *Builder) SetCamera(cam core.Camera) {
	b.s.Camera = cam
}

// AddTexture uploads img with its full mip chain and returns its index.
func (b *Builder) AddTexture(img *image.RGBA) (uint32, error) {
	t, err := texture.Add(b.atlas, img)
	if err != nil {
		return 0, fmt.Errorf("add texture %d: %w", len(b.s.Textures), err)
	}
	b.s.Textures = append(b.s.Textures, t)
	b.logger.Debug("Texture added",
		zap.Int("index", len(b.s.Textures)-1),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()),
		zap.Int("atlas_pages", b.atlas.PageCount()))
	return uint32(len(b.s.Textures) - 1), nil
}

func (b *Builder) solidTexture(slot *uint32, c color.RGBA) (uint32, error) {
	if *slot != core.NoIndex {
		return *slot, nil
	}
	idx, err := b.AddTexture(texture.NewSolid(1, 1, c))
	if err != nil {
		return 0, err
	}
	*slot = idx
	return idx, nil
}

// AddMaterial validates m and returns its index. Unset texture slots get a
// white main texture and a flat normal map. Mix sub-materials must already
// exist.
func (b *Builder) AddMaterial(m core.Material) (uint32, error) {
	if m.Textures[core.MainTexture] == core.NoIndex {
		tex, err := b.solidTexture(&b.defaultTexture, color.RGBA{255, 255, 255, 255})
		if err != nil {
			return 0, err
		}
		m.Textures[core.MainTexture] = tex
	}
	if m.Kind != core.Mix && m.Textures[core.NormalsTexture] == core.NoIndex {
		tex, err := b.solidTexture(&b.defaultNormals, color.RGBA{128, 128, 255, 255})
		if err != nil {
			return 0, err
		}
		m.Textures[core.NormalsTexture] = tex
		b.s.FlatNormals = tex
	}

	mats := append(slices.Clip(b.s.Materials), m)
	if err := material.Validate(mats, len(b.s.Textures)); err != nil {
		return 0, fmt.Errorf("add material: %w", err)
	}
	b.s.Materials = mats
	return uint32(len(mats) - 1), nil
}

// AddMesh preprocesses desc and appends its triangles, vertices and micro
// BVH. Material indices of the shapes are taken as is.
func (b *Builder) AddMesh(desc *geometry.MeshDesc) (uint32, error) {
	pm, err := geometry.PreprocessMesh(desc)
	if err != nil {
		return 0, fmt.Errorf("add mesh %d: %w", len(b.s.Meshes), err)
	}
	for _, tri := range pm.Tris {
		if int(tri.MI) >= len(b.s.Materials) {
			return 0, fmt.Errorf("add mesh %d: material %d: %w", len(b.s.Meshes), tri.MI, material.ErrBadMaterial)
		}
	}

	s := &b.s
	triOffset := uint32(len(s.Tris))
	vtxOffset := uint32(len(s.Vertices))
	nodeOffset := uint32(len(s.Nodes))

	core.OffsetNodes(pm.Nodes, nodeOffset, uint32(len(s.TriIndices)))
	for _, idx := range pm.TriIndices {
		s.TriIndices = append(s.TriIndices, idx+triOffset)
	}
	s.Tris = append(s.Tris, pm.Tris...)
	s.Nodes = append(s.Nodes, pm.Nodes...)

	s.Vertices = append(s.Vertices, geometry.Vertices(desc)...)
	for _, idx := range desc.Indices {
		s.VtxIndices = append(s.VtxIndices, idx+vtxOffset)
	}

	s.Meshes = append(s.Meshes, core.Mesh{NodeIndex: nodeOffset, NodeCount: uint32(len(pm.Nodes))})
	return uint32(len(s.Meshes) - 1), nil
}

// AddMeshInstance places mesh in the world with xform and returns the
// instance index. Indices stay valid after other instances are removed.
func (b *Builder) AddMeshInstance(mesh uint32, xform mgl32.Mat4) (uint32, error) {
	if int(mesh) >= len(b.s.Meshes) {
		return 0, fmt.Errorf("add instance of mesh %d: %w", mesh, ErrBadMesh)
	}
	b.s.Transforms = append(b.s.Transforms, core.Transform{})
	b.s.MeshInstances = append(b.s.MeshInstances, core.MeshInstance{
		TrIndex:   uint32(len(b.s.Transforms) - 1),
		MeshIndex: mesh,
	})
	b.instances = append(b.instances, instance{mesh: mesh})

	idx := uint32(len(b.instances) - 1)
	if err := b.SetMeshInstanceTransform(idx, xform); err != nil {
		b.instances[idx].removed = true
		return 0, err
	}
	return idx, nil
}

// SetMeshInstanceTransform replaces the transform of instance i and updates
// its world bounding box.
func (b *Builder) SetMeshInstanceTransform(i uint32, xform mgl32.Mat4) error {
	if int(i) >= len(b.instances) || b.instances[i].removed {
		return fmt.Errorf("set transform of instance %d: %w", i, ErrBadInstance)
	}
	if xform.Det() == 0 {
		return fmt.Errorf("set transform of instance %d: %w", i, ErrSingular)
	}

	mi := &b.s.MeshInstances[i]
	b.s.Transforms[mi.TrIndex] = core.Transform{Xform: xform, InvXform: xform.Inv()}

	root := b.s.Nodes[b.s.Meshes[mi.MeshIndex].NodeIndex].BBox
	wb := geometry.TransformBoundingBox(root, xform)
	mi.BBoxMin, mi.BBoxMax = wb[0], wb[1]
	return nil
}

// RemoveMeshInstance drops instance i from the macro BVH.
func (b *Builder) RemoveMeshInstance(i uint32) error {
	if int(i) >= len(b.instances) || b.instances[i].removed {
		return fmt.Errorf("remove instance %d: %w", i, ErrBadInstance)
	}
	b.instances[i].removed = true
	return nil
}

// Build rebuilds the macro BVH over the live instances and returns a scene
// that later builder calls do not modify.
func (b *Builder) Build() (*core.Scene, error) {
	if err := material.Validate(b.s.Materials, len(b.s.Textures)); err != nil {
		return nil, fmt.Errorf("build scene: %w", err)
	}

	s := b.s
	s.Nodes = slices.Clone(b.s.Nodes)
	s.Tris = slices.Clip(b.s.Tris)
	s.TriIndices = slices.Clip(b.s.TriIndices)
	s.Transforms = slices.Clone(b.s.Transforms)
	s.Meshes = slices.Clip(b.s.Meshes)
	s.MeshInstances = slices.Clone(b.s.MeshInstances)
	s.Vertices = slices.Clip(b.s.Vertices)
	s.VtxIndices = slices.Clip(b.s.VtxIndices)
	s.Materials = slices.Clip(b.s.Materials)
	s.Textures = slices.Clip(b.s.Textures)
	s.MiIndices = nil
	s.MacroNodesStart, s.MacroNodesCount = 0, 0

	var live []uint32
	var boxes []core.AABB
	for i, inst := range b.instances {
		if inst.removed {
			continue
		}
		mi := &s.MeshInstances[i]
		live = append(live, uint32(i))
		boxes = append(boxes, core.AABB{Min: mi.BBoxMin, Max: mi.BBoxMax})
	}

	if len(live) > 0 {
		nodes, indices := core.BuildBVH(boxes)
		s.MacroNodesStart = uint32(len(s.Nodes))
		s.MacroNodesCount = uint32(len(nodes))
		core.OffsetNodes(nodes, s.MacroNodesStart, 0)
		s.Nodes = append(s.Nodes, nodes...)

		s.MiIndices = make([]uint32, len(indices))
		for j, idx := range indices {
			s.MiIndices[j] = live[idx]
		}
	}

	b.logger.Info("Scene built",
		zap.Int("triangles", len(s.Tris)),
		zap.Int("nodes", len(s.Nodes)),
		zap.Int("meshes", len(s.Meshes)),
		zap.Int("instances", len(live)),
		zap.Int("materials", len(s.Materials)),
		zap.Int("textures", len(s.Textures)),
		zap.Int("atlas_pages", b.atlas.PageCount()))

	return &s, nil
}
