package scene

import (
	"errors"
	"fmt"
	"sort"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/go-gl/mathgl/mgl32"
)

var ErrUnknownScene = errors.New("unknown scene")

type builtin struct {
	info  SceneInfo
	build func(b *Builder) error
}

var builtins = map[string]builtin{
	"cornell": {
		SceneInfo{Name: "cornell", DisplayName: "Cornell Box", Group: "Classic",
			Description: "Red and green walls, a ceiling light, a glossy block and a glass block"},
		buildCornell,
	},
	"default": {
		SceneInfo{Name: "default", DisplayName: "Spheres", Group: "Classic",
			Description: "Glossy, coated and glass spheres on a ground plane under a sun"},
		buildDefault,
	},
	"emissive": {
		SceneInfo{Name: "emissive", DisplayName: "Emissive Quad", Group: "Test",
			Description: "A single emissive quad filling the view"},
		buildEmissive,
	},
	"textured": {
		SceneInfo{Name: "textured", DisplayName: "Textures", Group: "Test",
			Description: "Checkerboard and UV textures, a mix material and a transparent pane"},
		buildTextured,
	},
	"instances": {
		SceneInfo{Name: "instances", DisplayName: "Sphere Grid", Group: "Instancing",
			Description: "A grid of instanced spheres with per-instance materials"},
		buildInstances,
	},
	"ply": {
		SceneInfo{Name: "ply", DisplayName: "PLY Mesh", Group: "Meshes",
			Description: "A PLY mesh from disk on a ground plane"},
		buildPLY,
	},
}

// Builtins lists the built-in scenes sorted by name.
func Builtins() []SceneInfo {
	infos := make([]SceneInfo, 0, len(builtins))
	for name, bi := range builtins {
		info := bi.info
		info.ID = name
		info.Type = "builtin"
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// Builtin builds the named built-in scene.
func Builtin(name string, opts ...Option) (*core.Scene, error) {
	bi, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownScene)
	}

	b := NewBuilder(opts...)
	if err := bi.build(b); err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	return b.Build()
}

// Transform composes scale, rotation in degrees about X then Y then Z, and
// translation.
func Transform(translate, rotateDeg, scale mgl32.Vec3) mgl32.Mat4 {
	return mgl32.Translate3D(translate[0], translate[1], translate[2]).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(rotateDeg[2]))).
		Mul4(mgl32.HomogRotate3DY(mgl32.DegToRad(rotateDeg[1]))).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(rotateDeg[0]))).
		Mul4(mgl32.Scale3D(scale[0], scale[1], scale[2]))
}

// addObject adds desc as a mesh with a single identity instance.
func (b *Builder) addObject(desc *geometry.MeshDesc) error {
	mesh, err := b.AddMesh(desc)
	if err != nil {
		return err
	}
	_, err = b.AddMeshInstance(mesh, mgl32.Ident4())
	return err
}

// addMaterials adds each material in order and returns their indices.
func (b *Builder) addMaterials(mats ...core.Material) ([]uint32, error) {
	ids := make([]uint32, len(mats))
	for i, m := range mats {
		id, err := b.AddMaterial(m)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
