package scene

import (
	"fmt"
	"image/color"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/loaders"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/df07/go-packet-raytracer/pkg/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// LoadYAML reads a YAML scene file and builds it.
func LoadYAML(path string, opts ...Option) (*core.Scene, error) {
	sf, err := loaders.LoadSceneYAML(path)
	if err != nil {
		return nil, err
	}
	return FromSceneFile(sf, opts...)
}

// FromSceneFile builds a parsed scene file. Textures, materials and meshes
// are added in file order and referenced by name.
func FromSceneFile(sf *loaders.SceneFile, opts ...Option) (*core.Scene, error) {
	b := NewBuilder(opts...)

	cam := sf.Camera
	if cam.Target != nil {
		b.SetCamera(core.LookAt(cam.Origin, *cam.Target, cam.Fov))
	} else {
		b.SetCamera(core.NewCamera(cam.Origin, *cam.Forward, cam.Fov))
	}

	env := sf.Environment
	b.SetEnvironment(core.Environment{
		SkyColor:    env.Sky,
		SunDir:      env.SunDir,
		SunColor:    env.SunColor,
		SunSoftness: env.SunSoftness,
	})

	textures := make(map[string]uint32, len(sf.Textures))
	for _, td := range sf.Textures {
		id, err := addTextureDesc(b, sf, td)
		if err != nil {
			return nil, fmt.Errorf("texture %q: %w", td.Name, err)
		}
		textures[td.Name] = id
	}

	materials := make(map[string]uint32, len(sf.Materials))
	for _, md := range sf.Materials {
		m, err := materialFromDesc(md, textures, materials)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", md.Name, err)
		}
		id, err := b.AddMaterial(m)
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", md.Name, err)
		}
		materials[md.Name] = id
	}

	meshes := make(map[string]uint32, len(sf.Meshes))
	for _, ms := range sf.Meshes {
		desc, err := meshFromSource(sf, ms, materials[ms.Material])
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", ms.Name, err)
		}
		id, err := b.AddMesh(desc)
		if err != nil {
			return nil, fmt.Errorf("mesh %q: %w", ms.Name, err)
		}
		meshes[ms.Name] = id
	}

	for i, inst := range sf.Instances {
		xform := Transform(inst.Translate, inst.Rotate, mgl32.Vec3(inst.Scale))
		if _, err := b.AddMeshInstance(meshes[inst.Mesh], xform); err != nil {
			return nil, fmt.Errorf("instance %d: %w", i, err)
		}
	}

	return b.Build()
}

func addTextureDesc(b *Builder, sf *loaders.SceneFile, td loaders.TextureDesc) (uint32, error) {
	if c := td.Checker; c != nil {
		return b.AddTexture(texture.NewCheckerboard(c.Width, c.Height, c.Size, toRGBA(c.Color1), toRGBA(c.Color2)))
	}
	img, err := loaders.LoadImage(sf.Path(td.File))
	if err != nil {
		return 0, err
	}
	return b.AddTexture(img)
}

func toRGBA(c [3]float32) color.RGBA {
	conv := func(x float32) uint8 {
		return uint8(min(max(x, 0), 1)*255 + 0.5)
	}
	return color.RGBA{conv(c[0]), conv(c[1]), conv(c[2]), 255}
}

func materialFromDesc(md loaders.MaterialDesc, textures, materials map[string]uint32) (core.Material, error) {
	kind, err := material.ParseKind(md.Kind)
	if err != nil {
		return core.Material{}, err
	}

	var m core.Material
	switch kind {
	case core.Diffuse:
		m = material.NewDiffuse(md.Color)
	case core.Glossy:
		m = material.NewGlossy(md.Color, md.Roughness)
	case core.Refractive:
		m = material.NewRefractive(md.Color, md.IOR, md.Roughness)
	case core.Emissive:
		m = material.NewEmissive(md.Color, md.Strength)
	case core.Transparent:
		m = material.NewTransparent()
	case core.Mix:
		m = material.NewMix(materials[md.Mix[0]], materials[md.Mix[1]], md.Strength, md.Fresnel)
		if md.Color != ([3]float32{}) {
			m.MainColor = md.Color
		}
	}

	if md.Texture != "" {
		m = material.WithTexture(m, textures[md.Texture])
	}
	if md.NormalMap != "" {
		m = material.WithNormalMap(m, textures[md.NormalMap])
	}
	return m, nil
}

func meshFromSource(sf *loaders.SceneFile, ms loaders.MeshSource, mat uint32) (*geometry.MeshDesc, error) {
	switch {
	case ms.PLY != "":
		data, err := loaders.LoadPLY(sf.Path(ms.PLY))
		if err != nil {
			return nil, err
		}
		return data.MeshDesc(mat), nil
	case ms.Quad != nil:
		return geometry.Quad(ms.Quad.Corner, ms.Quad.U, ms.Quad.V, mat), nil
	case ms.Box != nil:
		rot := mgl32.Vec3{
			mgl32.DegToRad(ms.Box.Rotation[0]),
			mgl32.DegToRad(ms.Box.Rotation[1]),
			mgl32.DegToRad(ms.Box.Rotation[2]),
		}
		return geometry.Box(ms.Box.Center, ms.Box.Size, rot, mat), nil
	default:
		s := ms.Sphere
		segments, rings := s.Segments, s.Rings
		if segments == 0 {
			segments = 32
		}
		if rings == 0 {
			rings = segments / 2
		}
		return geometry.UVSphere(s.Center, s.Radius, segments, rings, mat), nil
	}
}
