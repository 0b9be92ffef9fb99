package loaders

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"gopkg.in/yaml.v3"
)

var ErrSceneFormat = errors.New("invalid scene file")

// SceneFile is the parsed form of a YAML scene description. Names are
// resolved to indices when the scene is built.
type SceneFile struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Group       string         `yaml:"group"`
	Camera      CameraDesc     `yaml:"camera"`
	Environment EnvDesc        `yaml:"environment"`
	Textures    []TextureDesc  `yaml:"textures"`
	Materials   []MaterialDesc `yaml:"materials"`
	Meshes      []MeshSource   `yaml:"meshes"`
	Instances   []InstanceDesc `yaml:"instances"`

	// Dir is the directory of the scene file; relative paths resolve
	// against it.
	Dir string `yaml:"-"`
}

type CameraDesc struct {
	Origin  [3]float32  `yaml:"origin"`
	Target  *[3]float32 `yaml:"target"`
	Forward *[3]float32 `yaml:"forward"`
	Fov     float32     `yaml:"fov"`
}

type EnvDesc struct {
	Sky         [3]float32 `yaml:"sky"`
	SunDir      [3]float32 `yaml:"sun_dir"`
	SunColor    [3]float32 `yaml:"sun_color"`
	SunSoftness float32    `yaml:"sun_softness"`
}

// TextureDesc names either an image file or a procedural checkerboard.
type TextureDesc struct {
	Name    string       `yaml:"name"`
	File    string       `yaml:"file"`
	Checker *CheckerDesc `yaml:"checker"`
}

type CheckerDesc struct {
	Width  int        `yaml:"width"`
	Height int        `yaml:"height"`
	Size   int        `yaml:"size"`
	Color1 [3]float32 `yaml:"color1"`
	Color2 [3]float32 `yaml:"color2"`
}

type MaterialDesc struct {
	Name      string     `yaml:"name"`
	Kind      string     `yaml:"kind"`
	Color     [3]float32 `yaml:"color"`
	Texture   string     `yaml:"texture"`
	NormalMap string     `yaml:"normal_map"`
	Roughness float32    `yaml:"roughness"`
	Strength  float32    `yaml:"strength"`
	Fresnel   float32    `yaml:"fresnel"`
	IOR       float32    `yaml:"ior"`
	Mix       []string   `yaml:"mix"`
}

// MeshSource describes exactly one of a PLY file or a primitive.
type MeshSource struct {
	Name     string      `yaml:"name"`
	Material string      `yaml:"material"`
	PLY      string      `yaml:"ply"`
	Quad     *QuadDesc   `yaml:"quad"`
	Box      *BoxDesc    `yaml:"box"`
	Sphere   *SphereDesc `yaml:"sphere"`
}

type QuadDesc struct {
	Corner [3]float32 `yaml:"corner"`
	U      [3]float32 `yaml:"u"`
	V      [3]float32 `yaml:"v"`
}

type BoxDesc struct {
	Center   [3]float32 `yaml:"center"`
	Size     [3]float32 `yaml:"size"`
	Rotation [3]float32 `yaml:"rotation"` // degrees
}

type SphereDesc struct {
	Center   [3]float32 `yaml:"center"`
	Radius   float32    `yaml:"radius"`
	Segments int        `yaml:"segments"`
	Rings    int        `yaml:"rings"`
}

// InstanceDesc places a mesh with scale, then rotation (degrees about X, Y
// and Z), then translation.
type InstanceDesc struct {
	Mesh      string     `yaml:"mesh"`
	Translate [3]float32 `yaml:"translate"`
	Rotate    [3]float32 `yaml:"rotate"`
	Scale     Scale      `yaml:"scale"`
}

// Scale accepts either a single number or a three element list.
type Scale [3]float32

func (s *Scale) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var f float32
		if err := node.Decode(&f); err != nil {
			return err
		}
		*s = Scale{f, f, f}
		return nil
	}
	var v [3]float32
	if err := node.Decode(&v); err != nil {
		return err
	}
	*s = Scale(v)
	return nil
}

// LoadSceneYAML reads and validates a YAML scene file.
func LoadSceneYAML(filename string) (*SceneFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open scene file: %w", err)
	}
	defer file.Close()

	sf, err := ParseSceneYAML(file, filepath.Dir(filename))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return sf, nil
}

// ParseSceneYAML decodes a scene from r. Relative file references resolve
// against dir.
func ParseSceneYAML(r io.Reader, dir string) (*SceneFile, error) {
	sf := &SceneFile{Dir: dir}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(sf); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}

	// defaults
	if sf.Camera.Fov == 0 {
		sf.Camera.Fov = 60
	}
	for i := range sf.Instances {
		if sf.Instances[i].Scale == (Scale{}) {
			sf.Instances[i].Scale = Scale{1, 1, 1}
		}
	}

	if err := sf.validate(); err != nil {
		return nil, err
	}
	return sf, nil
}

// Path resolves a file reference from the scene.
func (sf *SceneFile) Path(ref string) string {
	if filepath.IsAbs(ref) || sf.Dir == "" {
		return ref
	}
	return filepath.Join(sf.Dir, ref)
}

func (sf *SceneFile) validate() error {
	if (sf.Camera.Target == nil) == (sf.Camera.Forward == nil) {
		return fmt.Errorf("camera needs exactly one of target or forward: %w", ErrSceneFormat)
	}

	textures := make(map[string]bool, len(sf.Textures))
	for _, t := range sf.Textures {
		if err := unique(textures, "texture", t.Name); err != nil {
			return err
		}
		if (t.File == "") == (t.Checker == nil) {
			return fmt.Errorf("texture %q needs exactly one of file or checker: %w", t.Name, ErrSceneFormat)
		}
		if c := t.Checker; c != nil && (c.Width <= 0 || c.Height <= 0 || c.Size <= 0) {
			return fmt.Errorf("texture %q: checker sizes must be positive: %w", t.Name, ErrSceneFormat)
		}
	}

	materials := make(map[string]bool, len(sf.Materials))
	for _, m := range sf.Materials {
		if err := unique(materials, "material", m.Name); err != nil {
			return err
		}
		kind, err := material.ParseKind(m.Kind)
		if err != nil {
			return fmt.Errorf("material %q: %w", m.Name, err)
		}
		for _, ref := range []string{m.Texture, m.NormalMap} {
			if ref != "" && !textures[ref] {
				return fmt.Errorf("material %q: unknown texture %q: %w", m.Name, ref, ErrSceneFormat)
			}
		}
		if kind == core.Mix {
			if len(m.Mix) != 2 {
				return fmt.Errorf("mix material %q needs two sub-materials: %w", m.Name, ErrSceneFormat)
			}
			// sub-materials must be declared first, so cycles cannot be expressed
			for _, ref := range m.Mix {
				if !materials[ref] || ref == m.Name {
					return fmt.Errorf("mix material %q: %q must be declared before it: %w", m.Name, ref, ErrSceneFormat)
				}
			}
		} else if len(m.Mix) != 0 {
			return fmt.Errorf("material %q: mix list on a %s material: %w", m.Name, m.Kind, ErrSceneFormat)
		}
	}

	meshes := make(map[string]bool, len(sf.Meshes))
	for _, m := range sf.Meshes {
		if err := unique(meshes, "mesh", m.Name); err != nil {
			return err
		}
		if !materials[m.Material] {
			return fmt.Errorf("mesh %q: unknown material %q: %w", m.Name, m.Material, ErrSceneFormat)
		}
		sources := 0
		if m.PLY != "" {
			sources++
		}
		for _, set := range []bool{m.Quad != nil, m.Box != nil, m.Sphere != nil} {
			if set {
				sources++
			}
		}
		if sources != 1 {
			return fmt.Errorf("mesh %q needs exactly one of ply, quad, box or sphere: %w", m.Name, ErrSceneFormat)
		}
		if m.Sphere != nil && m.Sphere.Radius <= 0 {
			return fmt.Errorf("mesh %q: sphere radius must be positive: %w", m.Name, ErrSceneFormat)
		}
	}

	for i, inst := range sf.Instances {
		if !meshes[inst.Mesh] {
			return fmt.Errorf("instance %d: unknown mesh %q: %w", i, inst.Mesh, ErrSceneFormat)
		}
		for _, s := range inst.Scale {
			if s == 0 {
				return fmt.Errorf("instance %d: zero scale: %w", i, ErrSceneFormat)
			}
		}
	}
	return nil
}

func unique(seen map[string]bool, what, name string) error {
	if name == "" {
		return fmt.Errorf("%s without a name: %w", what, ErrSceneFormat)
	}
	if seen[name] {
		return fmt.Errorf("duplicate %s %q: %w", what, name, ErrSceneFormat)
	}
	seen[name] = true
	return nil
}
