package loaders

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testSceneYAML = `
name: demo
description: two spheres on a floor
camera:
  origin: [0, 1, -5]
  target: [0, 1, 0]
  fov: 45
environment:
  sky: [0.5, 0.6, 0.8]
  sun_dir: [1, 1, -1]
  sun_color: [4, 4, 4]
  sun_softness: 0.02
textures:
  - name: checks
    checker: {width: 64, height: 64, size: 8, color1: [1, 1, 1], color2: [0, 0, 0]}
materials:
  - name: floor
    kind: diffuse
    color: [0.8, 0.8, 0.8]
    texture: checks
  - name: chrome
    kind: glossy
    color: [0.9, 0.9, 0.9]
    roughness: 0.1
  - name: coat
    kind: mix
    mix: [floor, chrome]
    strength: 0.5
    fresnel: 0.04
meshes:
  - name: ground
    material: floor
    quad: {corner: [-5, 0, -5], u: [10, 0, 0], v: [0, 0, 10]}
  - name: ball
    material: coat
    sphere: {center: [0, 0, 0], radius: 1, segments: 24, rings: 12}
  - name: bunny
    material: chrome
    ply: meshes/bunny.ply
instances:
  - mesh: ground
  - mesh: ball
    translate: [-1.5, 1, 0]
    scale: 0.5
  - mesh: ball
    translate: [1.5, 1, 0]
    rotate: [0, 90, 0]
    scale: [1, 2, 1]
`

func TestParseSceneYAML(t *testing.T) {
	sf, err := ParseSceneYAML(strings.NewReader(testSceneYAML), "/scenes")
	if err != nil {
		t.Fatalf("ParseSceneYAML: %v", err)
	}

	if sf.Name != "demo" || sf.Camera.Fov != 45 || sf.Camera.Target == nil {
		t.Errorf("header = %q fov %v target %v", sf.Name, sf.Camera.Fov, sf.Camera.Target)
	}
	if sf.Environment.SunColor != [3]float32{4, 4, 4} {
		t.Errorf("sun color = %v", sf.Environment.SunColor)
	}
	if len(sf.Textures) != 1 || sf.Textures[0].Checker == nil || sf.Textures[0].Checker.Size != 8 {
		t.Errorf("textures = %+v", sf.Textures)
	}
	if len(sf.Materials) != 3 || sf.Materials[2].Mix[1] != "chrome" {
		t.Errorf("materials = %+v", sf.Materials)
	}
	if got := sf.Path(sf.Meshes[2].PLY); got != filepath.Join("/scenes", "meshes", "bunny.ply") {
		t.Errorf("ply path = %q", got)
	}

	wantScales := []Scale{{1, 1, 1}, {0.5, 0.5, 0.5}, {1, 2, 1}}
	for i, want := range wantScales {
		if sf.Instances[i].Scale != want {
			t.Errorf("instance %d scale = %v, want %v", i, sf.Instances[i].Scale, want)
		}
	}
	if sf.Instances[2].Rotate != [3]float32{0, 90, 0} {
		t.Errorf("rotate = %v", sf.Instances[2].Rotate)
	}
}

func TestParseSceneYAML_Errors(t *testing.T) {
	base := func(mutate func(string) string) string { return mutate(testSceneYAML) }

	tests := []struct {
		name string
		src  string
	}{
		{"unknown field", base(func(s string) string { return s + "lights: []\n" })},
		{"no camera aim", base(func(s string) string { return strings.Replace(s, "  target: [0, 1, 0]\n", "", 1) })},
		{"unknown kind", base(func(s string) string { return strings.Replace(s, "kind: glossy", "kind: velvet", 1) })},
		{"unknown texture", base(func(s string) string { return strings.Replace(s, "texture: checks", "texture: bricks", 1) })},
		{"mix forward reference", base(func(s string) string { return strings.Replace(s, "mix: [floor, chrome]", "mix: [floor, later]", 1) })},
		{"mix self reference", base(func(s string) string { return strings.Replace(s, "mix: [floor, chrome]", "mix: [coat, chrome]", 1) })},
		{"duplicate mesh", base(func(s string) string { return strings.Replace(s, "name: bunny", "name: ball", 1) })},
		{"two mesh sources", base(func(s string) string {
			return strings.Replace(s, "ply: meshes/bunny.ply", "ply: meshes/bunny.ply\n    box: {size: [1, 1, 1]}", 1)
		})},
		{"unknown instance mesh", base(func(s string) string { return strings.Replace(s, "- mesh: ground", "- mesh: sky", 1) })},
		{"zero scale", base(func(s string) string { return strings.Replace(s, "scale: 0.5", "scale: [1, 0, 1]", 1) })},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSceneYAML(strings.NewReader(tt.src), ""); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestParseSceneYAML_ReferenceErrorsWrapSentinel(t *testing.T) {
	src := strings.Replace(testSceneYAML, "- mesh: ground", "- mesh: sky", 1)
	_, err := ParseSceneYAML(strings.NewReader(src), "")
	if !errors.Is(err, ErrSceneFormat) {
		t.Errorf("got %v, want ErrSceneFormat", err)
	}
}

func TestLoadSceneYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.yaml")
	if err := os.WriteFile(path, []byte(testSceneYAML), 0644); err != nil {
		t.Fatal(err)
	}

	sf, err := LoadSceneYAML(path)
	if err != nil {
		t.Fatalf("LoadSceneYAML: %v", err)
	}
	if sf.Dir != dir {
		t.Errorf("Dir = %q, want %q", sf.Dir, dir)
	}

	if _, err := LoadSceneYAML(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
