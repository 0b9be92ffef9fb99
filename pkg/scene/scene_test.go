package scene

import (
	"errors"
	"image"
	"testing"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/df07/go-packet-raytracer/pkg/texture"
	"github.com/df07/go-packet-raytracer/pkg/traverse"
	"github.com/go-gl/mathgl/mgl32"
)

// unitQuad spans [-1, 1]^2 in the z = 0 plane facing -z.
func unitQuad(mat uint32) *geometry.MeshDesc {
	return geometry.Quad(mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{0, 2, 0}, mgl32.Vec3{2, 0, 0}, mat)
}

func mustMaterial(t *testing.T, b *Builder, m core.Material) uint32 {
	t.Helper()
	id, err := b.AddMaterial(m)
	if err != nil {
		t.Fatalf("AddMaterial: %v", err)
	}
	return id
}

func mustMesh(t *testing.T, b *Builder, desc *geometry.MeshDesc) uint32 {
	t.Helper()
	id, err := b.AddMesh(desc)
	if err != nil {
		t.Fatalf("AddMesh: %v", err)
	}
	return id
}

func traceRay(s *core.Scene, o, d [3]float32) core.Hit[lane.W1] {
	var r core.RayPacket[lane.W1]
	r.SetLane(0, core.Ray{O: o, D: d})
	hit := core.NewHit[lane.W1]()
	traverse.Trace(&r, lane.AllOnes[lane.W1](), s, &hit)
	return hit
}

// traceZ shoots one ray along +z from (x, y, -5).
func traceZ(s *core.Scene, x, y float32) core.Hit[lane.W1] {
	return traceRay(s, [3]float32{x, y, -5}, [3]float32{0, 0, 1})
}

func TestBuilder_DefaultTextures(t *testing.T) {
	b := NewBuilder()
	mustMaterial(t, b, material.NewDiffuse([3]float32{1, 1, 1}))
	mustMaterial(t, b, material.NewGlossy([3]float32{1, 1, 1}, 0.5))

	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s.Textures) != 2 {
		t.Fatalf("got %d textures, want the shared white and flat normal textures", len(s.Textures))
	}
	for i, m := range s.Materials {
		if m.Textures[core.MainTexture] != s.Materials[0].Textures[core.MainTexture] ||
			m.Textures[core.NormalsTexture] != s.Materials[0].Textures[core.NormalsTexture] {
			t.Errorf("material %d does not share default textures: %v", i, m.Textures)
		}
	}

	normals := &s.Textures[s.Materials[0].Textures[core.NormalsTexture]]
	px := s.Atlas.Get(int(normals.Page[0]), int(normals.Pos[0][0]), int(normals.Pos[0][1]))
	if px != (core.Pixel{R: 128, G: 128, B: 255, A: 255}) {
		t.Errorf("flat normal texel = %+v", px)
	}
	if s.FlatNormals != s.Materials[0].Textures[core.NormalsTexture] {
		t.Errorf("FlatNormals = %d, want the shared normal texture %d", s.FlatNormals, s.Materials[0].Textures[core.NormalsTexture])
	}
}

func TestBuilder_MeshOffsets(t *testing.T) {
	b := NewBuilder()
	mat := mustMaterial(t, b, material.NewDiffuse([3]float32{1, 1, 1}))
	quad := mustMesh(t, b, unitQuad(mat))
	box := mustMesh(t, b, geometry.Box(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{}, mat))

	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s.Tris) != 14 || len(s.VtxIndices) != 14*3 {
		t.Fatalf("got %d triangles and %d vertex indices", len(s.Tris), len(s.VtxIndices))
	}

	qm, bm := s.Meshes[quad], s.Meshes[box]
	if qm.NodeIndex != 0 || bm.NodeIndex != qm.NodeCount {
		t.Errorf("mesh node ranges %+v, %+v", qm, bm)
	}

	// box triangles and vertices come after the quad's
	for i := bm.NodeIndex; i < bm.NodeIndex+bm.NodeCount; i++ {
		n := &s.Nodes[i]
		if !n.IsLeaf() {
			continue
		}
		for j := n.PrimIndex; j < n.PrimIndex+n.PrimCount; j++ {
			if tri := s.TriIndices[j]; tri < 2 {
				t.Errorf("box leaf references quad triangle %d", tri)
			}
		}
	}
	for _, v := range s.VtxIndices[6:] {
		if v < 4 {
			t.Errorf("box vertex index %d points into the quad", v)
		}
	}
	if !s.Empty() {
		t.Error("scene without instances should be empty")
	}
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		run     func(b *Builder) error
		wantErr error
	}{
		{"mesh with unknown material", func(b *Builder) error {
			_, err := b.AddMesh(unitQuad(3))
			return err
		}, material.ErrBadMaterial},
		{"instance of unknown mesh", func(b *Builder) error {
			_, err := b.AddMeshInstance(0, mgl32.Ident4())
			return err
		}, ErrBadMesh},
		{"singular transform", func(b *Builder) error {
			mat, _ := b.AddMaterial(material.NewDiffuse([3]float32{1, 1, 1}))
			mesh, _ := b.AddMesh(unitQuad(mat))
			_, err := b.AddMeshInstance(mesh, mgl32.Scale3D(1, 0, 1))
			return err
		}, ErrSingular},
		{"remove twice", func(b *Builder) error {
			mat, _ := b.AddMaterial(material.NewDiffuse([3]float32{1, 1, 1}))
			mesh, _ := b.AddMesh(unitQuad(mat))
			inst, _ := b.AddMeshInstance(mesh, mgl32.Ident4())
			if err := b.RemoveMeshInstance(inst); err != nil {
				return err
			}
			return b.RemoveMeshInstance(inst)
		}, ErrBadInstance},
		{"transform of removed instance", func(b *Builder) error {
			mat, _ := b.AddMaterial(material.NewDiffuse([3]float32{1, 1, 1}))
			mesh, _ := b.AddMesh(unitQuad(mat))
			inst, _ := b.AddMeshInstance(mesh, mgl32.Ident4())
			b.RemoveMeshInstance(inst)
			return b.SetMeshInstanceTransform(inst, mgl32.Ident4())
		}, ErrBadInstance},
		{"mix of missing material", func(b *Builder) error {
			_, err := b.AddMaterial(material.NewMix(0, 1, 1, 0))
			return err
		}, material.ErrBadMaterial},
		{"texture out of range", func(b *Builder) error {
			_, err := b.AddMaterial(material.WithTexture(material.NewDiffuse([3]float32{1, 1, 1}), 9))
			return err
		}, material.ErrBadTexture},
		{"texture too large", func(b *Builder) error {
			_, err := b.AddTexture(image.NewRGBA(image.Rect(0, 0, core.MaxTextureSize+1, 4)))
			return err
		}, texture.ErrTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run(NewBuilder())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuilder_MixDepth(t *testing.T) {
	b := NewBuilder()
	prev := mustMaterial(t, b, material.NewDiffuse([3]float32{1, 1, 1}))
	other := mustMaterial(t, b, material.NewGlossy([3]float32{1, 1, 1}, 0))

	for i := 0; i < core.MaxMixDepth; i++ {
		prev = mustMaterial(t, b, material.NewMix(prev, other, 0.5, 0))
	}
	_, err := b.AddMaterial(material.NewMix(prev, other, 0.5, 0))
	if !errors.Is(err, material.ErrMixDepth) {
		t.Errorf("got %v, want ErrMixDepth", err)
	}
}

func TestBuilder_Instances(t *testing.T) {
	b := NewBuilder()
	mat := mustMaterial(t, b, material.NewDiffuse([3]float32{1, 1, 1}))
	mesh := mustMesh(t, b, unitQuad(mat))

	left, err := b.AddMeshInstance(mesh, mgl32.Translate3D(-3, 0, 0))
	if err != nil {
		t.Fatalf("AddMeshInstance: %v", err)
	}
	right, err := b.AddMeshInstance(mesh, mgl32.Translate3D(3, 0, 0).Mul4(mgl32.Scale3D(2, 2, 2)))
	if err != nil {
		t.Fatalf("AddMeshInstance: %v", err)
	}

	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	mi := s.MeshInstances[right]
	if mi.BBoxMin != [3]float32{1, -2, 0} || mi.BBoxMax != [3]float32{5, 2, 0} {
		t.Errorf("world bounds = %v %v", mi.BBoxMin, mi.BBoxMax)
	}

	tests := []struct {
		x, y    float32
		wantHit bool
		wantObj int32
	}{
		{-3, 0, true, int32(left)},
		{4.5, 1.5, true, int32(right)},
		{0, 0, false, 0},
		{-3, 1.5, false, 0},
	}
	for _, tt := range tests {
		hit := traceZ(s, tt.x, tt.y)
		got := hit.Mask[0] != 0
		if got != tt.wantHit {
			t.Errorf("(%v, %v): hit = %v, want %v", tt.x, tt.y, got, tt.wantHit)
			continue
		}
		if got && (hit.ObjIndex[0] != tt.wantObj || abs32(hit.T[0]-5) > 1e-4) {
			t.Errorf("(%v, %v): object %d at t=%v", tt.x, tt.y, hit.ObjIndex[0], hit.T[0])
		}
	}

	// Removing and moving instances only affects the next Build
	if err := b.RemoveMeshInstance(left); err != nil {
		t.Fatalf("RemoveMeshInstance: %v", err)
	}
	if err := b.SetMeshInstanceTransform(right, mgl32.Translate3D(0, 10, 0)); err != nil {
		t.Fatalf("SetMeshInstanceTransform: %v", err)
	}
	if hit := traceZ(s, -3, 0); hit.Mask[0] == 0 {
		t.Error("earlier scene changed after builder edits")
	}

	s2, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(s2.MiIndices) != 1 || s2.MiIndices[0] != right {
		t.Errorf("MiIndices = %v, want [%d]", s2.MiIndices, right)
	}
	if hit := traceZ(s2, -3, 0); hit.Mask[0] != 0 {
		t.Error("removed instance still hit")
	}
	if hit := traceZ(s2, 0, 10); hit.Mask[0] == 0 || hit.ObjIndex[0] != int32(right) {
		t.Error("moved instance not hit at its new position")
	}
}

func TestTransform(t *testing.T) {
	m := Transform(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 90, 0}, mgl32.Vec3{2, 2, 2})
	got := m.Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	// scale to (2,0,0), rotate about Y to (0,0,-2), translate
	want := mgl32.Vec3{1, 2, 1}
	if !got.ApproxEqualThreshold(want, 1e-5) {
		t.Errorf("Transform applied to x axis = %v, want %v", got, want)
	}
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
