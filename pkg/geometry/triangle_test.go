package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/go-gl/mathgl/mgl32"
)

func randVec(random *rand.Rand, scale float32) mgl32.Vec3 {
	return mgl32.Vec3{
		(random.Float32()*2 - 1) * scale,
		(random.Float32()*2 - 1) * scale,
		(random.Float32()*2 - 1) * scale,
	}
}

func TestPreprocessTri_Axes(t *testing.T) {
	tests := []struct {
		name       string
		p0, p1, p2 mgl32.Vec3
		wantW      int
	}{
		{"xy plane", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}, 2},
		{"xz plane", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 0, 1}, 1},
		{"yz plane", mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0}, mgl32.Vec3{0, 0, 1}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acc := PreprocessTri(tt.p0, tt.p1, tt.p2)
			if acc.W() != tt.wantW {
				t.Errorf("dominant axis = %d, want %d", acc.W(), tt.wantW)
			}
			n := PlaneNormal(&acc)
			if math.Abs(float64(abs32(n[tt.wantW])-1)) > 1e-6 {
				t.Errorf("plane normal = %v", n)
			}
		})
	}
}

// A ray aimed at a known barycentric point of a triangle must report the
// same barycentrics and the distance to that point.
func TestPreprocessTri_RoundTrip(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		p0, p1, p2 := randVec(random, 5), randVec(random, 5), randVec(random, 5)
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.Len() < 0.5 {
			continue // skip slivers; precision there is not the point of this test
		}

		u := random.Float32() * 0.8
		v := random.Float32() * (0.9 - u)
		target := p0.Mul(1 - u - v).Add(p1.Mul(u)).Add(p2.Mul(v))

		dir := randVec(random, 1)
		if abs32(dir.Normalize().Dot(n.Normalize())) < 0.2 {
			continue // grazing rays amplify float error
		}
		dir = dir.Normalize()
		dist := float32(1 + random.Float32()*10)
		origin := target.Sub(dir.Mul(dist))

		acc := PreprocessTri(p0, p1, p2)
		gotT, gotU, gotV, ok := acc.Intersect(origin, dir, core.MaxDist)
		if !ok {
			t.Fatalf("case %d: expected hit at u=%v v=%v", i, u, v)
		}
		if math.Abs(float64(gotT-dist)) > 1e-3*float64(dist) {
			t.Errorf("case %d: t = %v, want %v", i, gotT, dist)
		}
		if math.Abs(float64(gotU-u)) > 1e-3 || math.Abs(float64(gotV-v)) > 1e-3 {
			t.Errorf("case %d: uv = (%v, %v), want (%v, %v)", i, gotU, gotV, u, v)
		}
	}
}

func TestPreprocessTri_Degenerate(t *testing.T) {
	acc := PreprocessTri(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{2, 2, 2})
	if _, _, _, ok := acc.Intersect([3]float32{0.5, 0.5, -1}, [3]float32{0, 0, 1}, core.MaxDist); ok {
		t.Error("Degenerate triangle should never be hit")
	}
}
