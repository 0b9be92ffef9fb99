package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestSafeInvert(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"positive", 2, 0.5},
		{"negative", -4, -0.25},
		{"zero", 0, MaxDist},
		{"tiny positive", FltEps / 2, MaxDist},
		{"epsilon", FltEps, MaxDist},
		{"tiny negative", -FltEps / 2, -MaxDist},
		{"negative epsilon", -FltEps, -MaxDist},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeInvert([3]float32{tt.in, tt.in, tt.in})
			for k := 0; k < 3; k++ {
				if got[k] != tt.want {
					t.Errorf("component %d: got %v, want %v", k, got[k], tt.want)
				}
			}
		})
	}
}

func TestBBoxTest(t *testing.T) {
	bmin := [3]float32{-1, -1, -1}
	bmax := [3]float32{1, 1, 1}

	tests := []struct {
		name string
		o, d [3]float32
		t    float32
		want bool
	}{
		{"through center", [3]float32{0, 0, -5}, [3]float32{0, 0, 1}, MaxDist, true},
		{"pointing away", [3]float32{0, 0, -5}, [3]float32{0, 0, -1}, MaxDist, false},
		{"miss to the side", [3]float32{3, 0, -5}, [3]float32{0, 0, 1}, MaxDist, false},
		{"closer hit already", [3]float32{0, 0, -5}, [3]float32{0, 0, 1}, 2, false},
		{"origin inside", [3]float32{0, 0, 0}, [3]float32{1, 0, 0}, MaxDist, true},
		{"axis parallel inside slab", [3]float32{0.5, 0.5, -5}, [3]float32{0, 0, 1}, MaxDist, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BBoxTest(tt.o, SafeInvert(tt.d), tt.t, bmin, bmax); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

// accelFor builds a TriAccel the same way geometry.PreprocessTri does, kept
// here so core has no test dependency on geometry.
func accelFor(p0, p1, p2 mgl32.Vec3) TriAccel {
	e0 := p1.Sub(p0)
	e1 := p2.Sub(p0)
	n := e0.Cross(e1)

	w := 0
	for k := 1; k < 3; k++ {
		if abs32(n[k]) > abs32(n[w]) {
			w = k
		}
	}
	u, v := NextU[w], NextV[w]
	den := e0[u]*e1[v] - e0[v]*e1[u]

	return TriAccel{
		NU: n[u] / n[w], NV: n[v] / n[w],
		NP: p0[w] + n[u]/n[w]*p0[u] + n[v]/n[w]*p0[v],
		PU: p0[u], PV: p0[v],
		CI:  int32(w),
		E0U: e0[u] / den, E0V: e0[v] / den,
		E1U: e1[u] / den, E1V: e1[v] / den,
	}
}

func TestTriAccelIntersect(t *testing.T) {
	tri := accelFor(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})

	tests := []struct {
		name    string
		o, d    [3]float32
		tBest   float32
		wantHit bool
		wantT   float32
		wantU   float32
		wantV   float32
	}{
		{"front", [3]float32{0.25, 0.25, 1}, [3]float32{0, 0, -1}, MaxDist, true, 1, 0.25, 0.25},
		{"back", [3]float32{0.25, 0.5, -2}, [3]float32{0, 0, 1}, MaxDist, true, 2, 0.25, 0.5},
		{"outside", [3]float32{0.75, 0.75, 1}, [3]float32{0, 0, -1}, MaxDist, false, 0, 0, 0},
		{"behind origin", [3]float32{0.25, 0.25, 1}, [3]float32{0, 0, 1}, MaxDist, false, 0, 0, 0},
		{"t equals best", [3]float32{0.25, 0.25, 1}, [3]float32{0, 0, -1}, 1, false, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tv, u, v, ok := tri.Intersect(tt.o, tt.d, tt.tBest)
			if ok != tt.wantHit {
				t.Fatalf("hit = %v, want %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if math.Abs(float64(tv-tt.wantT)) > 1e-5 {
				t.Errorf("t = %v, want %v", tv, tt.wantT)
			}
			if math.Abs(float64(u-tt.wantU)) > 1e-5 || math.Abs(float64(v-tt.wantV)) > 1e-5 {
				t.Errorf("uv = (%v, %v), want (%v, %v)", u, v, tt.wantU, tt.wantV)
			}
		})
	}
}

func TestTransforms(t *testing.T) {
	m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
	inv := m.Inv()

	p := TransformPoint((*[16]float32)(&m), [3]float32{1, 1, 1})
	if p != [3]float32{3, 4, 5} {
		t.Errorf("TransformPoint = %v", p)
	}
	d := TransformDir((*[16]float32)(&m), [3]float32{1, 0, 0})
	if d != [3]float32{2, 0, 0} {
		t.Errorf("TransformDir = %v", d)
	}

	back := TransformPoint((*[16]float32)(&inv), p)
	for k := 0; k < 3; k++ {
		if math.Abs(float64(back[k]-1)) > 1e-5 {
			t.Errorf("inverse round trip component %d = %v", k, back[k])
		}
	}
}

func TestHashWraps(t *testing.T) {
	// Reference values computed with 32-bit two's complement arithmetic
	if Hash(0) != 0 {
		t.Errorf("Hash(0) = %d", Hash(0))
	}
	a, b := Hash(12345), Hash(12346)
	if a == b {
		t.Error("Adjacent inputs should hash differently")
	}
	if Hash(12345) != a {
		t.Error("Hash should be deterministic")
	}
}

func TestPackXY(t *testing.T) {
	xy := PackXY(1023, 767)
	x, y := UnpackXY(xy)
	if x != 1023 || y != 767 {
		t.Errorf("UnpackXY = (%d, %d)", x, y)
	}
}

func TestNewCamera(t *testing.T) {
	cam := NewCamera(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 0, -2}, 90)

	if cam.Fwd != (mgl32.Vec3{0, 0, -1}) {
		t.Errorf("Fwd = %v", cam.Fwd)
	}
	// 90 degrees gives a full width of 2 at unit distance
	if math.Abs(float64(cam.Side.Len()-2)) > 1e-5 {
		t.Errorf("|Side| = %v, want 2", cam.Side.Len())
	}
	if cam.Side[0] <= 0 || cam.Up[1] <= 0 {
		t.Errorf("Basis orientation side=%v up=%v", cam.Side, cam.Up)
	}
	if abs32(cam.Side.Dot(cam.Up)) > 1e-6 {
		t.Error("Side and Up should be orthogonal")
	}

	down := NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, -1, 0}, 60)
	if down.Side.Len() == 0 || down.Up.Len() == 0 {
		t.Error("Camera looking straight down must still have a basis")
	}
}
