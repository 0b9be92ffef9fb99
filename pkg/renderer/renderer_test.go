package renderer

import (
	"image"
	"math"
	"testing"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/scene"
	"github.com/go-gl/mathgl/mgl32"
)

func near(a, b, tol float32) bool {
	return math.Abs(float64(a-b)) <= float64(tol)
}

func TestHalton(t *testing.T) {
	h1 := NewHalton(0)
	h2 := NewHalton(0)

	seq := h1.Fill(1, nil)
	if len(seq) != core.HaltonSeqLen*2 {
		t.Fatalf("Expected %d values, got %d", core.HaltonSeqLen*2, len(seq))
	}
	for i, v := range seq {
		if v < 0 || v >= 1 {
			t.Fatalf("Value %d = %v outside [0, 1)", i, v)
		}
	}

	again := h2.Fill(1, make([]float32, core.HaltonSeqLen*2))
	for i := range seq {
		if seq[i] != again[i] {
			t.Fatalf("Same seed differs at %d: %v != %v", i, seq[i], again[i])
		}
	}

	// The table for iteration n+1 is the table for n shifted by one point.
	next := h1.Fill(2, nil)
	for i := 0; i < core.HaltonSeqLen-1; i++ {
		if next[i*2] != seq[(i+1)*2] || next[i*2+1] != seq[(i+1)*2+1] {
			t.Fatalf("Point %d of iteration 2 is not point %d of iteration 1", i, i+1)
		}
	}

	other := NewHalton(7).Fill(1, nil)
	same := true
	for i := range seq {
		if seq[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different seeds produced identical tables")
	}
}

func TestNeedsRefresh(t *testing.T) {
	table := make([]float32, 2)
	tests := []struct {
		seq       []float32
		iteration int32
		want      bool
	}{
		{nil, 1, true},
		{table, 1, false},
		{table, core.HaltonSeqLen, true},
		{table, core.HaltonSeqLen + 1, false},
		{table, 2 * core.HaltonSeqLen, true},
	}
	for _, tt := range tests {
		if got := needsRefresh(tt.seq, tt.iteration); got != tt.want {
			t.Errorf("needsRefresh(nil=%v, %d) = %v, want %v", tt.seq == nil, tt.iteration, got, tt.want)
		}
	}
}

func TestFramebuffer_MixIncremental(t *testing.T) {
	clean := NewFramebuffer(4, 4)
	temp := NewFramebuffer(4, 4)
	rect := image.Rect(1, 1, 3, 3)

	// Running mean of samples 1, 0, 2 is 1.
	samples := []float32{1, 0, 2}
	want := []float32{1, 0.5, 1}
	for i, s := range samples {
		temp.Clear(Color{s, s, s, 1})
		clean.MixIncremental(temp, rect, 1/float32(i+1))
		if got := clean.Pixel(1, 2); !near(got[0], want[i], 1e-6) || got[3] != 1 {
			t.Errorf("After sample %d: %v, want %v", i, got, want[i])
		}
	}

	if got := clean.Pixel(0, 0); got != (Color{}) {
		t.Errorf("Pixel outside the rect changed: %v", got)
	}
	if got := clean.Pixel(3, 3); got != (Color{}) {
		t.Errorf("Pixel outside the rect changed: %v", got)
	}
}

func TestFramebuffer_SetAddPixel(t *testing.T) {
	fb := NewFramebuffer(2, 2)
	fb.SetPixel(1, 0, Color{0.25, 0.5, 0.75, 1})
	fb.AddPixel(1, 0, Color{0.25, 0.25, 0.25, 1})

	got := fb.Pixel(1, 0)
	if got != (Color{0.5, 0.75, 1, 1}) {
		t.Errorf("Expected {0.5 0.75 1 1}, got %v", got)
	}
}

func TestFramebuffer_CopyFromGamma(t *testing.T) {
	src := NewFramebuffer(3, 1)
	src.SetPixel(0, 0, Color{0.5, 0, 1, 1})
	src.SetPixel(1, 0, Color{-1, 4, float32(math.NaN()), 1})
	src.SetPixel(2, 0, Color{1, 1, 1, 1})

	dst := NewFramebuffer(3, 1)
	dst.CopyFrom(src, image.Rect(0, 0, 2, 1), gammaCorrect)

	want := float32(math.Pow(0.5, 1/2.2))
	if got := dst.Pixel(0, 0); !near(got[0], want, 1e-6) || got[1] != 0 || got[2] != 1 {
		t.Errorf("Pixel 0 = %v, want [%v 0 1 1]", got, want)
	}
	if got := dst.Pixel(1, 0); got != (Color{0, 1, 0, 1}) {
		t.Errorf("Pixel 1 = %v, want clamped {0 1 0 1}", got)
	}
	if got := dst.Pixel(2, 0); got != (Color{}) {
		t.Errorf("Pixel outside the rect was copied: %v", got)
	}

	img := dst.ImageRect(image.Rect(1, 0, 2, 1))
	if img.Bounds() != image.Rect(0, 0, 1, 1) {
		t.Fatalf("ImageRect bounds %v", img.Bounds())
	}
	if c := img.RGBAAt(0, 0); c.R != 0 || c.G != 255 || c.A != 255 {
		t.Errorf("8-bit pixel = %v", c)
	}
}

func TestPassCache_Reuse(t *testing.T) {
	var c passCache[lane.W4]

	p := c.get()
	p.primaryRays = make([]core.RayPacket[lane.W4], 10)
	c.put(p, Stats{Regions: 1})

	if got := c.get(); got != p {
		t.Error("Expected the returned PassData to be reused")
	}
	if got := c.get(); got == p {
		t.Error("A checked out PassData must not be handed out twice")
	}
	if st := c.snapshot(); st.Regions != 1 {
		t.Errorf("Expected merged stats with 1 region, got %d", st.Regions)
	}

	c.resetStats()
	if st := c.snapshot(); st != (Stats{}) {
		t.Errorf("Expected empty stats after reset, got %+v", st)
	}
}

func TestRenderScene_ReturnsPassData(t *testing.T) {
	s, err := scene.Builtin("default")
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	r := newPacketRenderer[lane.W8](16, 8)
	region := NewRegionContext(image.Rectangle{})

	for i := 0; i < 3; i++ {
		r.RenderScene(s, region)
	}
	if len(r.cache.free) != 1 {
		t.Errorf("Expected one cached PassData after sequential renders, got %d", len(r.cache.free))
	}
	if region.Iteration() != 3 || len(region.Halton()) != core.HaltonSeqLen*2 {
		t.Errorf("Region iteration %d, halton %d values", region.Iteration(), len(region.Halton()))
	}
	if st := r.Stats(); st.Regions != 3 || st.Total() <= 0 {
		t.Errorf("Unexpected stats %+v", st)
	}
}

func primaryRays[W lane.Width](cam *core.Camera, rect image.Rectangle, w, h int, halton []float32) map[int32]core.RayPacket[lane.W1] {
	rays, masks := GeneratePrimaryRays[W](1, cam, rect, w, h, halton, nil, nil)

	out := make(map[int32]core.RayPacket[lane.W1])
	for i := range rays {
		for l := 0; l < lane.Lanes[W](); l++ {
			if masks[i][l] == 0 {
				continue
			}
			var one core.RayPacket[lane.W1]
			one.SetLane(0, rays[i].Lane(l))
			for k := 0; k < 3; k++ {
				one.DdDx[k][0] = rays[i].DdDx[k][l]
				one.DdDy[k][0] = rays[i].DdDy[k][l]
				one.DoDx[k][0] = rays[i].DoDx[k][l]
			}
			for k := 0; k < 4; k++ {
				one.C[k][0] = rays[i].C[k][l]
			}
			out[rays[i].XY[l]] = one
		}
	}
	return out
}

func TestGeneratePrimaryRays(t *testing.T) {
	cam := core.NewCamera(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{0, 0, 1}, 60)
	halton := NewHalton(0).Fill(1, nil)
	rect := image.Rect(1, 2, 6, 5) // 5x3, not a multiple of any packet

	ref := primaryRays[lane.W1](&cam, rect, 8, 6, halton)
	if len(ref) != 15 {
		t.Fatalf("Expected 15 active rays, got %d", len(ref))
	}

	for xy, r := range ref {
		x, y := core.UnpackXY(xy)
		if !image.Pt(x, y).In(rect) {
			t.Errorf("Active ray for pixel (%d,%d) outside %v", x, y, rect)
		}
		ray := r.Lane(0)
		if ray.O != [3]float32{1, 2, 3} {
			t.Errorf("Origin %v", ray.O)
		}
		d := mgl32.Vec3(ray.D)
		if !near(d.Len(), 1, 1e-5) || d[2] <= 0 {
			t.Errorf("Pixel (%d,%d): direction %v", x, y, d)
		}
		for k := 0; k < 4; k++ {
			if r.C[k][0] != 1 {
				t.Errorf("Pixel (%d,%d): throughput/ior %d = %v", x, y, k, r.C[k][0])
			}
		}
		if r.DoDx[0][0] != 0 || r.DdDx[0][0] == 0 || r.DdDy[1][0] == 0 {
			t.Errorf("Pixel (%d,%d): bad differentials", x, y)
		}
	}

	// Image rows grow downwards so moving one pixel down lowers the ray.
	for xy, r := range ref {
		if r.DdDy[1][0] >= 0 {
			x, y := core.UnpackXY(xy)
			t.Errorf("Pixel (%d,%d): dD/dy.y = %v, want negative", x, y, r.DdDy[1][0])
		}
	}

	check := func(name string, got map[int32]core.RayPacket[lane.W1]) {
		if len(got) != len(ref) {
			t.Fatalf("%s: %d active rays, want %d", name, len(got), len(ref))
		}
		for xy, want := range ref {
			r, ok := got[xy]
			if !ok {
				x, y := core.UnpackXY(xy)
				t.Fatalf("%s: no ray for pixel (%d,%d)", name, x, y)
			}
			if r != want {
				x, y := core.UnpackXY(xy)
				t.Errorf("%s: pixel (%d,%d) differs from the scalar ray", name, x, y)
			}
		}
	}
	check("W4", primaryRays[lane.W4](&cam, rect, 8, 6, halton))
	check("W8", primaryRays[lane.W8](&cam, rect, 8, 6, halton))
	check("W16", primaryRays[lane.W16](&cam, rect, 8, 6, halton))
}

func renderFrames(t *testing.T, laneWidth int, s *core.Scene, w, h, passes int, rects []image.Rectangle) *Framebuffer {
	t.Helper()
	r, err := New(laneWidth, w, h)
	if err != nil {
		t.Fatalf("New(%d): %v", laneWidth, err)
	}
	if r.LaneWidth() != laneWidth {
		t.Fatalf("LaneWidth = %d, want %d", r.LaneWidth(), laneWidth)
	}

	regions := make([]*RegionContext, len(rects))
	for i, rect := range rects {
		regions[i] = NewRegionContext(rect)
	}
	for p := 0; p < passes; p++ {
		for _, region := range regions {
			r.RenderScene(s, region)
		}
	}
	return r.Framebuffer()
}

// Every lane width must produce the scalar result.
func TestRenderScene_WidthsAgree(t *testing.T) {
	const w, h = 13, 11
	rects := []image.Rectangle{
		image.Rect(0, 0, 7, 6),
		image.Rect(7, 0, 13, 6),
		image.Rect(0, 6, 13, 11),
	}

	for _, name := range []string{"default", "textured", "cornell"} {
		t.Run(name, func(t *testing.T) {
			s, err := scene.Builtin(name)
			if err != nil {
				t.Fatalf("Builtin: %v", err)
			}
			ref := renderFrames(t, 1, s, w, h, 2, rects)

			for _, lanes := range []int{4, 8, 16} {
				got := renderFrames(t, lanes, s, w, h, 2, rects)
				for y := 0; y < h; y++ {
					for x := 0; x < w; x++ {
						a, b := ref.Pixel(x, y), got.Pixel(x, y)
						for c := 0; c < 4; c++ {
							tol := 1e-4 * max(1, float32(math.Abs(float64(a[c]))))
							if !near(a[c], b[c], tol) {
								t.Fatalf("W%d pixel (%d,%d) channel %d: %v, scalar %v", lanes, x, y, c, b[c], a[c])
							}
						}
					}
				}
			}
		})
	}
}

// A camera filled by a unit emitter converges to exactly one on every pass.
func TestRenderScene_EmissiveConvergence(t *testing.T) {
	s, err := scene.Builtin("emissive")
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}

	r, err := New(4, 10, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	region := NewRegionContext(image.Rectangle{})

	for pass := 1; pass <= 4; pass++ {
		r.RenderScene(s, region)
		fb := r.Framebuffer()
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				px := fb.Pixel(x, y)
				for c := 0; c < 3; c++ {
					if !near(px[c], 1, 1e-5) {
						t.Fatalf("Pass %d pixel (%d,%d) channel %d = %v, want 1", pass, x, y, c, px[c])
					}
				}
			}
		}
	}
}

func TestRenderScene_SkyOnly(t *testing.T) {
	b := scene.NewBuilder()
	b.SetCamera(core.NewCamera(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, 60))
	b.SetEnvironment(core.Environment{SkyColor: [3]float32{0.25, 0.5, 1}, SunDir: [3]float32{0, 1, 0}})
	s, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	fb := renderFrames(t, 8, s, 9, 7, 2, []image.Rectangle{{}})

	want := [3]float32{
		float32(math.Pow(0.25, 1/2.2)),
		float32(math.Pow(0.5, 1/2.2)),
		1,
	}
	for y := 0; y < 7; y++ {
		for x := 0; x < 9; x++ {
			px := fb.Pixel(x, y)
			for c := 0; c < 3; c++ {
				if !near(px[c], want[c], 1e-5) {
					t.Fatalf("Pixel (%d,%d) channel %d = %v, want %v", x, y, c, px[c], want[c])
				}
			}
		}
	}
}

func TestNew_LaneWidth(t *testing.T) {
	r, err := New(0, 4, 4)
	if err != nil {
		t.Fatalf("New(0): %v", err)
	}
	if r.LaneWidth() != lane.Detect() {
		t.Errorf("Auto lane width = %d, want %d", r.LaneWidth(), lane.Detect())
	}
	if w, h := r.Size(); w != 4 || h != 4 {
		t.Errorf("Size = %dx%d", w, h)
	}

	for _, bad := range []int{2, 3, 32, -1} {
		if _, err := New(bad, 4, 4); err == nil {
			t.Errorf("Expected error for lane width %d", bad)
		}
	}
}
