package texture

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

var (
	white = color.RGBA{255, 255, 255, 255}
	black = color.RGBA{0, 0, 0, 255}
	red   = color.RGBA{255, 0, 0, 255}
)

func TestAtlas_AllocateWrapsBorder(t *testing.T) {
	a := NewAtlas(64, 64, nil)
	img := NewCheckerboard(4, 4, 1, white, black)

	pg, pos, err := a.Allocate(img)
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}
	if pg != 0 || pos != [2]int{0, 0} {
		t.Fatalf("first allocation at page %d pos %v", pg, pos)
	}

	// interior
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := img.RGBAAt(x, y)
			if got := a.Get(pg, pos[0]+1+x, pos[1]+1+y); got != (Pixel{R: c.R, G: c.G, B: c.B, A: c.A}) {
				t.Errorf("texel (%d, %d) = %v", x, y, got)
			}
		}
	}
	// left border repeats the right column, top border the bottom row
	if a.Get(pg, 0, 1) != a.Get(pg, 4, 1) {
		t.Errorf("left border does not wrap")
	}
	if a.Get(pg, 2, 0) != a.Get(pg, 2, 4) {
		t.Errorf("top border does not wrap")
	}
	// out of range coordinates clamp
	if a.Get(pg, -5, -5) != a.Get(pg, 0, 0) {
		t.Errorf("Get did not clamp")
	}
}

func TestAtlas_Packing(t *testing.T) {
	a := NewAtlas(32, 32, nil)

	var seen [][2]int
	for i := 0; i < 12; i++ {
		pg, pos, err := a.Allocate(NewSolid(8, 8, red))
		if err != nil {
			t.Fatalf("allocation %d: %v", i, err)
		}
		if pg == 0 {
			for _, p := range seen {
				if abs(p[0]-pos[0]) < 10 && abs(p[1]-pos[1]) < 10 {
					t.Errorf("allocation %d at %v overlaps %v", i, pos, p)
				}
			}
			seen = append(seen, pos)
		}
	}
	// 10x10 bordered regions: 3 per row, 3 rows per 32x32 page
	if a.PageCount() != 2 {
		t.Errorf("page count = %d, want 2", a.PageCount())
	}

	if _, _, err := a.Allocate(NewSolid(40, 4, red)); !errors.Is(err, ErrTooLarge) {
		t.Errorf("oversized allocation: %v", err)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func TestMips(t *testing.T) {
	levels := Mips(NewCheckerboard(16, 4, 1, white, black))

	want := [][2]int{{16, 4}, {8, 2}, {4, 1}, {2, 1}, {1, 1}}
	if len(levels) != len(want) {
		t.Fatalf("got %d levels, want %d", len(levels), len(want))
	}
	for i, l := range levels {
		if l.Bounds().Dx() != want[i][0] || l.Bounds().Dy() != want[i][1] {
			t.Errorf("level %d is %v", i, l.Bounds())
		}
	}

	// a 1-pixel checkerboard averages to grey
	c := levels[len(levels)-1].RGBAAt(0, 0)
	if c.R < 100 || c.R > 155 {
		t.Errorf("smallest level = %v, want mid grey", c)
	}
}

func TestAdd(t *testing.T) {
	a := NewAtlas(256, 256, nil)
	tex, err := Add(a, NewSolid(32, 32, red))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if tex.Size != [2]uint16{32, 32} {
		t.Errorf("size = %v", tex.Size)
	}
	// 32 -> 1 is six levels, the rest repeat the last
	for l := 6; l < core.NumMipLevels; l++ {
		if tex.Pos[l] != tex.Pos[5] || tex.Page[l] != tex.Page[5] {
			t.Errorf("level %d not repeated from level 5", l)
		}
	}
	if tex.Pos[0] == tex.Pos[1] {
		t.Errorf("levels 0 and 1 share a position")
	}

	if _, err := Add(a, image.NewRGBA(image.Rect(0, 0, 0, 0))); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty image: %v", err)
	}
	big := image.NewRGBA(image.Rect(0, 0, core.MaxTextureSize+1, 1))
	if _, err := Add(a, big); !errors.Is(err, ErrTooLarge) {
		t.Errorf("huge image: %v", err)
	}
}

func checkerTexture(t *testing.T) (*Atlas, core.Texture) {
	t.Helper()
	a := NewAtlas(128, 128, nil)
	tex, err := Add(a, NewCheckerboard(8, 8, 4, white, black))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return a, tex
}

func TestSampleNearest(t *testing.T) {
	a, tex := checkerTexture(t)
	uv := [2]lane.Float[lane.W4]{
		lane.FloatOf[lane.W4](0.1, 0.6, 1.1, -0.4),
		lane.FloatOf[lane.W4](0.1, 0.1, 0.1, 0.1),
	}
	mask := lane.MaskOf[lane.W4](true, true, true, false)

	got := SampleNearest(a, &tex, &uv, lane.Fill[lane.W4](0), mask)
	want := []float32{1, 0, 1, 0}
	for i, w := range want {
		if got[0][i] != w {
			t.Errorf("lane %d: red = %v, want %v", i, got[0][i], w)
		}
	}
	if got[3][3] != 0 {
		t.Errorf("masked lane was sampled")
	}
}

func TestSampleBilinear(t *testing.T) {
	a, tex := checkerTexture(t)

	// On the boundary between a white and a black check the filter returns
	// their average; in the middle of a check it returns the check color.
	uv := [2]lane.Float[lane.W4]{
		lane.FloatOf[lane.W4](0.5, 0.25, 0.75, 0.25),
		lane.FloatOf[lane.W4](0.25, 0.25, 0.25, 0.75),
	}
	got := SampleBilinear(a, &tex, &uv, lane.FillInt[lane.W4](0), lane.AllOnes[lane.W4]())
	want := []float32{0.5, 1, 0, 0}
	for i, w := range want {
		if math.Abs(float64(got[0][i]-w)) > 1e-5 {
			t.Errorf("lane %d: red = %v, want %v", i, got[0][i], w)
		}
	}
}

func TestSampleTrilinear_BlendsLevels(t *testing.T) {
	a := NewAtlas(64, 64, nil)
	tex, err := Add(a, NewSolid(4, 4, red))
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	uv := [2]lane.Float[lane.W8]{lane.Fill[lane.W8](0.3), lane.Fill[lane.W8](0.7)}
	lod := lane.FloatOf[lane.W8](0, 0.5, 1, 1.5, 2, 5, 11, 20)
	got := SampleTrilinear(a, &tex, &uv, lod, lane.AllOnes[lane.W8]())
	for i := 0; i < 8; i++ {
		if math.Abs(float64(got[0][i]-1)) > 1e-5 || got[1][i] != 0 {
			t.Errorf("lod %v: got %v, %v", lod[i], got[0][i], got[1][i])
		}
	}
}

func TestSampleAnisotropic(t *testing.T) {
	a, tex := checkerTexture(t)

	tests := []struct {
		name       string
		uv, dx, dy [2]float32
		want       float32
		tol        float32
	}{
		{"tiny footprint in a white check", [2]float32{0.25, 0.25}, [2]float32{0.001, 0}, [2]float32{0, 0.001}, 1, 1e-4},
		{"tiny footprint in a black check", [2]float32{0.75, 0.25}, [2]float32{0.001, 0}, [2]float32{0, 0.001}, 0, 1e-4},
		{"zero derivatives", [2]float32{0.25, 0.25}, [2]float32{}, [2]float32{}, 1, 1e-4},
		// a footprint covering a whole period along u averages the checks
		{"stretched along u", [2]float32{0.5, 0.25}, [2]float32{1, 0}, [2]float32{0, 0.001}, 0.5, 0.05},
		{"stretched along v", [2]float32{0.25, 0.5}, [2]float32{0.001, 0}, [2]float32{0, 1}, 0.5, 0.05},
		// a zero minor axis still spreads 4 taps over the major one; a single
		// tap at u = 0.125 would read white
		{"stretched along u, zero dy", [2]float32{0.625, 0.25}, [2]float32{1, 0}, [2]float32{}, 0.5, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uv := [2]lane.Float[lane.W1]{lane.Fill[lane.W1](tt.uv[0]), lane.Fill[lane.W1](tt.uv[1])}
			dx := [2]lane.Float[lane.W1]{lane.Fill[lane.W1](tt.dx[0]), lane.Fill[lane.W1](tt.dx[1])}
			dy := [2]lane.Float[lane.W1]{lane.Fill[lane.W1](tt.dy[0]), lane.Fill[lane.W1](tt.dy[1])}

			got := SampleAnisotropic(a, &tex, &uv, &dx, &dy, lane.AllOnes[lane.W1]())
			if math.Abs(float64(got[0][0]-tt.want)) > float64(tt.tol) {
				t.Errorf("red = %v, want %v", got[0][0], tt.want)
			}
		})
	}
}

func TestSampleAnisotropic_SymmetricAxes(t *testing.T) {
	a := NewAtlas(128, 128, nil)
	img := NewUVDebug(16, 16)
	tex, err := Add(a, img)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// Swapping dx and dy describes the same footprint.
	uv := [2]lane.Float[lane.W4]{lane.FloatOf[lane.W4](0.1, 0.3, 0.6, 0.9), lane.FloatOf[lane.W4](0.2, 0.4, 0.5, 0.8)}
	dx := [2]lane.Float[lane.W4]{lane.Fill[lane.W4](0.05), lane.Fill[lane.W4](0.01)}
	dy := [2]lane.Float[lane.W4]{lane.Fill[lane.W4](-0.002), lane.Fill[lane.W4](0.01)}

	c1 := SampleAnisotropic(a, &tex, &uv, &dx, &dy, lane.AllOnes[lane.W4]())
	c2 := SampleAnisotropic(a, &tex, &uv, &dy, &dx, lane.AllOnes[lane.W4]())
	if c1 != c2 {
		t.Errorf("swapping derivatives changed the result:\n%v\n%v", c1, c2)
	}
}
