package raysort

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/go-gl/mathgl/mgl32"
)

func TestTables(t *testing.T) {
	if morton256[255] != 0b001001001001001001001001 {
		t.Errorf("morton256[255] = %b", morton256[255])
	}
	if morton16[15] != 0b01010101 {
		t.Errorf("morton16[15] = %b", morton16[15])
	}
	if omegaTable[0] != dirBuckets-1 || omegaTable[omegaEntries-1] != 0 {
		t.Errorf("omega table ends = %d, %d", omegaTable[0], omegaTable[omegaEntries-1])
	}
	for i := 1; i < omegaEntries; i++ {
		if omegaTable[i] > omegaTable[i-1] {
			t.Errorf("omega table not monotonic at %d", i)
		}
	}
}

func TestHash_Layout(t *testing.T) {
	g := NewGrid([3]float32{-1, -1, -1}, [3]float32{1, 1, 1})
	cell := func(x, y, z float32) [3]float32 {
		return [3]float32{
			g.Min[0] + (x+0.5)*g.CellSize[0],
			g.Min[1] + (y+0.5)*g.CellSize[1],
			g.Min[2] + (z+0.5)*g.CellSize[2],
		}
	}
	// +Z has polar bucket 0 and azimuth bucket 8 (atan2(0, 0) = 0)
	const up = int32(1 << 6 << 24)

	tests := []struct {
		name string
		o    [3]float32
		want int32
	}{
		{"origin cell", cell(0, 0, 0), up},
		{"x", cell(1, 0, 0), up | 1},
		{"y", cell(0, 1, 0), up | 4},
		{"z", cell(0, 0, 1), up | 2},
		{"x=3", cell(3, 0, 0), up | 9},
		{"below the grid clamps", [3]float32{-5, -5, -5}, up},
		{"above the grid clamps", [3]float32{5, -5, -5}, up | int32(morton256[255])},
	}

	var r core.RayPacket[lane.W8]
	for i, tt := range tests {
		r.SetLane(i, core.Ray{O: tt.o, D: [3]float32{0, 0, 1}})
	}
	on := make([]bool, len(tests))
	for i := range on {
		on[i] = true
	}
	h := Hash(&r, lane.MaskOf[lane.W8](on...), g)

	for i, tt := range tests {
		if h[i] != tt.want {
			t.Errorf("%s: hash = %#x, want %#x", tt.name, uint32(h[i]), uint32(tt.want))
		}
	}
	if h[7] != -1 {
		t.Errorf("inactive lane hash = %#x", uint32(h[7]))
	}
}

func TestRadixSort_Stable(t *testing.T) {
	random := rand.New(rand.NewSource(1))
	chunks := make([]Chunk, 1000)
	for i := range chunks {
		chunks[i] = Chunk{Hash: random.Uint32() >> uint(random.Intn(32)), Base: uint32(i)}
	}
	want := append([]Chunk(nil), chunks...)
	sort.SliceStable(want, func(i, j int) bool { return want[i].Hash < want[j].Hash })

	RadixSort(chunks, make([]Chunk, len(chunks)))

	for i := range chunks {
		if chunks[i] != want[i] {
			t.Fatalf("index %d: got %+v, want %+v", i, chunks[i], want[i])
		}
	}
}

func randomRays[W lane.Width](random *rand.Rand, count int) ([]core.RayPacket[W], []lane.Int[W]) {
	width := lane.Lanes[W]()
	rays := make([]core.RayPacket[W], count)
	masks := make([]lane.Int[W], count)

	for p := range rays {
		inactive := random.Intn(5) == 0
		for l := 0; l < width; l++ {
			x, y := p, l
			o := [3]float32{random.Float32()*20 - 10, random.Float32()*20 - 10, random.Float32()*20 - 10}
			d := mgl32.Vec3{random.Float32()*2 - 1, random.Float32()*2 - 1, random.Float32()*2 - 1}.Normalize()
			rays[p].SetLane(l, core.Ray{O: o, D: d})
			rays[p].XY[l] = core.PackXY(x, y)
			// tag every field so we can check it moved with the pixel
			tag := float32(x*100 + y)
			for k := 0; k < 3; k++ {
				rays[p].DoDx[k][l] = tag
				rays[p].DdDy[k][l] = -tag
			}
			rays[p].C[3][l] = tag
			if !inactive && random.Intn(3) != 0 {
				masks[p][l] = -1
			}
		}
	}
	return rays, masks
}

func checkSort[W lane.Width](t *testing.T, seed int64, count int) {
	t.Helper()
	random := rand.New(rand.NewSource(seed))
	width := lane.Lanes[W]()
	rays, masks := randomRays[W](random, count)
	g := NewGrid([3]float32{-10, -10, -10}, [3]float32{10, 10, 10})

	before := map[int32]int{}
	active := 0
	for p := range rays {
		for l := 0; l < width; l++ {
			if masks[p][l] != 0 {
				before[rays[p].XY[l]]++
				active++
			}
		}
	}

	var sc Scratch
	got := Sort(rays, masks, count, g, &sc)

	wantCount := (active + width - 1) / width
	if got != wantCount {
		t.Fatalf("count = %d, want %d (%d active lanes)", got, wantCount, active)
	}

	after := map[int32]int{}
	var prev uint32
	seen := 0
	for p := 0; p < count; p++ {
		h := Hash(&rays[p], masks[p], g)
		for l := 0; l < width; l++ {
			if masks[p][l] == 0 {
				continue
			}
			if p >= got {
				t.Fatalf("active lane in trimmed packet %d", p)
			}
			xy := rays[p].XY[l]
			after[xy]++
			seen++

			x, y := core.UnpackXY(xy)
			tag := float32(x*100 + y)
			if rays[p].DoDx[2][l] != tag || rays[p].DdDy[0][l] != -tag || rays[p].C[3][l] != tag {
				t.Errorf("lane fields separated from pixel (%d, %d)", x, y)
			}

			if uint32(h[l]) < prev {
				t.Errorf("packet %d lane %d: hash %#x after %#x", p, l, uint32(h[l]), prev)
			}
			prev = uint32(h[l])
		}
	}

	if seen != active {
		t.Errorf("active lanes = %d, want %d", seen, active)
	}
	for xy, n := range before {
		if after[xy] != n {
			x, y := core.UnpackXY(xy)
			t.Errorf("pixel (%d, %d): %d rays after sort, want %d", x, y, after[xy], n)
		}
	}
}

func TestSort_PreservesPixels(t *testing.T) {
	t.Run("W1", func(t *testing.T) { checkSort[lane.W1](t, 1, 300) })
	t.Run("W4", func(t *testing.T) { checkSort[lane.W4](t, 2, 100) })
	t.Run("W8", func(t *testing.T) { checkSort[lane.W8](t, 3, 60) })
	t.Run("W16", func(t *testing.T) { checkSort[lane.W16](t, 4, 40) })
}

func TestSort_AllInactive(t *testing.T) {
	rays := make([]core.RayPacket[lane.W4], 5)
	masks := make([]lane.Int[lane.W4], 5)
	g := NewGrid([3]float32{}, [3]float32{1, 1, 1})

	var sc Scratch
	if got := Sort(rays, masks, len(rays), g, &sc); got != 0 {
		t.Errorf("count = %d, want 0", got)
	}
	if got := Sort(rays, masks, 0, g, &sc); got != 0 {
		t.Errorf("count = %d for no packets", got)
	}
}

func TestSort_ReusesScratch(t *testing.T) {
	random := rand.New(rand.NewSource(5))
	g := NewGrid([3]float32{-10, -10, -10}, [3]float32{10, 10, 10})
	var sc Scratch

	rays, masks := randomRays[lane.W8](random, 40)
	Sort(rays, masks, len(rays), g, &sc)
	capacity := cap(sc.hashes)

	rays, masks = randomRays[lane.W8](random, 20)
	Sort(rays, masks, len(rays), g, &sc)
	if cap(sc.hashes) != capacity {
		t.Errorf("scratch reallocated for a smaller sort")
	}
}
