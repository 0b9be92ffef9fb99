// Package raysort reorders secondary rays so that rays starting close to
// each other and travelling in similar directions end up in the same
// packet. The method follows "Fast Ray Sorting and Breadth-First Packet
// Traversal for GPU Ray Tracing" (Garanzha and Loop, 2010): hash every ray,
// compress runs of equal hashes into chunks, radix sort the chunks and
// permute the rays in place.
package raysort

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// Inactive is the hash of a masked-off lane. It sorts after every real hash.
const Inactive = 0xFFFFFFFF

// Chunk is a run of consecutive rays sharing a hash.
type Chunk struct {
	Hash, Base, Size uint32
}

// Grid maps ray origins to the 256^3 cells covering the scene bounds.
type Grid struct {
	Min, CellSize [3]float32
}

// NewGrid divides the box [bmin, bmax] into 256 cells per axis.
func NewGrid(bmin, bmax [3]float32) Grid {
	g := Grid{Min: bmin}
	for k := 0; k < 3; k++ {
		g.CellSize[k] = (bmax[k] - bmin[k]) / (gridCells - 1)
		if g.CellSize[k] <= 0 {
			g.CellSize[k] = 1
		}
	}
	return g
}

// clampIndex truncates f to a table index in [0, hi]. Origins nudged off a
// surface can land just outside the root box.
func clampIndex(f float32, hi int) int {
	switch {
	case !(f >= 0):
		return 0
	case f >= float32(hi):
		return hi
	}
	return int(f)
}

// Hash computes the coherence hash of every lane: the Morton code of the
// origin cell in the low 24 bits and the interleaved direction buckets in
// the high 8. Lanes outside mask hash to Inactive.
func Hash[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], g Grid) lane.Int[W] {
	var h lane.Int[W]
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			h[i] = -1
			continue
		}

		x := morton256[clampIndex((r.O[0][i]-g.Min[0])/g.CellSize[0], gridCells-1)]
		y := morton256[clampIndex((r.O[1][i]-g.Min[1])/g.CellSize[1], gridCells-1)]
		z := morton256[clampIndex((r.O[2][i]-g.Min[2])/g.CellSize[2], gridCells-1)]

		oi := clampIndex((1+r.D[2][i])/omegaStep, omegaEntries-1)
		pi := clampIndex((1+r.D[1][i])/phiStep, phiEntries-1)
		pj := clampIndex((1+r.D[0][i])/phiStep, phiEntries-1)
		o := morton16[omegaTable[oi]]
		p := morton16[phiTable[pi][pj]]

		h[i] = int32(o<<25 | p<<24 | y<<2 | z<<1 | x)
	}
	return h
}

// RadixSort sorts chunks by hash with a stable LSD radix sort over the four
// bytes of the hash. temp must be at least as long as chunks.
func RadixSort(chunks, temp []Chunk) {
	src, dst := chunks, temp[:len(chunks)]
	for shift := uint(0); shift < 32; shift += 8 {
		var count [256]int
		for i := range src {
			count[src[i].Hash>>shift&0xFF]++
		}

		offset := 0
		for b := range count {
			c := count[b]
			count[b] = offset
			offset += c
		}

		for i := range src {
			d := src[i].Hash >> shift & 0xFF
			dst[count[d]] = src[i]
			count[d]++
		}
		src, dst = dst, src
	}
	// an even number of passes leaves the result in chunks
}

// Scratch holds the per-lane working arrays of Sort so they can be reused
// between passes.
type Scratch struct {
	hashes     []uint32
	headFlags  []uint32
	scan       []uint32
	skeleton   []uint32
	chunks     []Chunk
	chunksTemp []Chunk
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

func (s *Scratch) reserve(n int) {
	s.hashes = grow(s.hashes, n)
	s.headFlags = grow(s.headFlags, n)
	s.scan = grow(s.scan, n)
	s.skeleton = grow(s.skeleton, n)
	s.chunks = grow(s.chunks, n)
	s.chunksTemp = grow(s.chunksTemp, n)
}

// Sort reorders the lanes of rays[:count] and masks[:count] by their hash
// and returns the new packet count with trailing inactive packets removed.
// Pixel coordinates travel with their lanes.
func Sort[W lane.Width](rays []core.RayPacket[W], masks []lane.Int[W], count int, g Grid, sc *Scratch) int {
	if count == 0 {
		return 0
	}

	width := lane.Lanes[W]()
	n := count * width
	sc.reserve(n)

	for i := 0; i < count; i++ {
		h := Hash(&rays[i], masks[i], g)
		for l := 0; l < width; l++ {
			sc.hashes[i*width+l] = uint32(h[l])
		}
	}

	// Head flags and their exclusive scan give each run of equal hashes a chunk.
	sc.headFlags[0] = 1
	for i := 1; i < n; i++ {
		sc.headFlags[i] = 0
		if sc.hashes[i] != sc.hashes[i-1] {
			sc.headFlags[i] = 1
		}
	}

	var sum uint32
	for i := 0; i < n; i++ {
		sc.scan[i] = sum
		sum += sc.headFlags[i]
	}
	numChunks := int(sum)

	chunks := sc.chunks[:numChunks]
	for i := 0; i < n; i++ {
		if sc.headFlags[i] != 0 {
			chunks[sc.scan[i]] = Chunk{Hash: sc.hashes[i], Base: uint32(i)}
		}
	}
	for i := 0; i < numChunks-1; i++ {
		chunks[i].Size = chunks[i+1].Base - chunks[i].Base
	}
	chunks[numChunks-1].Size = uint32(n) - chunks[numChunks-1].Base

	RadixSort(chunks, sc.chunksTemp)

	// New start offset of every sorted chunk.
	sum = 0
	for i := range chunks {
		sc.scan[i] = sum
		sum += chunks[i].Size
	}

	// The skeleton holds each chunk's source base at its new start and ones
	// elsewhere; a segmented scan turns it into the source index of every
	// destination slot.
	for i := 0; i < n; i++ {
		sc.skeleton[i] = 1
		sc.headFlags[i] = 0
	}
	for i := range chunks {
		sc.skeleton[sc.scan[i]] = chunks[i].Base
		sc.headFlags[sc.scan[i]] = 1
	}

	sum = 0
	for i := 0; i < n; i++ {
		if sc.headFlags[i] != 0 {
			sum = 0
		}
		sum += sc.skeleton[i]
		sc.scan[i] = sum
	}

	permute(rays, masks, sc.scan[:n], sc.headFlags[:n])

	for count > 0 && masks[count-1].AllZeros() {
		count--
	}
	return count
}

// laneRecord is everything a single lane carries through a sort.
type laneRecord struct {
	o, d, doDx, ddDx, doDy, ddDy [3]float32
	c                            [4]float32
	xy, mask                     int32
}

func load[W lane.Width](rays []core.RayPacket[W], masks []lane.Int[W], idx, width int) laneRecord {
	r, l := &rays[idx/width], idx%width
	rec := laneRecord{xy: r.XY[l], mask: masks[idx/width][l]}
	for k := 0; k < 3; k++ {
		rec.o[k], rec.d[k] = r.O[k][l], r.D[k][l]
		rec.doDx[k], rec.ddDx[k] = r.DoDx[k][l], r.DdDx[k][l]
		rec.doDy[k], rec.ddDy[k] = r.DoDy[k][l], r.DdDy[k][l]
	}
	for k := 0; k < 4; k++ {
		rec.c[k] = r.C[k][l]
	}
	return rec
}

func store[W lane.Width](rays []core.RayPacket[W], masks []lane.Int[W], idx, width int, rec *laneRecord) {
	r, l := &rays[idx/width], idx%width
	r.XY[l] = rec.xy
	masks[idx/width][l] = rec.mask
	for k := 0; k < 3; k++ {
		r.O[k][l], r.D[k][l] = rec.o[k], rec.d[k]
		r.DoDx[k][l], r.DdDx[k][l] = rec.doDx[k], rec.ddDx[k]
		r.DoDy[k][l], r.DdDy[k][l] = rec.doDy[k], rec.ddDy[k]
	}
	for k := 0; k < 4; k++ {
		r.C[k][l] = rec.c[k]
	}
}

// permute moves lane src[i] to lane i for every i by following the cycles
// of the permutation. done is scratch space of the same length.
func permute[W lane.Width](rays []core.RayPacket[W], masks []lane.Int[W], src, done []uint32) {
	width := lane.Lanes[W]()
	for i := range done {
		done[i] = 0
	}

	for start := range src {
		if done[start] != 0 || int(src[start]) == start {
			continue
		}

		first := load(rays, masks, start, width)
		cur := start
		for {
			done[cur] = 1
			next := int(src[cur])
			if next == start {
				store(rays, masks, cur, width, &first)
				break
			}
			rec := load(rays, masks, next, width)
			store(rays, masks, cur, width, &rec)
			cur = next
		}
	}
}
