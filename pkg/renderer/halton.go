package renderer

import (
	"math/rand"

	"github.com/df07/go-packet-raytracer/pkg/core"
)

// Digit permutations for bases 29 and 31 inside the table returned by
// core.RadicalInversePermutations.
const (
	haltonPermX = 100
	haltonPermY = 129
)

// Halton produces the per-pass table of 2D sample points shared by every
// pixel of a region. The table is a window of HaltonSeqLen consecutive
// points of a scrambled (29, 31) Halton sequence.
type Halton struct {
	perms []uint16
}

// NewHalton builds the digit permutations from a fixed seed so two renderers
// created with the same seed sample identically.
func NewHalton(seed int64) *Halton {
	return &Halton{perms: core.RadicalInversePermutations(rand.New(rand.NewSource(seed)))}
}

// Fill writes the window starting at iteration into seq, allocating it when
// it is too short, and returns it.
func (h *Halton) Fill(iteration int32, seq []float32) []float32 {
	if len(seq) < core.HaltonSeqLen*2 {
		seq = make([]float32, core.HaltonSeqLen*2)
	}
	for i := 0; i < core.HaltonSeqLen; i++ {
		a := uint64(iteration) + uint64(i)
		seq[i*2] = core.ScrambledRadicalInverse(29, h.perms[haltonPermX:], a)
		seq[i*2+1] = core.ScrambledRadicalInverse(31, h.perms[haltonPermY:], a)
	}
	return seq
}

// needsRefresh reports whether a region's table has to be rebuilt before a
// pass at iteration.
func needsRefresh(seq []float32, iteration int32) bool {
	return seq == nil || iteration%core.HaltonSeqLen == 0
}
