// Package integrator shades packets of ray hits and extends the surviving
// paths with secondary rays.
package integrator

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// energyThreshold culls secondary rays whose squared throughput is not above it.
const energyThreshold = 0.005

// PassContext carries the inputs shared by every packet of a render pass.
type PassContext struct {
	Scene     *core.Scene
	Halton    []float32 // core.HaltonSeqLen interleaved 2D points
	Iteration int32
	Width     int // framebuffer width, used to derive pixel indices
}

// haltonIndex returns the per-pixel offset into the Halton table for this
// pass: (hash(y*width + x) + iteration) mod HaltonSeqLen.
func (pc *PassContext) haltonIndex(xy int32) int32 {
	x, y := core.UnpackXY(xy)
	return (core.Hash(int32(y*pc.Width+x)) + pc.Iteration) & (core.HaltonSeqLen - 1)
}

// samples gathers the three Halton values a shaded lane consumes: the
// primary pair at hi and a decorrelated second angle.
func (pc *PassContext) samples(hi int32) (h0, h1, h2 float32) {
	h0 = pc.Halton[hi*2]
	h1 = pc.Halton[hi*2+1]
	h2 = pc.Halton[((core.Hash(hi)+pc.Iteration)&(core.HaltonSeqLen-1))*2]
	return h0, h1, h2
}

func firstLane[W lane.Width](mask lane.Int[W]) int {
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] != 0 {
			return i
		}
	}
	return -1
}
