// Package renderer drives the packet path tracer: it generates camera rays
// for a region, traces and shades them through the bounce loop and keeps a
// running average of every pass in its framebuffers.
package renderer

import (
	"image"
	"time"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/integrator"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/raysort"
	"github.com/df07/go-packet-raytracer/pkg/traverse"
	"go.uber.org/zap"
)

// haltonSeed seeds the digit permutations of every renderer.
const haltonSeed = 0

// Renderer renders passes of a scene into its own framebuffers. RenderScene
// may be called from several goroutines at once as long as their regions do
// not overlap.
type Renderer interface {
	// LaneWidth is the packet width the renderer was built for.
	LaneWidth() int
	Size() (w, h int)
	Resize(w, h int)
	// Clear resets the accumulated image to c.
	Clear(c Color)
	RenderScene(s *core.Scene, region *RegionContext)
	// Framebuffer holds the gamma corrected result.
	Framebuffer() *Framebuffer
	Image() *image.RGBA
	Stats() Stats
	ResetStats()
}

// Option configures New.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

// WithLogger sets the logger used for renderer lifecycle messages.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns a renderer for a w x h image using packets of laneWidth rays.
// A laneWidth of 0 picks the widest width the CPU supports.
func New(laneWidth, w, h int, opts ...Option) (Renderer, error) {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	if laneWidth == 0 {
		laneWidth = lane.Detect()
	}
	if err := lane.CheckWidth(laneWidth); err != nil {
		return nil, err
	}

	o.logger.Debug("created renderer",
		zap.Int("lanes", laneWidth), zap.Int("width", w), zap.Int("height", h))

	switch laneWidth {
	case 1:
		return newPacketRenderer[lane.W1](w, h), nil
	case 4:
		return newPacketRenderer[lane.W4](w, h), nil
	case 8:
		return newPacketRenderer[lane.W8](w, h), nil
	default:
		return newPacketRenderer[lane.W16](w, h), nil
	}
}

type packetRenderer[W lane.Width] struct {
	clean, final, temp *Framebuffer

	halton *Halton
	cache  passCache[W]
}

func newPacketRenderer[W lane.Width](w, h int) *packetRenderer[W] {
	return &packetRenderer[W]{
		clean:  NewFramebuffer(w, h),
		final:  NewFramebuffer(w, h),
		temp:   NewFramebuffer(w, h),
		halton: NewHalton(haltonSeed),
	}
}

func (r *packetRenderer[W]) LaneWidth() int            { return lane.Lanes[W]() }
func (r *packetRenderer[W]) Size() (int, int)          { return r.final.Width(), r.final.Height() }
func (r *packetRenderer[W]) Framebuffer() *Framebuffer { return r.final }
func (r *packetRenderer[W]) Image() *image.RGBA        { return r.final.Image() }
func (r *packetRenderer[W]) Stats() Stats              { return r.cache.snapshot() }
func (r *packetRenderer[W]) ResetStats()               { r.cache.resetStats() }

func (r *packetRenderer[W]) Resize(w, h int) {
	r.clean.Resize(w, h)
	r.final.Resize(w, h)
	r.temp.Resize(w, h)
}

func (r *packetRenderer[W]) Clear(c Color) {
	r.clean.Clear(c)
}

// RenderScene renders one more pass of region and folds it into the running
// average.
func (r *packetRenderer[W]) RenderScene(s *core.Scene, region *RegionContext) {
	w, h := r.Size()

	rect := region.rect
	if rect.Empty() {
		rect = r.final.Bounds()
	}
	rect = rect.Intersect(r.final.Bounds())
	if rect.Empty() {
		return
	}

	region.iteration++
	if needsRefresh(region.halton, region.iteration) {
		region.halton = r.halton.Fill(region.iteration, region.halton)
	}

	p := r.cache.get()
	var st Stats
	defer func() { r.cache.put(p, st) }()

	pc := &integrator.PassContext{
		Scene:     s,
		Halton:    region.halton,
		Iteration: region.iteration,
		Width:     w,
	}

	timeStart := time.Now()

	p.primaryRays, p.primaryMasks = GeneratePrimaryRays(region.iteration, &s.Camera, rect, w, h, region.halton, p.primaryRays, p.primaryMasks)
	p.reserve(len(p.primaryRays))

	timeAfterRayGen := time.Now()

	for i := range p.primaryRays {
		p.hits[i] = core.NewHit[W]()
		p.hits[i].XY = p.primaryRays[i].XY
		traverse.Trace(&p.primaryRays[i], p.primaryMasks[i], s, &p.hits[i])
	}

	timeAfterPrimTrace := time.Now()

	var out [4]lane.Float[W]
	secondaryCount := 0
	for i := range p.primaryRays {
		mask := integrator.ShadeSurface(pc, &p.primaryRays[i], &p.hits[i], &out, &p.secondaryRays[secondaryCount])
		if mask.NotAllZeros() {
			p.secondaryMasks[secondaryCount] = mask
			secondaryCount++
		}
		writeLanes(r.temp, &p.primaryRays[i].XY, p.primaryMasks[i], &out, r.temp.SetPixel)
	}

	timeAfterPrimShade := time.Now()
	st.PrimaryRayGen = timeAfterRayGen.Sub(timeStart)
	st.PrimaryTrace = timeAfterPrimTrace.Sub(timeAfterRayGen)
	st.PrimaryShade = timeAfterPrimShade.Sub(timeAfterPrimTrace)
	st.Regions = 1

	root := s.RootBounds()
	grid := raysort.NewGrid(root.Min, root.Max)

	for bounce := 0; bounce < core.MaxBounces && secondaryCount > 0; bounce++ {
		timeSortStart := time.Now()

		secondaryCount = raysort.Sort(p.secondaryRays, p.secondaryMasks, secondaryCount, grid, &p.sort)

		timeTraceStart := time.Now()

		for i := 0; i < secondaryCount; i++ {
			p.hits[i] = core.NewHit[W]()
			p.hits[i].XY = p.secondaryRays[i].XY
			traverse.Trace(&p.secondaryRays[i], p.secondaryMasks[i], s, &p.hits[i])
		}

		timeShadeStart := time.Now()

		raysCount := secondaryCount
		secondaryCount = 0
		p.primaryRays, p.secondaryRays = p.secondaryRays, p.primaryRays
		p.primaryMasks, p.secondaryMasks = p.secondaryMasks, p.primaryMasks

		for i := 0; i < raysCount; i++ {
			mask := integrator.ShadeSurface(pc, &p.primaryRays[i], &p.hits[i], &out, &p.secondaryRays[secondaryCount])
			if mask.NotAllZeros() {
				p.secondaryMasks[secondaryCount] = mask
				secondaryCount++
			}
			writeLanes(r.temp, &p.primaryRays[i].XY, p.primaryMasks[i], &out, r.temp.AddPixel)
		}

		timeShadeEnd := time.Now()
		st.SecondarySort += timeTraceStart.Sub(timeSortStart)
		st.SecondaryTrace += timeShadeStart.Sub(timeTraceStart)
		st.SecondaryShade += timeShadeEnd.Sub(timeShadeStart)
	}

	r.clean.MixIncremental(r.temp, rect, 1/float32(region.iteration))
	r.final.CopyFrom(r.clean, rect, gammaCorrect)
}

// writeLanes hands the color of every active lane to put at the lane's pixel.
func writeLanes[W lane.Width](fb *Framebuffer, xy *lane.Int[W], mask lane.Int[W], out *[4]lane.Float[W], put func(x, y int, c Color)) {
	for l := 0; l < lane.Lanes[W](); l++ {
		if mask[l] == 0 {
			continue
		}
		x, y := core.UnpackXY(xy[l])
		if x >= fb.Width() || y >= fb.Height() {
			continue
		}
		put(x, y, Color{out[0][l], out[1][l], out[2][l], out[3][l]})
	}
}
