package renderer

import (
	"sync"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/raysort"
)

// PassData is the scratch memory of one RenderScene call. Slices only grow,
// so a recycled PassData stops allocating once it has seen the largest
// region.
type PassData[W lane.Width] struct {
	primaryRays    []core.RayPacket[W]
	primaryMasks   []lane.Int[W]
	secondaryRays  []core.RayPacket[W]
	secondaryMasks []lane.Int[W]
	hits           []core.Hit[W]
	sort           raysort.Scratch
}

func (p *PassData[W]) reserve(n int) {
	p.primaryMasks = grow(p.primaryMasks, n)
	p.secondaryRays = grow(p.secondaryRays, n)
	p.secondaryMasks = grow(p.secondaryMasks, n)
	p.hits = grow(p.hits, n)
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

// passCache is a free list of PassData shared by the goroutines rendering
// regions with the same renderer. Stats are merged under the same lock.
type passCache[W lane.Width] struct {
	mu    sync.Mutex
	free  []*PassData[W]
	stats Stats
}

func (c *passCache[W]) get() *PassData[W] {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n := len(c.free); n > 0 {
		p := c.free[n-1]
		c.free = c.free[:n-1]
		return p
	}
	return &PassData[W]{}
}

func (c *passCache[W]) put(p *PassData[W], st Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.free = append(c.free, p)
	c.stats.Add(st)
}

func (c *passCache[W]) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *passCache[W]) resetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{}
}
