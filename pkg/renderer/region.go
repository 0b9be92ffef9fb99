package renderer

import (
	"image"
)

// RegionContext is the per-region state carried between passes. The
// iteration counter and Halton table belong to the region so regions can be
// rendered independently and in any order.
type RegionContext struct {
	rect      image.Rectangle
	iteration int32
	halton    []float32
}

// NewRegionContext returns a context for rect. An empty rect stands for the
// whole image.
func NewRegionContext(rect image.Rectangle) *RegionContext {
	return &RegionContext{rect: rect}
}

func (rc *RegionContext) Rect() image.Rectangle { return rc.rect }

// Iteration is the number of passes rendered into this region.
func (rc *RegionContext) Iteration() int32 { return rc.iteration }

// Halton returns the sample table of the last pass, or nil before the first.
func (rc *RegionContext) Halton() []float32 { return rc.halton }

// Clear restarts accumulation at the next pass.
func (rc *RegionContext) Clear() {
	rc.iteration = 0
	rc.halton = nil
}

// Region is one cell of the progressive render grid.
type Region struct {
	ID              int
	Bounds          image.Rectangle
	Context         *RegionContext
	PassesCompleted int
}

// NewRegionGrid splits a width x height image into size x size regions,
// row by row. Regions on the right and bottom edges are clipped.
func NewRegionGrid(width, height, size int) []*Region {
	var regions []*Region

	regionsX := (width + size - 1) / size
	regionsY := (height + size - 1) / size

	for ry := 0; ry < regionsY; ry++ {
		for rx := 0; rx < regionsX; rx++ {
			x0 := rx * size
			y0 := ry * size
			x1 := min(x0+size, width)
			y1 := min(y0+size, height)

			bounds := image.Rect(x0, y0, x1, y1)
			regions = append(regions, &Region{
				ID:      len(regions),
				Bounds:  bounds,
				Context: NewRegionContext(bounds),
			})
		}
	}
	return regions
}
