// Package texture stores textures in a paged atlas and samples them with
// nearest, bilinear, trilinear and anisotropic filtering over ray packets.
package texture

import (
	"errors"
	"fmt"
	"image"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"go.uber.org/zap"
)

// Pixel and Source are re-exported so callers only need this package.
type (
	Pixel  = core.Pixel
	Source = core.AtlasSource
)

const maxPages = 256 // core.Texture stores the page as a uint8

var (
	ErrTooLarge  = errors.New("texture does not fit in an atlas page")
	ErrAtlasFull = errors.New("texture atlas is full")
	ErrEmpty     = errors.New("texture has no pixels")
)

// shelf is a row of allocations sharing the same top edge.
type shelf struct {
	y, height, x int
}

type page struct {
	pixels  []Pixel
	shelves []shelf
}

// Atlas packs images into fixed-size pages. Every allocation is surrounded
// by a one pixel border that wraps around the image so bilinear filtering
// of repeating textures never reads a neighbour.
type Atlas struct {
	resX, resY int
	pages      []page
	logger     *zap.Logger
}

// NewAtlas creates an empty atlas with resX x resY pages.
func NewAtlas(resX, resY int, logger *zap.Logger) *Atlas {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Atlas{resX: resX, resY: resY, logger: logger}
}

func (a *Atlas) SizeX() int     { return a.resX }
func (a *Atlas) SizeY() int     { return a.resY }
func (a *Atlas) PageCount() int { return len(a.pages) }

// Get returns the texel at (x, y) of a page, clamping to the page bounds.
func (a *Atlas) Get(pg, x, y int) Pixel {
	if pg < 0 || pg >= len(a.pages) {
		return Pixel{}
	}
	x = min(max(x, 0), a.resX-1)
	y = min(max(y, 0), a.resY-1)
	return a.pages[pg].pixels[y*a.resX+x]
}

// Allocate copies img into the atlas and returns its page and the corner of
// the bordered region. The first texel of img is at pos + 1.
func (a *Atlas) Allocate(img *image.RGBA) (int, [2]int, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return 0, [2]int{}, ErrEmpty
	}
	if w+2 > a.resX || h+2 > a.resY {
		return 0, [2]int{}, fmt.Errorf("%dx%d in %dx%d pages: %w", w, h, a.resX, a.resY, ErrTooLarge)
	}

	pg, pos, ok := a.findSpace(w+2, h+2)
	if !ok {
		if len(a.pages) == maxPages {
			return 0, [2]int{}, ErrAtlasFull
		}
		a.pages = append(a.pages, page{pixels: make([]Pixel, a.resX*a.resY)})
		a.logger.Debug("Allocated atlas page",
			zap.Int("page", len(a.pages)-1),
			zap.Int("width", a.resX),
			zap.Int("height", a.resY))
		pg, pos, _ = a.findSpace(w+2, h+2)
	}

	a.blit(pg, pos, img)
	return pg, pos, nil
}

// findSpace places a w x h region on the first shelf tall enough for it,
// opening a new shelf when none fits.
func (a *Atlas) findSpace(w, h int) (int, [2]int, bool) {
	for i := range a.pages {
		p := &a.pages[i]
		for j := range p.shelves {
			s := &p.shelves[j]
			if s.height >= h && s.x+w <= a.resX {
				pos := [2]int{s.x, s.y}
				s.x += w
				return i, pos, true
			}
		}

		top := 0
		if n := len(p.shelves); n > 0 {
			top = p.shelves[n-1].y + p.shelves[n-1].height
		}
		if top+h <= a.resY {
			p.shelves = append(p.shelves, shelf{y: top, height: h, x: w})
			return i, [2]int{0, top}, true
		}
	}
	return 0, [2]int{}, false
}

func (a *Atlas) blit(pg int, pos [2]int, img *image.RGBA) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := a.pages[pg].pixels

	for y := -1; y <= h; y++ {
		sy := (y + h) % h
		for x := -1; x <= w; x++ {
			sx := (x + w) % w
			c := img.RGBAAt(b.Min.X+sx, b.Min.Y+sy)
			dst[(pos[1]+1+y)*a.resX+pos[0]+1+x] = Pixel{R: c.R, G: c.G, B: c.B, A: c.A}
		}
	}
}

// Add uploads img and its mip chain and returns the texture record that
// locates each level. Levels past the 1x1 mip repeat the smallest one.
func Add(a *Atlas, img *image.RGBA) (core.Texture, error) {
	var t core.Texture

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return t, ErrEmpty
	}
	if b.Dx() > core.MaxTextureSize || b.Dy() > core.MaxTextureSize {
		return t, fmt.Errorf("%dx%d exceeds %d: %w", b.Dx(), b.Dy(), core.MaxTextureSize, ErrTooLarge)
	}
	t.Size = [2]uint16{uint16(b.Dx()), uint16(b.Dy())}

	levels := Mips(img)
	for l := 0; l < core.NumMipLevels; l++ {
		if l >= len(levels) {
			t.Page[l] = t.Page[l-1]
			t.Pos[l] = t.Pos[l-1]
			continue
		}
		pg, pos, err := a.Allocate(levels[l])
		if err != nil {
			return t, fmt.Errorf("mip level %d: %w", l, err)
		}
		t.Page[l] = uint8(pg)
		t.Pos[l] = [2]uint16{uint16(pos[0]), uint16(pos[1])}
	}
	return t, nil
}
