package texture

import (
	"image"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"golang.org/x/image/draw"
)

// Mips returns img followed by successively halved copies down to 1x1,
// at most core.NumMipLevels images in total. Level l is
// max(w>>l, 1) x max(h>>l, 1).
func Mips(img *image.RGBA) []*image.RGBA {
	levels := []*image.RGBA{img}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()

	for len(levels) < core.NumMipLevels && (w > 1 || h > 1) {
		w, h = max(w/2, 1), max(h/2, 1)
		prev := levels[len(levels)-1]
		next := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(next, next.Bounds(), prev, prev.Bounds(), draw.Src, nil)
		levels = append(levels, next)
	}
	return levels
}
