package texture

import (
	"image"
	"image/color"
)

// NewCheckerboard creates a procedural checkerboard pattern image
func NewCheckerboard(width, height, checkSize int, color1, color2 color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	checkSize = max(checkSize, 1)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// Alternate colors based on check position
			if (x/checkSize+y/checkSize)%2 == 0 {
				img.SetRGBA(x, y, color1)
			} else {
				img.SetRGBA(x, y, color2)
			}
		}
	}
	return img
}

// NewUVDebug creates an image showing texture coordinates as colors.
// U maps to red, V maps to green.
func NewUVDebug(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			u := x * 255 / max(width-1, 1)
			v := y * 255 / max(height-1, 1)
			img.SetRGBA(x, y, color.RGBA{R: uint8(u), G: uint8(v), A: 255})
		}
	}
	return img
}

// NewSolid creates a single colored image, used for default textures
func NewSolid(width, height int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}
