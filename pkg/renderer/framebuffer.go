package renderer

import (
	"image"
	"image/color"
	"math"
)

// Color is a linear RGBA value.
type Color [4]float32

// Framebuffer is a row-major buffer of float colors. Concurrent writers must
// stay inside disjoint rectangles.
type Framebuffer struct {
	w, h   int
	pixels []Color
}

// NewFramebuffer allocates a w x h buffer cleared to zero.
func NewFramebuffer(w, h int) *Framebuffer {
	return &Framebuffer{w: w, h: h, pixels: make([]Color, w*h)}
}

func (f *Framebuffer) Width() int  { return f.w }
func (f *Framebuffer) Height() int { return f.h }

// Bounds returns the rectangle covered by the buffer.
func (f *Framebuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.w, f.h)
}

// Resize reallocates the buffer, dropping its contents.
func (f *Framebuffer) Resize(w, h int) {
	f.w, f.h = w, h
	f.pixels = make([]Color, w*h)
}

// Pixel returns the color at (x, y).
func (f *Framebuffer) Pixel(x, y int) Color {
	return f.pixels[y*f.w+x]
}

// SetPixel overwrites the color at (x, y).
func (f *Framebuffer) SetPixel(x, y int, c Color) {
	f.pixels[y*f.w+x] = c
}

// AddPixel accumulates c into the RGB channels at (x, y). Alpha is left
// unchanged.
func (f *Framebuffer) AddPixel(x, y int, c Color) {
	p := &f.pixels[y*f.w+x]
	p[0] += c[0]
	p[1] += c[1]
	p[2] += c[2]
}

// Clear fills the whole buffer with c.
func (f *Framebuffer) Clear(c Color) {
	for i := range f.pixels {
		f.pixels[i] = c
	}
}

// MixIncremental moves every pixel of r towards src by k:
// dst = dst + (src - dst) * k. With k = 1/n this keeps a running mean of n
// samples.
func (f *Framebuffer) MixIncremental(src *Framebuffer, r image.Rectangle, k float32) {
	r = r.Intersect(f.Bounds()).Intersect(src.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			d := &f.pixels[y*f.w+x]
			s := src.pixels[y*src.w+x]
			for c := 0; c < 4; c++ {
				d[c] += (s[c] - d[c]) * k
			}
		}
	}
}

// CopyFrom copies r from src, passing every pixel through fn.
func (f *Framebuffer) CopyFrom(src *Framebuffer, r image.Rectangle, fn func(Color) Color) {
	r = r.Intersect(f.Bounds()).Intersect(src.Bounds())
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			f.pixels[y*f.w+x] = fn(src.pixels[y*src.w+x])
		}
	}
}

// Image converts the buffer to 8-bit RGBA. Values are clamped to [0, 1].
func (f *Framebuffer) Image() *image.RGBA {
	return f.ImageRect(f.Bounds())
}

// ImageRect converts the pixels of r to an 8-bit image whose origin is r.Min.
func (f *Framebuffer) ImageRect(r image.Rectangle) *image.RGBA {
	r = r.Intersect(f.Bounds())
	img := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetRGBA(x-r.Min.X, y-r.Min.Y, toRGBA8(f.pixels[y*f.w+x]))
		}
	}
	return img
}

// gammaCorrect maps a linear color to display space and clamps it.
func gammaCorrect(c Color) Color {
	for i := range c {
		v := float32(math.Pow(float64(c[i]), 1/2.2))
		if !(v > 0) { // negative or NaN
			v = 0
		}
		c[i] = min(v, 1)
	}
	return c
}

func toRGBA8(c Color) color.RGBA {
	to8 := func(v float32) uint8 {
		if !(v > 0) {
			return 0
		}
		return uint8(min(v, 1)*255 + 0.5)
	}
	return color.RGBA{R: to8(c[0]), G: to8(c[1]), B: to8(c[2]), A: to8(c[3])}
}
