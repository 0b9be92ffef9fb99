package scene

import (
	"math"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/go-gl/mathgl/mgl32"
)

// oklchToRGB converts OKLCH color values to linear RGB clamped to [0, 1].
// L: lightness (0-1), C: chroma (0-0.4+), H: hue (0-360 degrees)
func oklchToRGB(l, c, h float64) [3]float32 {
	hRad := h * math.Pi / 180.0
	a := c * math.Cos(hRad)
	b := c * math.Sin(hRad)

	// OKLAB to LMS
	l_ := l + 0.3963377774*a + 0.2158037573*b
	m_ := l - 0.1055613458*a - 0.0638541728*b
	s_ := l - 0.0894841775*a - 1.2914855480*b

	l_ = l_ * l_ * l_
	m_ = m_ * m_ * m_
	s_ = s_ * s_ * s_

	r := +4.0767416621*l_ - 3.3077115913*m_ + 0.2309699292*s_
	g := -1.2684380046*l_ + 2.6097574011*m_ - 0.3413193965*s_
	blue := -0.0041960863*l_ - 0.7034186147*m_ + 1.7076147010*s_

	clamp := func(x float64) float32 { return float32(math.Max(0, math.Min(1, x))) }
	return [3]float32{clamp(r), clamp(g), clamp(blue)}
}

// Grid dimensions of the instances scene.
const (
	gridSize   = 12
	gridExtent = 9.0
)

// buildInstances creates one unit sphere mesh per grid column, each with
// its own hue, and places every row as an instance of those meshes. Chroma
// cannot vary per instance since materials belong to meshes, so rows vary
// in size instead.
func buildInstances(b *Builder) error {
	b.SetCamera(core.LookAt(mgl32.Vec3{4.5, 6, 18}, mgl32.Vec3{4.5, 0.8, 4.5}, 50))
	b.SetEnvironment(core.Environment{
		SkyColor:    [3]float32{0.5, 0.7, 1.0},
		SunDir:      [3]float32{20, 25, 20},
		SunColor:    [3]float32{2.4, 2.3, 2.0},
		SunSoftness: 0.03,
	})

	ground, err := b.AddMaterial(material.NewDiffuse([3]float32{0.5, 0.5, 0.5}))
	if err != nil {
		return err
	}
	if err := b.addObject(groundQuad(mgl32.Vec3{4.5, 0, 4.5}, 50, ground)); err != nil {
		return err
	}

	spacing := float32(gridExtent / (gridSize - 1))
	maxRadius := spacing * 0.35

	for i := 0; i < gridSize; i++ {
		hue := float64(i) / float64(gridSize-1) * 360
		lightness := 0.65 + 0.1*math.Sin(float64(i)*0.5)
		roughness := 0.05 + 0.1*float32(i%3)/2

		mat, err := b.AddMaterial(material.NewGlossy(oklchToRGB(lightness, 0.2, hue), roughness))
		if err != nil {
			return err
		}
		mesh, err := b.AddMesh(geometry.UVSphere(mgl32.Vec3{}, 1, 24, 12, mat))
		if err != nil {
			return err
		}

		for j := 0; j < gridSize; j++ {
			radius := maxRadius * (0.5 + 0.5*float32(j)/float32(gridSize-1))
			pos := mgl32.Vec3{
				float32(i)*spacing - gridExtent/2 + 4.5,
				radius,
				float32(j)*spacing - gridExtent/2 + 4.5,
			}
			xform := Transform(pos, mgl32.Vec3{0, float32(j) * 30, 0}, mgl32.Vec3{radius, radius, radius})
			if _, err := b.AddMeshInstance(mesh, xform); err != nil {
				return err
			}
		}
	}
	return nil
}
