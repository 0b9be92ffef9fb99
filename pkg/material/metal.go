package material

import "github.com/df07/go-packet-raytracer/pkg/core"

// NewGlossy creates a reflective material. Reflected rays are spread over a
// cone whose width grows with roughness; zero gives a perfect mirror.
func NewGlossy(albedo [3]float32, roughness float32) core.Material {
	m := newMaterial(core.Glossy, albedo)
	m.Roughness = clamp01(roughness)
	return m
}

func clamp01(x float32) float32 {
	return max(0, min(x, 1))
}
