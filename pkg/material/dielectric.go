package material

import "github.com/df07/go-packet-raytracer/pkg/core"

// NewRefractive creates a transmissive material with the given index of
// refraction. Roughness perturbs the refracted direction.
func NewRefractive(albedo [3]float32, ior, roughness float32) core.Material {
	m := newMaterial(core.Refractive, albedo)
	m.IOR = ior
	m.Roughness = clamp01(roughness)
	return m
}

// NewTransparent creates a material rays pass straight through. It still
// registers hits, which makes it useful for cut-outs and debug panes.
func NewTransparent() core.Material {
	return newMaterial(core.Transparent, [3]float32{1, 1, 1})
}
