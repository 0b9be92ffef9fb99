package material

import "github.com/df07/go-packet-raytracer/pkg/core"

// NewEmissive creates a light-emitting material. Emission is
// strength * color and terminates the path.
func NewEmissive(color [3]float32, strength float32) core.Material {
	m := newMaterial(core.Emissive, color)
	m.Strength = strength
	return m
}
