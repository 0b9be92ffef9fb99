package material

import "github.com/df07/go-packet-raytracer/pkg/core"

// unset marks a texture slot the scene builder fills with a default texture.
const unset = core.NoIndex

func newMaterial(kind core.MaterialKind, color [3]float32) core.Material {
	m := core.Material{Kind: kind, MainColor: color}
	for i := range m.Textures {
		m.Textures[i] = unset
	}
	return m
}

// NewDiffuse creates a Lambertian material lit by the sun and by one
// cosine-weighted bounce per hit.
func NewDiffuse(albedo [3]float32) core.Material {
	return newMaterial(core.Diffuse, albedo)
}

// WithTexture returns m with its main texture replaced.
func WithTexture(m core.Material, tex uint32) core.Material {
	m.Textures[core.MainTexture] = tex
	return m
}

// WithNormalMap returns m with a tangent-space normal map.
func WithNormalMap(m core.Material, tex uint32) core.Material {
	m.Textures[core.NormalsTexture] = tex
	return m
}
