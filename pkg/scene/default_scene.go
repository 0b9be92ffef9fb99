package scene

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/go-gl/mathgl/mgl32"
)

// groundQuad returns an upward facing square of the given half size.
func groundQuad(center mgl32.Vec3, halfSize float32, mat uint32) *geometry.MeshDesc {
	corner := center.Sub(mgl32.Vec3{halfSize, 0, halfSize})
	return geometry.Quad(corner, mgl32.Vec3{0, 0, 2 * halfSize}, mgl32.Vec3{2 * halfSize, 0, 0}, mat)
}

// buildDefault places metal, coated and glass spheres on a ground plane lit
// by a blue sky and a warm sun.
func buildDefault(b *Builder) error {
	b.SetCamera(core.LookAt(mgl32.Vec3{0, 0.75, 2}, mgl32.Vec3{0, 0.5, -1}, 60))
	b.SetEnvironment(core.Environment{
		SkyColor:    [3]float32{0.5, 0.7, 1.0},
		SunDir:      [3]float32{30, 30.5, 15},
		SunColor:    [3]float32{3, 2.8, 2.6},
		SunSoftness: 0.02,
	})

	mats, err := b.addMaterials(
		material.NewDiffuse([3]float32{0.48, 0.48, 0}),
		material.NewDiffuse([3]float32{0.65, 0.25, 0.2}),
		material.NewGlossy([3]float32{0.8, 0.8, 0.8}, 0),
		material.NewGlossy([3]float32{0.8, 0.6, 0.2}, 0.3),
		material.NewRefractive([3]float32{1, 1, 1}, 1.5, 0),
	)
	if err != nil {
		return err
	}
	ground, red, silver, gold, glass := mats[0], mats[1], mats[2], mats[3], mats[4]

	// Lacquered red: a sharp reflection over a diffuse base, weighted by Fresnel
	coated, err := b.AddMaterial(material.NewMix(silver, red, 1, 0.04))
	if err != nil {
		return err
	}

	objects := []*geometry.MeshDesc{
		groundQuad(mgl32.Vec3{}, 100, ground),
		geometry.UVSphere(mgl32.Vec3{0, 0.5, -1}, 0.5, 48, 24, coated),
		geometry.UVSphere(mgl32.Vec3{-1, 0.5, -1}, 0.5, 48, 24, silver),
		geometry.UVSphere(mgl32.Vec3{1, 0.5, -1}, 0.5, 48, 24, gold),
		geometry.UVSphere(mgl32.Vec3{0.5, 0.25, -0.5}, 0.25, 32, 16, glass),
	}
	for _, o := range objects {
		if err := b.addObject(o); err != nil {
			return err
		}
	}
	return nil
}
