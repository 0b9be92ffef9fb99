package scene

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/go-gl/mathgl/mgl32"
)

// buildEmissive puts a unit emitter in front of the camera, far larger than
// the view, under a black sky. Every pixel converges to the emitted color.
func buildEmissive(b *Builder) error {
	b.SetCamera(core.NewCamera(mgl32.Vec3{0, 0, -1}, mgl32.Vec3{0, 0, 1}, 90))
	b.SetEnvironment(core.Environment{SunDir: [3]float32{0, 1, 0}})

	light, err := b.AddMaterial(material.NewEmissive([3]float32{1, 1, 1}, 1))
	if err != nil {
		return err
	}
	return b.addObject(geometry.Quad(mgl32.Vec3{-50, -50, 0}, mgl32.Vec3{0, 100, 0}, mgl32.Vec3{100, 0, 0}, light))
}
