package scene

import (
	"math"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/go-gl/mathgl/mgl32"
)

// buildCornell creates the classic Cornell box: quad walls facing inward, an
// emissive panel under the ceiling and two blocks. The only light is the
// panel, so the sun is off.
func buildCornell(b *Builder) error {
	b.SetCamera(core.LookAt(mgl32.Vec3{278, 278, -800}, mgl32.Vec3{278, 278, 0}, 40))
	b.SetEnvironment(core.Environment{SunDir: [3]float32{0, 1, 0}})

	mats, err := b.addMaterials(
		material.NewDiffuse([3]float32{0.73, 0.73, 0.73}),
		material.NewDiffuse([3]float32{0.65, 0.05, 0.05}),
		material.NewDiffuse([3]float32{0.12, 0.45, 0.15}),
		material.NewEmissive([3]float32{1, 1, 1}, 15),
		material.NewGlossy([3]float32{0.8, 0.8, 0.9}, 0.05),
		material.NewRefractive([3]float32{1, 1, 1}, 1.5, 0),
	)
	if err != nil {
		return err
	}
	white, red, green, light, metal, glass := mats[0], mats[1], mats[2], mats[3], mats[4], mats[5]

	const boxSize = 555
	x := mgl32.Vec3{boxSize, 0, 0}
	y := mgl32.Vec3{0, boxSize, 0}
	z := mgl32.Vec3{0, 0, boxSize}

	// Normals are u × v, pointing into the box.
	walls := []*geometry.MeshDesc{
		geometry.Quad(mgl32.Vec3{}, z, x, white), // floor
		geometry.Quad(y, x, z, white),            // ceiling
		geometry.Quad(z, y, x, white),            // back wall
		geometry.Quad(mgl32.Vec3{}, y, z, red),   // x = 0
		geometry.Quad(x, z, y, green),            // x = boxSize
	}

	const lightSize = 130
	lightOffset := float32(boxSize-lightSize) / 2
	walls = append(walls, geometry.Quad(
		mgl32.Vec3{lightOffset, boxSize - 1, lightOffset},
		mgl32.Vec3{lightSize, 0, 0},
		mgl32.Vec3{0, 0, lightSize},
		light))

	// Tall glossy block at the back and a glass cube in front
	walls = append(walls,
		geometry.Box(mgl32.Vec3{185, 165, 351}, mgl32.Vec3{82.5, 165, 82.5}, mgl32.Vec3{0, 15 * math.Pi / 180, 0}, metal),
		geometry.Box(mgl32.Vec3{370, 82.5, 169}, mgl32.Vec3{82.5, 82.5, 82.5}, mgl32.Vec3{0, -18 * math.Pi / 180, 0}, glass),
	)

	for _, w := range walls {
		if err := b.addObject(w); err != nil {
			return err
		}
	}
	return nil
}
