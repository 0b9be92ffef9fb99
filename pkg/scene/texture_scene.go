package scene

import (
	"image"
	"image/color"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/df07/go-packet-raytracer/pkg/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// buildTextured lines up textured primitives in a row: a checkered sphere, a
// brick box, a UV debug quad, a mix material sphere and a transparent pane.
func buildTextured(b *Builder) error {
	b.SetCamera(core.LookAt(mgl32.Vec3{0, 2, 10}, mgl32.Vec3{0, 1, 0}, 70))
	b.SetEnvironment(core.Environment{
		SkyColor:    [3]float32{0.3, 0.4, 0.6},
		SunDir:      [3]float32{0.3, 1, 0.6},
		SunColor:    [3]float32{2.5, 2.5, 2.5},
		SunSoftness: 0.05,
	})

	images := []*image.RGBA{
		texture.NewCheckerboard(256, 256, 32, color.RGBA{230, 230, 230, 255}, color.RGBA{51, 51, 204, 255}),
		texture.NewUVDebug(256, 256),
		texture.NewCheckerboard(512, 512, 16, color.RGBA{178, 77, 26, 255}, color.RGBA{128, 51, 13, 255}),
	}
	tex := make([]uint32, len(images))
	for i, img := range images {
		id, err := b.AddTexture(img)
		if err != nil {
			return err
		}
		tex[i] = id
	}
	checker, uvDebug, brick := tex[0], tex[1], tex[2]

	white := [3]float32{1, 1, 1}
	mats, err := b.addMaterials(
		material.WithTexture(material.NewDiffuse(white), checker),
		material.WithTexture(material.NewDiffuse(white), uvDebug),
		material.WithTexture(material.NewDiffuse(white), brick),
		material.NewGlossy([3]float32{0.9, 0.9, 0.9}, 0.1),
		material.NewTransparent(),
	)
	if err != nil {
		return err
	}
	checkerMat, uvMat, brickMat, gloss, pane := mats[0], mats[1], mats[2], mats[3], mats[4]

	// Gloss where the UV texture is bright, diffuse elsewhere
	mix, err := b.AddMaterial(material.WithTexture(material.NewMix(gloss, uvMat, 1, 0.2), uvDebug))
	if err != nil {
		return err
	}

	objects := []*geometry.MeshDesc{
		groundQuad(mgl32.Vec3{0, 0, 2}, 20, brickMat),
		geometry.UVSphere(mgl32.Vec3{-4.5, 1, 0}, 1, 48, 24, checkerMat),
		geometry.Box(mgl32.Vec3{-1.5, 0.8, 0}, mgl32.Vec3{0.8, 0.8, 0.8}, mgl32.Vec3{0, 0.4, 0}, brickMat),
		geometry.Quad(mgl32.Vec3{0.5, 0, 0.2}, mgl32.Vec3{1.5, 0, -0.3}, mgl32.Vec3{0, 2, 0}, uvMat),
		geometry.UVSphere(mgl32.Vec3{4.5, 1, 0}, 1, 48, 24, mix),
		// pane in front of the checkered sphere
		geometry.Quad(mgl32.Vec3{-5.5, 0, 2}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 2.5, 0}, pane),
	}
	for _, o := range objects {
		if err := b.addObject(o); err != nil {
			return err
		}
	}
	return nil
}
