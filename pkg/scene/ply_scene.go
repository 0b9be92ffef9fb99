package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/loaders"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// Locations searched for the ply scene mesh when WithMeshFile is not given.
var defaultMeshPaths = []string{
	"models/dragon_remeshed.ply",    // From project root
	"../models/dragon_remeshed.ply", // From a subdirectory
}

// buildPLY loads a PLY mesh, rotates it like the classic dragon setup and
// scales it to stand two units tall on a ground plane. A gold sphere stands
// in when no mesh file is found.
func buildPLY(b *Builder) error {
	b.SetCamera(core.LookAt(mgl32.Vec3{2.5, 2, 4}, mgl32.Vec3{0, 0.9, 0}, 45))
	b.SetEnvironment(core.Environment{
		SkyColor:    [3]float32{0.5, 0.7, 1.0},
		SunDir:      [3]float32{350, 300, 200},
		SunColor:    [3]float32{3, 2.8, 2.4},
		SunSoftness: 0.02,
	})

	mats, err := b.addMaterials(
		material.NewDiffuse([3]float32{0.6, 0.6, 0.6}),
		material.NewGlossy([3]float32{0.7, 0.5, 0.2}, 0.002),
	)
	if err != nil {
		return err
	}
	ground, gold := mats[0], mats[1]

	if err := b.addObject(groundQuad(mgl32.Vec3{}, 50, ground)); err != nil {
		return err
	}

	path, err := b.findMeshFile()
	if err != nil {
		if b.meshFile != "" {
			return err
		}
		b.logger.Warn("PLY mesh not found, using placeholder sphere", zap.Strings("searched", defaultMeshPaths))
		return b.addObject(geometry.UVSphere(mgl32.Vec3{0, 1, 0}, 1, 64, 32, gold))
	}

	data, err := loaders.LoadPLY(path)
	if err != nil {
		return err
	}
	mesh, err := b.AddMesh(data.MeshDesc(gold))
	if err != nil {
		return err
	}

	// Fit the mesh bounds to a height of 2 with its base on the ground
	bbox := b.s.Nodes[b.s.Meshes[mesh].NodeIndex].BBox
	lo, hi := mgl32.Vec3(bbox[0]), mgl32.Vec3(bbox[1])
	size := hi.Sub(lo)
	scale := float32(1)
	if size[1] > 0 {
		scale = 2 / size[1]
	}
	center := lo.Add(hi).Mul(0.5)

	xform := Transform(mgl32.Vec3{}, mgl32.Vec3{0, -53, 0}, mgl32.Vec3{scale, scale, scale}).
		Mul4(mgl32.Translate3D(-center[0], -lo[1], -center[2]))
	if _, err := b.AddMeshInstance(mesh, xform); err != nil {
		return err
	}

	b.logger.Info("PLY mesh loaded",
		zap.String("path", path),
		zap.Int("triangles", len(data.Faces)/3),
		zap.Float32("scale", scale))
	return nil
}

func (b *Builder) findMeshFile() (string, error) {
	if b.meshFile != "" {
		if _, err := os.Stat(b.meshFile); err != nil {
			return "", fmt.Errorf("mesh file: %w", err)
		}
		return b.meshFile, nil
	}
	for _, path := range defaultMeshPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", errors.New("no mesh file found")
}
