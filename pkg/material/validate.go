package material

import (
	"errors"
	"fmt"
	"strings"

	"github.com/df07/go-packet-raytracer/pkg/core"
)

var (
	ErrUnknownKind = errors.New("unknown material kind")
	ErrBadTexture  = errors.New("texture index out of range")
	ErrBadMaterial = errors.New("mix sub-material index out of range")
	ErrBadIOR      = errors.New("index of refraction must be positive")
	ErrMixCycle    = errors.New("mix materials form a cycle")
	ErrMixDepth    = errors.New("mix materials nested too deeply")
)

// ParseKind converts a material kind name as written in scene files.
func ParseKind(name string) (core.MaterialKind, error) {
	for k := core.Diffuse; k <= core.Transparent; k++ {
		if strings.EqualFold(name, k.String()) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", name, ErrUnknownKind)
}

// Validate checks every material against the texture count and the other
// materials. Mix chains must be acyclic and no deeper than core.MaxMixDepth.
func Validate(mats []core.Material, numTextures int) error {
	for i := range mats {
		if err := validateOne(mats, i, numTextures); err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
	}

	depth := make([]int, len(mats))
	for i := range mats {
		if _, err := mixDepth(mats, uint32(i), depth, make(map[uint32]bool)); err != nil {
			return fmt.Errorf("material %d: %w", i, err)
		}
	}
	return nil
}

func validateOne(mats []core.Material, i, numTextures int) error {
	m := &mats[i]
	if m.Kind > core.Transparent {
		return fmt.Errorf("kind %d: %w", m.Kind, ErrUnknownKind)
	}

	texSlots := []int{core.NormalsTexture, core.MainTexture}
	if m.Kind == core.Mix {
		texSlots = []int{core.MainTexture}
		for _, slot := range []int{core.MixMat1, core.MixMat2} {
			if int(m.Textures[slot]) >= len(mats) {
				return fmt.Errorf("slot %d references %d: %w", slot, m.Textures[slot], ErrBadMaterial)
			}
		}
	}
	for _, slot := range texSlots {
		if int(m.Textures[slot]) >= numTextures {
			return fmt.Errorf("slot %d references %d: %w", slot, m.Textures[slot], ErrBadTexture)
		}
	}

	if m.Kind == core.Refractive && !(m.IOR > 0) {
		return fmt.Errorf("ior %v: %w", m.IOR, ErrBadIOR)
	}
	return nil
}

// mixDepth returns the number of Mix levels below i. depth memoises results
// as depth+1 so zero means unknown.
func mixDepth(mats []core.Material, i uint32, depth []int, visiting map[uint32]bool) (int, error) {
	if depth[i] != 0 {
		return depth[i] - 1, nil
	}
	m := &mats[i]
	if m.Kind != core.Mix {
		depth[i] = 1
		return 0, nil
	}
	if visiting[i] {
		return 0, ErrMixCycle
	}
	visiting[i] = true

	d := 0
	for _, slot := range []int{core.MixMat1, core.MixMat2} {
		sub, err := mixDepth(mats, m.Textures[slot], depth, visiting)
		if err != nil {
			return 0, err
		}
		d = max(d, sub)
	}
	d++
	delete(visiting, i)

	if d > core.MaxMixDepth {
		return 0, fmt.Errorf("depth %d exceeds %d: %w", d, core.MaxMixDepth, ErrMixDepth)
	}
	depth[i] = d + 1
	return d, nil
}
