package material

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

// NewMix creates a material that picks m1 or m2 per lane. The chance of m1
// is strength times the main texture's red channel, scaled down by a
// Schlick reflection term driven by fresnel.
func NewMix(m1, m2 uint32, strength, fresnel float32) core.Material {
	m := newMaterial(core.Mix, [3]float32{1, 1, 1})
	m.Textures[core.MixMat1] = m1
	m.Textures[core.MixMat2] = m2
	m.Strength = strength
	m.Fresnel = fresnel
	return m
}

// Schlick returns fresnel + (1 - fresnel) * (1 + cosI)^5 clamped to [0, 1],
// where cosI is the dot product of the incoming direction and the normal.
func Schlick[W lane.Width](fresnel float32, cosI lane.Float[W]) lane.Float[W] {
	x := cosI.AddS(1)
	x2 := x.Mul(x)
	x5 := x2.Mul(x2).Mul(x)
	return x5.MulS(1 - fresnel).AddS(fresnel).Clamp(0, 1)
}

// MixWeight samples the blend weight of a Mix material for the lanes in
// mask. Only the lanes in mask are read.
type MixWeight[W lane.Width] func(m *core.Material, mask lane.Int[W]) lane.Float[W]

// ResolveMix replaces the Mix material index of every active lane with one
// of its sub-materials until no active lane refers to a Mix. Lanes sharing a
// material are resolved together so weight is sampled once per group. r is
// the per-lane random number and cosI the cosine fed to Schlick.
//
// Resolution stops after core.MaxMixDepth levels; lanes still on a Mix at
// that point keep it. Validate rejects material sets where this can happen.
func ResolveMix[W lane.Width](mats []core.Material, mat, mask lane.Int[W], cosI, r lane.Float[W], weight MixWeight[W]) lane.Int[W] {
	n := lane.Lanes[W]()

	pending := mask
	for depth := 0; depth < core.MaxMixDepth; depth++ {
		var mixed lane.Int[W]
		for i := 0; i < n; i++ {
			if pending[i] != 0 && mats[mat[i]].Kind == core.Mix {
				mixed[i] = -1
			}
		}
		if mixed.AllZeros() {
			break
		}

		todo := mixed
		for todo.NotAllZeros() {
			first := mat[firstLane(todo)]
			same := mat.EqS(first).And(todo)
			todo = same.AndNot(todo)

			m := &mats[first]
			w := weight(m, same).MulS(m.Strength)
			pick1 := r.Mul(Schlick[W](m.Fresnel, cosI)).Lt(w)

			mat.WhereS(same.And(pick1), int32(m.Textures[core.MixMat1]))
			mat.WhereS(pick1.AndNot(same), int32(m.Textures[core.MixMat2]))
		}
		pending = mixed
	}
	return mat
}

func firstLane[W lane.Width](mask lane.Int[W]) int {
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] != 0 {
			return i
		}
	}
	return -1
}
