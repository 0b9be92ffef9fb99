package integrator

import (
	"math"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/texture"
	"github.com/df07/go-packet-raytracer/pkg/traverse"
)

// frame is the shading normal and albedo of a material group after texture
// lookups.
type frame[W lane.Width] struct {
	N      [3]lane.Float[W]
	albedo [3]lane.Float[W]
}

// shadeMaterial shades the lanes in mask, which all use m, and returns the
// lanes that continue with a ray written to next.
func shadeMaterial[W lane.Width](pc *PassContext, sf *surface[W], m *core.Material, mask lane.Int[W], r *core.RayPacket[W], out *[4]lane.Float[W], next *core.RayPacket[W]) lane.Int[W] {
	switch m.Kind {
	case core.Emissive:
		getEmittedLight(m, mask, r, out)
		return lane.Int[W]{}
	case core.Transparent:
		return calculateTransmission(sf, mask, r, next)
	case core.Mix:
		// Only reachable when resolution hit the depth cap.
		return lane.Int[W]{}
	}

	f := shadingFrame(pc, sf, m, mask)

	switch m.Kind {
	case core.Diffuse:
		calculateDirectLighting(pc, sf, &f, mask, r, out)
		return calculateIndirectLighting(sf, &f, mask, r, next)
	case core.Glossy:
		return calculateSpecular(sf, &f, m, mask, r, next)
	case core.Refractive:
		return calculateRefraction(sf, &f, m, mask, r, next)
	}
	return lane.Int[W]{}
}

// shadingFrame applies the normal map, unless it is the flat default, and
// samples the albedo. The albedo is converted from sRGB with a 2.2 gamma.
func shadingFrame[W lane.Width](pc *PassContext, sf *surface[W], m *core.Material, mask lane.Int[W]) frame[W] {
	s := pc.Scene

	var f frame[W]
	if nt := m.Textures[core.NormalsTexture]; nt == s.FlatNormals {
		// 8-bit texels cannot encode an exact zero tilt
		f.N = sf.N
	} else {
		nm := texture.SampleBilinear(s.Atlas, &s.Textures[nt], &sf.uv, lane.Int[W]{}, mask)
		for k := 0; k < 3; k++ {
			nm[k] = nm[k].MulS(2).SubS(1)
		}
		f.N = normalize3(add3(add3(scale3(sf.B, nm[0]), scale3(sf.N, nm[2])), scale3(sf.T, nm[1])))
	}

	alb := texture.SampleAnisotropic(s.Atlas, &s.Textures[m.Textures[core.MainTexture]], &sf.uv, &sf.duvDx, &sf.duvDy, mask)
	for k := 0; k < 3; k++ {
		f.albedo[k] = alb[k].MulS(m.MainColor[k]).Pow(2.2)
	}
	return f
}

func getEmittedLight[W lane.Width](m *core.Material, mask lane.Int[W], r *core.RayPacket[W], out *[4]lane.Float[W]) {
	for k := 0; k < 3; k++ {
		out[k].Where(mask, r.C[k].MulS(m.Strength*m.MainColor[k]))
	}
}

// calculateDirectLighting adds the sun's contribution. One shadow ray per
// lane is cast inside the sun's softness cone; any hit occludes it fully.
func calculateDirectLighting[W lane.Width](pc *PassContext, sf *surface[W], f *frame[W], mask lane.Int[W], r *core.RayPacket[W], out *[4]lane.Float[W]) {
	env := &pc.Scene.Env
	sun := splat3[W](env.SunDir)

	k := dot3(f.N, sun)
	v := lane.Fill[W](1)

	lit := k.GtS(0).And(mask)
	if lit.NotAllZeros() {
		tt := cross3(sun, sf.B)
		bb := cross3(sun, tt)
		z := sf.h0.MulS(env.SunSoftness).RSubS(1)

		var shadow core.RayPacket[W]
		shadow.O = add3(sf.P, scaleS3(f.N, core.HitBias))
		shadow.D = cone(z, sf.h1, lit, sun, tt, bb)

		hit := core.NewHit[W]()
		traverse.Trace(&shadow, lit, pc.Scene, &hit)
		v.WhereS(hit.Mask, 0)
	}

	k = k.Clamp(0, 1)
	for c := 0; c < 3; c++ {
		out[c].Where(mask, r.C[c].Mul(f.albedo[c]).MulS(env.SunColor[c]).Mul(v).Mul(k))
	}
}

// calculateIndirectLighting continues the path in the hemisphere around the
// shading normal.
func calculateIndirectLighting[W lane.Width](sf *surface[W], f *frame[W], mask lane.Int[W], r *core.RayPacket[W], next *core.RayPacket[W]) lane.Int[W] {
	z := sf.h0.RSubS(1)
	dir := cone(z, sf.h2, mask, f.N, sf.T, sf.B)

	var rc [3]lane.Float[W]
	for k := 0; k < 3; k++ {
		rc[k] = r.C[k].Mul(f.albedo[k]).Mul(z)
	}

	emit := energyMask(rc, mask)
	if emit.AllZeros() {
		return emit
	}

	cosIN := dot3(sf.I, f.N)
	writeRay(next, emit, offset(sf.P, f.N), dir, rc, r.C[3], sf,
		reflectDifferential(sf.ddDx, cosIN, sf.dndx, sf.ddnDx, f.N),
		reflectDifferential(sf.ddDy, cosIN, sf.dndy, sf.ddnDy, f.N))
	return emit
}

// calculateSpecular reflects about the shading normal, perturbed inside a
// cone whose size is the material roughness.
func calculateSpecular[W lane.Width](sf *surface[W], f *frame[W], m *core.Material, mask lane.Int[W], r *core.RayPacket[W], next *core.RayPacket[W]) lane.Int[W] {
	d := dot3(sf.I, f.N)
	n := f.N
	back := d.LtS(0)
	where3(&n, back, neg3(f.N))
	d.Where(back, d.Neg())

	refl := sub3(sf.I, scale3(n, d.MulS(2)))
	tt := cross3(refl, sf.B)
	bb := cross3(refl, tt)

	z := sf.h0.MulS(m.Roughness).RSubS(1)
	dir := cone(z, sf.h2, mask, refl, tt, bb)
	rc := scale3(throughput(r), z)

	emit := energyMask(rc, mask)
	if emit.AllZeros() {
		return emit
	}

	writeRay(next, emit, offset(sf.P, f.N), dir, rc, r.C[3], sf,
		reflectDifferential(sf.ddDx, d, sf.dndx, sf.ddnDx, f.N),
		reflectDifferential(sf.ddDy, d, sf.dndy, sf.ddnDy, f.N))
	return emit
}

// calculateRefraction bends the ray with Snell's law. C[3] tracks the index
// of refraction of the medium the ray travels in; it becomes the material's
// IOR when entering and 1 when leaving. Lanes under total internal
// reflection end here.
func calculateRefraction[W lane.Width](sf *surface[W], f *frame[W], m *core.Material, mask lane.Int[W], r *core.RayPacket[W], next *core.RayPacket[W]) lane.Int[W] {
	exiting := dot3(sf.I, f.N).GtS(0)
	n := f.N
	where3(&n, exiting, neg3(f.N))

	eta := r.C[3]
	eta.Where(exiting.Not(), eta.DivS(m.IOR))

	cosi := dot3(neg3(sf.I), n)
	cost2 := cosi.Mul(cosi).RSubS(1).Mul(eta.Mul(eta)).RSubS(1)
	mu := eta.Mul(cosi).Sub(cost2.Max(lane.Float[W]{}).Sqrt())

	refr := add3(scale3(sf.I, eta), scale3(n, mu))
	tt := normalize3(cross3(refr, sf.B))
	bb := normalize3(cross3(refr, tt))

	z := sf.h0.MulS(m.Roughness).RSubS(1)
	dir := cone(z, sf.h2, mask, refr, tt, bb)
	rc := scale3(throughput(r), z)

	emit := cost2.GeS(0).And(energyMask(rc, mask))
	if emit.AllZeros() {
		return emit
	}

	k := eta.Sub(eta.Mul(eta).Mul(dot3(sf.I, sf.planeN)).Div(dot3(dir, sf.planeN)))
	dmdx, dmdy := k.Mul(sf.ddnDx), k.Mul(sf.ddnDy)

	ior := lane.Fill[W](m.IOR)
	ior.WhereS(exiting, 1)

	writeRay(next, emit, offset(sf.P, sf.I), dir, rc, ior, sf,
		sub3(scale3(sf.ddDx, eta), add3(scale3(sf.dndx, mu), scale3(sf.planeN, dmdx))),
		sub3(scale3(sf.ddDy, eta), add3(scale3(sf.dndy, mu), scale3(sf.planeN, dmdy))))
	return emit
}

// calculateTransmission lets the ray through unchanged.
func calculateTransmission[W lane.Width](sf *surface[W], mask lane.Int[W], r *core.RayPacket[W], next *core.RayPacket[W]) lane.Int[W] {
	rc := throughput(r)
	emit := energyMask(rc, mask)
	if emit.NotAllZeros() {
		writeRay(next, emit, offset(sf.P, sf.I), sf.I, rc, r.C[3], sf, sf.ddDx, sf.ddDy)
	}
	return emit
}

func throughput[W lane.Width](r *core.RayPacket[W]) [3]lane.Float[W] {
	return [3]lane.Float[W]{r.C[0], r.C[1], r.C[2]}
}

func offset[W lane.Width](p, dir [3]lane.Float[W]) [3]lane.Float[W] {
	return add3(p, scaleS3(dir, core.HitBias))
}

// energyMask keeps the lanes of mask whose squared throughput is above the
// cull threshold.
func energyMask[W lane.Width](rc [3]lane.Float[W], mask lane.Int[W]) lane.Int[W] {
	return dot3(rc, rc).GtS(energyThreshold).And(mask)
}

// reflectDifferential is the direction differential of a reflection:
// dd - 2*(dot(I,N)*dn + ddn*N).
func reflectDifferential[W lane.Width](dd [3]lane.Float[W], cosIN lane.Float[W], dn [3]lane.Float[W], ddn lane.Float[W], n [3]lane.Float[W]) [3]lane.Float[W] {
	return sub3(dd, scaleS3(add3(scale3(dn, cosIN), scale3(n, ddn)), 2))
}

// cone returns, for each lane in mask, the direction at angle acos(z) from
// axis and azimuth h*2π in the (tt, bb) plane. Other lanes get z*axis.
func cone[W lane.Width](z, h lane.Float[W], mask lane.Int[W], axis, tt, bb [3]lane.Float[W]) [3]lane.Float[W] {
	dir := scale3(axis, z)
	for i := 0; i < lane.Lanes[W](); i++ {
		if mask[i] == 0 {
			continue
		}
		temp := float32(math.Sqrt(float64(max(0, 1-z[i]*z[i]))))
		if temp == 0 {
			continue
		}
		sinPhi, cosPhi := math.Sincos(float64(h[i]) * 2 * math.Pi)
		for k := 0; k < 3; k++ {
			dir[k][i] += temp*float32(sinPhi)*bb[k][i] + temp*float32(cosPhi)*tt[k][i]
		}
	}
	return dir
}

func writeRay[W lane.Width](next *core.RayPacket[W], mask lane.Int[W], o, d, c [3]lane.Float[W], ior lane.Float[W], sf *surface[W], ddDx, ddDy [3]lane.Float[W]) {
	where3(&next.O, mask, o)
	where3(&next.D, mask, d)
	for k := 0; k < 3; k++ {
		next.C[k].Where(mask, c[k])
	}
	next.C[3].Where(mask, ior)
	where3(&next.DoDx, mask, sf.doDx)
	where3(&next.DoDy, mask, sf.doDy)
	where3(&next.DdDx, mask, ddDx)
	where3(&next.DdDy, mask, ddDy)
}
