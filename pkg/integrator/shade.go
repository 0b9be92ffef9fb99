package integrator

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/geometry"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/df07/go-packet-raytracer/pkg/material"
	"github.com/df07/go-packet-raytracer/pkg/texture"
	"github.com/go-gl/mathgl/mgl32"
)

// surface is the reconstructed state of the hit lanes of a packet. All
// vectors are in world space.
type surface[W lane.Width] struct {
	mask lane.Int[W]
	mat  lane.Int[W]

	P, I, planeN [3]lane.Float[W]
	N, B, T      [3]lane.Float[W]
	uv           [2]lane.Float[W]
	cosI         lane.Float[W] // dot(I, N)

	doDx, doDy   [3]lane.Float[W]
	ddDx, ddDy   [3]lane.Float[W]
	duvDx, duvDy [2]lane.Float[W]
	dndx, dndy   [3]lane.Float[W]
	ddnDx, ddnDy lane.Float[W]

	h0, h1, h2 lane.Float[W]
}

// ShadeSurface writes the radiance carried back by each lane of r into out
// and the continuation of each surviving path into next. It returns the
// lanes of next that hold a ray; next.XY is copied from r whenever that mask
// is not empty. Lanes that missed pick up the sky colour.
func ShadeSurface[W lane.Width](pc *PassContext, r *core.RayPacket[W], hit *core.Hit[W], out *[4]lane.Float[W], next *core.RayPacket[W]) lane.Int[W] {
	*out = [4]lane.Float[W]{}
	out[3] = lane.Fill[W](1)

	noHit := hit.Mask.Not()
	for k := 0; k < 3; k++ {
		out[k].Where(noHit, backgroundColor(pc, r, k))
	}

	var nextMask lane.Int[W]
	if hit.Mask.AllZeros() {
		return nextMask
	}

	sf := reconstruct(pc, r, hit)
	sf.mat = material.ResolveMix(pc.Scene.Materials, sf.mat, sf.mask, sf.cosI, sf.h0, mixWeight(pc, sf))

	// Lanes sharing a material are shaded together.
	todo := sf.mask
	for todo.NotAllZeros() {
		first := sf.mat[firstLane(todo)]
		same := sf.mat.EqS(first).And(todo)
		todo = same.AndNot(todo)

		m := &pc.Scene.Materials[first]
		nextMask = nextMask.Or(shadeMaterial(pc, sf, m, same, r, out, next))
	}

	if nextMask.NotAllZeros() {
		next.XY = r.XY
	}
	return nextMask
}

func backgroundColor[W lane.Width](pc *PassContext, r *core.RayPacket[W], k int) lane.Float[W] {
	return r.C[k].MulS(pc.Scene.Env.SkyColor[k])
}

func mixWeight[W lane.Width](pc *PassContext, sf *surface[W]) material.MixWeight[W] {
	s := pc.Scene
	return func(m *core.Material, mask lane.Int[W]) lane.Float[W] {
		tex := &s.Textures[m.Textures[core.MainTexture]]
		return texture.SampleBilinear(s.Atlas, tex, &sf.uv, lane.Int[W]{}, mask)[0]
	}
}

func unit(v [3]float32) [3]float32 {
	return mgl32.Vec3(v).Normalize()
}

// reconstruct gathers the triangle corners of every hit lane and derives the
// interpolated surface, its ray differentials and the lane's Halton samples.
func reconstruct[W lane.Width](pc *PassContext, r *core.RayPacket[W], hit *core.Hit[W]) *surface[W] {
	s := pc.Scene
	sf := &surface[W]{mask: hit.Mask, I: r.D}

	// Corner 0 is weighted by w = 1-u-v, corner 1 by u and corner 2 by v.
	var p, n, b [3][3]lane.Float[W]
	var uv [3][2]lane.Float[W]

	for i := 0; i < lane.Lanes[W](); i++ {
		if hit.Mask[i] == 0 {
			continue
		}

		prim := int(hit.PrimIndex[i])
		tri := &s.Tris[prim]
		sf.mat[i] = int32(tri.MI)

		tr := &s.Transforms[s.MeshInstances[hit.ObjIndex[i]].TrIndex]
		xf, inv := (*[16]float32)(&tr.Xform), (*[16]float32)(&tr.InvXform)

		for j := 0; j < 3; j++ {
			v := &s.Vertices[s.VtxIndices[prim*3+j]]
			wp := core.TransformPoint(xf, v.P)
			wn := unit(core.TransformNormal(inv, v.N))
			wb := unit(core.TransformDir(xf, v.B))
			for k := 0; k < 3; k++ {
				p[j][k][i], n[j][k][i], b[j][k][i] = wp[k], wn[k], wb[k]
			}
			uv[j][0][i], uv[j][1][i] = v.T0[0], v.T0[1]
		}

		pn := unit(core.TransformNormal(inv, geometry.PlaneNormal(tri)))
		for k := 0; k < 3; k++ {
			sf.planeN[k][i] = pn[k]
		}

		sf.h0[i], sf.h1[i], sf.h2[i] = pc.samples(pc.haltonIndex(r.XY[i]))
	}

	u, v := hit.U, hit.V
	w := u.Add(v).RSubS(1)

	for k := 0; k < 3; k++ {
		sf.P[k] = r.O[k].Add(hit.T.Mul(r.D[k]))
	}
	sf.N = normalize3(lerp3(n[0], n[1], n[2], w, u, v))
	sf.B = normalize3(lerp3(b[0], b[1], b[2], w, u, v))
	sf.T = cross3(sf.B, sf.N)
	for k := 0; k < 2; k++ {
		sf.uv[k] = uv[0][k].Mul(w).Add(uv[1][k].Mul(u)).Add(uv[2][k].Mul(v))
	}
	sf.cosI = dot3(sf.I, sf.N)

	// Transfer the origin differentials onto the hit plane (Igehy).
	invDot := guardedInv(dot3(sf.I, sf.planeN).Neg())
	sf.doDx = transferOrigin(r.DoDx, r.DdDx, hit.T, sf.I, sf.planeN, invDot)
	sf.doDy = transferOrigin(r.DoDy, r.DdDy, hit.T, sf.I, sf.planeN, invDot)
	sf.ddDx, sf.ddDy = r.DdDx, r.DdDy

	duv13 := [2]lane.Float[W]{uv[0][0].Sub(uv[2][0]), uv[0][1].Sub(uv[2][1])}
	duv23 := [2]lane.Float[W]{uv[1][0].Sub(uv[2][0]), uv[1][1].Sub(uv[2][1])}
	invDetUV := guardedInv(duv13[0].Mul(duv23[1]).Sub(duv13[1].Mul(duv23[0])))

	dpdu, dpdv := uvDerivatives(sub3(p[0], p[2]), sub3(p[1], p[2]), duv13, duv23, invDetUV)
	sf.duvDx, sf.duvDy = solveUV(sf.planeN, dpdu, dpdv, sf.doDx, sf.doDy)

	dndu, dndv := uvDerivatives(sub3(n[0], n[2]), sub3(n[1], n[2]), duv13, duv23, invDetUV)
	sf.dndx = add3(scale3(dndu, sf.duvDx[0]), scale3(dndv, sf.duvDx[1]))
	sf.dndy = add3(scale3(dndu, sf.duvDy[0]), scale3(dndv, sf.duvDy[1]))
	sf.ddnDx = dot3(sf.ddDx, sf.planeN).Add(dot3(sf.I, sf.dndx))
	sf.ddnDy = dot3(sf.ddDy, sf.planeN).Add(dot3(sf.I, sf.dndy))

	return sf
}

// guardedInv returns 1/x, or zero where |x| < FltEps.
func guardedInv[W lane.Width](x lane.Float[W]) lane.Float[W] {
	inv := x.RDivS(1)
	inv.WhereS(x.Abs().LtS(core.FltEps), 0)
	return inv
}

func transferOrigin[W lane.Width](do, dd [3]lane.Float[W], t lane.Float[W], I, planeN [3]lane.Float[W], invDot lane.Float[W]) [3]lane.Float[W] {
	temp := add3(do, scale3(dd, t))
	dt := dot3(temp, planeN).Neg().Mul(invDot)
	return add3(temp, scale3(I, dt))
}

// uvDerivatives returns the derivatives along u and v of a quantity with
// corner differences d13 and d23.
func uvDerivatives[W lane.Width](d13, d23 [3]lane.Float[W], duv13, duv23 [2]lane.Float[W], invDet lane.Float[W]) (du, dv [3]lane.Float[W]) {
	for k := 0; k < 3; k++ {
		du[k] = duv23[1].Mul(d13[k]).Sub(duv13[1].Mul(d23[k])).Mul(invDet)
		dv[k] = duv13[0].Mul(d23[k]).Sub(duv23[0].Mul(d13[k])).Mul(invDet)
	}
	return du, dv
}

// solveUV solves dpdu*du + dpdv*dv = do for the texture-space derivatives,
// using the two axes on which the plane normal is smallest.
func solveUV[W lane.Width](planeN, dpdu, dpdv, doDx, doDy [3]lane.Float[W]) (duvDx, duvDy [2]lane.Float[W]) {
	a0, a1 := dpdu[0], dpdu[1]
	b0, b1 := dpdv[0], dpdv[1]
	x0, x1 := doDx[0], doDx[1]
	y0, y1 := doDy[0], doDy[1]

	ax, ay, az := planeN[0].Abs(), planeN[1].Abs(), planeN[2].Abs()

	xMajor := ax.Gt(ay).And(ax.Gt(az))
	a0.Where(xMajor, dpdu[1])
	a1.Where(xMajor, dpdu[2])
	b0.Where(xMajor, dpdv[1])
	b1.Where(xMajor, dpdv[2])
	x0.Where(xMajor, doDx[1])
	x1.Where(xMajor, doDx[2])
	y0.Where(xMajor, doDy[1])
	y1.Where(xMajor, doDy[2])

	yMajor := ay.Gt(ax).And(ay.Gt(az))
	a1.Where(yMajor, dpdu[2])
	b1.Where(yMajor, dpdv[2])
	x1.Where(yMajor, doDx[2])
	y1.Where(yMajor, doDy[2])

	invDet := guardedInv(a0.Mul(b1).Sub(b0.Mul(a1)))

	duvDx[0] = b1.Mul(x0).Sub(b0.Mul(x1)).Mul(invDet)
	duvDx[1] = a0.Mul(x1).Sub(a1.Mul(x0)).Mul(invDet)
	duvDy[0] = b1.Mul(y0).Sub(b0.Mul(y1)).Mul(invDet)
	duvDy[1] = a0.Mul(y1).Sub(a1.Mul(y0)).Mul(invDet)
	return duvDx, duvDy
}
