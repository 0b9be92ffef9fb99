package traverse

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
)

func intersectTri[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], tri *core.TriAccel, prim int32, hit *core.Hit[W]) {
	w := tri.W()
	iu, iv := core.NextU[w], core.NextV[w]

	det := r.D[iu].MulS(tri.NU).Add(r.D[iv].MulS(tri.NV)).Add(r.D[w])
	dett := r.O[iu].MulS(tri.NU).Add(r.O[iv].MulS(tri.NV)).Add(r.O[w]).RSubS(tri.NP)
	du := r.D[iu].Mul(dett).Sub(r.O[iu].RSubS(tri.PU).Mul(det))
	dv := r.D[iv].Mul(dett).Sub(r.O[iv].RSubS(tri.PV).Mul(det))
	detu := du.MulS(tri.E1V).Sub(dv.MulS(tri.E1U))
	detv := dv.MulS(tri.E0U).Sub(du.MulS(tri.E0V))

	tmpdet0 := det.Sub(detu).Sub(detv)
	front := tmpdet0.GtS(-core.HitEps).And(detu.GtS(-core.HitEps)).And(detv.GtS(-core.HitEps))
	back := tmpdet0.LtS(core.HitEps).And(detu.LtS(core.HitEps)).And(detv.LtS(core.HitEps))

	imask := front.Or(back).And(mask)
	if imask.AllZeros() {
		return
	}

	rdet := det.RDivS(1)
	t := dett.Mul(rdet)

	imask = imask.And(t.Lt(hit.T)).And(t.GtS(0))
	if imask.AllZeros() {
		return
	}

	hit.Mask = hit.Mask.Or(imask)
	hit.PrimIndex.WhereS(imask, prim)
	hit.T.Where(imask, t)
	hit.U.Where(imask, detu.Mul(rdet))
	hit.V.Where(imask, detv.Mul(rdet))
}

// IntersectTris tests the masked lanes of r against tris[indices[i]] and
// merges the closest hits into out, tagging them with objIndex. It reports
// whether any lane found a closer hit.
func IntersectTris[W lane.Width](r *core.RayPacket[W], mask lane.Int[W], tris []core.TriAccel, indices []uint32, objIndex int32, out *core.Hit[W]) bool {
	local := core.Hit[W]{T: out.T}

	for _, idx := range indices {
		intersectTri(r, mask, &tris[idx], int32(idx), &local)
	}

	out.Mask = out.Mask.Or(local.Mask)
	out.ObjIndex.WhereS(local.Mask, objIndex)
	out.PrimIndex.Where(local.Mask, local.PrimIndex)
	out.T = local.T
	out.U.Where(local.Mask, local.U)
	out.V.Where(local.Mask, local.V)

	return local.Mask.NotAllZeros()
}
