// Package traverse walks the two-level BVH with ray packets. Lanes that
// disagree on a bounding-box test or on the near child are split into
// separate work items and followed independently without a stack.
package traverse

import (
	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/df07/go-packet-raytracer/pkg/lane"
	"github.com/go-gl/mathgl/mgl32"
)

// SafeInvert is the packet form of core.SafeInvert.
func SafeInvert[W lane.Width](v *[3]lane.Float[W]) [3]lane.Float[W] {
	var r [3]lane.Float[W]
	for k := 0; k < 3; k++ {
		r[k] = v[k].RDivS(1)
		r[k].WhereS(v[k].LeS(core.FltEps).And(v[k].GeS(0)), core.MaxDist)
		r[k].WhereS(v[k].GeS(-core.FltEps).And(v[k].LtS(0)), -core.MaxDist)
	}
	return r
}

// BBoxTest returns the lanes whose ray enters [bmin, bmax] before t and
// leaves it in front of the origin.
func BBoxTest[W lane.Width](o, invD *[3]lane.Float[W], t lane.Float[W], bmin, bmax [3]float32) lane.Int[W] {
	low := invD[0].Mul(lane.Fill[W](bmin[0]).Sub(o[0]))
	high := invD[0].Mul(lane.Fill[W](bmax[0]).Sub(o[0]))
	tmin := low.Min(high)
	tmax := low.Max(high)

	for k := 1; k < 3; k++ {
		low = invD[k].Mul(lane.Fill[W](bmin[k]).Sub(o[k]))
		high = invD[k].Mul(lane.Fill[W](bmax[k]).Sub(o[k]))
		tmin = tmin.Max(low.Min(high))
		tmax = tmax.Min(low.Max(high))
	}

	return tmin.Le(tmax).And(tmin.Le(t)).And(tmax.GtS(0))
}

// TransformRay returns a copy of r with origin and direction mapped by the
// column-major matrix m. Differentials and throughput are left untouched.
func TransformRay[W lane.Width](r *core.RayPacket[W], m *mgl32.Mat4) core.RayPacket[W] {
	out := *r
	for k := 0; k < 3; k++ {
		out.O[k] = r.O[0].MulS(m[k]).Add(r.O[1].MulS(m[4+k])).Add(r.O[2].MulS(m[8+k])).AddS(m[12+k])
		out.D[k] = r.D[0].MulS(m[k]).Add(r.D[1].MulS(m[4+k])).Add(r.D[2].MulS(m[8+k]))
	}
	return out
}

// TransformNormal maps an object space normal to world space using the rows
// of the inverse transform.
func TransformNormal[W lane.Width](n *[3]lane.Float[W], inv *mgl32.Mat4) [3]lane.Float[W] {
	var out [3]lane.Float[W]
	for k := 0; k < 3; k++ {
		out[k] = n[0].MulS(inv[4*k]).Add(n[1].MulS(inv[4*k+1])).Add(n[2].MulS(inv[4*k+2]))
	}
	return out
}
