package core

// SafeInvert returns 1/v per component, saturating near-zero components to
// ±MaxDist while keeping their sign.
func SafeInvert(v [3]float32) [3]float32 {
	var r [3]float32
	for i := 0; i < 3; i++ {
		switch {
		case v[i] >= 0 && v[i] <= FltEps:
			r[i] = MaxDist
		case v[i] < 0 && v[i] >= -FltEps:
			r[i] = -MaxDist
		default:
			r[i] = 1 / v[i]
		}
	}
	return r
}

// BBoxTest is the slab test: the ray enters the box before t and leaves it
// in front of the origin.
func BBoxTest(o, invD [3]float32, t float32, bmin, bmax [3]float32) bool {
	low := invD[0] * (bmin[0] - o[0])
	high := invD[0] * (bmax[0] - o[0])
	tmin := min(low, high)
	tmax := max(low, high)

	for k := 1; k < 3; k++ {
		low = invD[k] * (bmin[k] - o[k])
		high = invD[k] * (bmax[k] - o[k])
		tmin = max(tmin, min(low, high))
		tmax = min(tmax, max(low, high))
	}

	return tmin <= tmax && tmin <= t && tmax > 0
}

// Intersect tests a single ray against the triangle. It reports a hit only
// when the distance lies strictly between 0 and tBest.
func (tri *TriAccel) Intersect(o, d [3]float32, tBest float32) (t, u, v float32, ok bool) {
	w := tri.W()
	iu, iv := NextU[w], NextV[w]

	det := d[iu]*tri.NU + d[iv]*tri.NV + d[w]
	dett := tri.NP - (o[iu]*tri.NU + o[iv]*tri.NV + o[w])
	du := d[iu]*dett - (tri.PU-o[iu])*det
	dv := d[iv]*dett - (tri.PV-o[iv])*det
	detu := tri.E1V*du - tri.E1U*dv
	detv := tri.E0U*dv - tri.E0V*du

	tmpdet0 := det - detu - detv
	inside := (tmpdet0 > -HitEps && detu > -HitEps && detv > -HitEps) ||
		(tmpdet0 < HitEps && detu < HitEps && detv < HitEps)
	if !inside {
		return 0, 0, 0, false
	}

	rdet := 1 / det
	t = dett * rdet
	if !(t > 0 && t < tBest) {
		return 0, 0, 0, false
	}
	return t, detu * rdet, detv * rdet, true
}

// TransformPoint applies a column-major affine matrix to p.
func TransformPoint(m *[16]float32, p [3]float32) [3]float32 {
	return [3]float32{
		m[0]*p[0] + m[4]*p[1] + m[8]*p[2] + m[12],
		m[1]*p[0] + m[5]*p[1] + m[9]*p[2] + m[13],
		m[2]*p[0] + m[6]*p[1] + m[10]*p[2] + m[14],
	}
}

// TransformDir applies the linear part of a column-major matrix to d.
func TransformDir(m *[16]float32, d [3]float32) [3]float32 {
	return [3]float32{
		m[0]*d[0] + m[4]*d[1] + m[8]*d[2],
		m[1]*d[0] + m[5]*d[1] + m[9]*d[2],
		m[2]*d[0] + m[6]*d[1] + m[10]*d[2],
	}
}

// TransformNormal multiplies n by the transpose of inv, which maps object
// space normals to world space when inv is the inverse transform.
func TransformNormal(inv *[16]float32, n [3]float32) [3]float32 {
	return [3]float32{
		inv[0]*n[0] + inv[1]*n[1] + inv[2]*n[2],
		inv[4]*n[0] + inv[5]*n[1] + inv[6]*n[2],
		inv[8]*n[0] + inv[9]*n[1] + inv[10]*n[2],
	}
}
