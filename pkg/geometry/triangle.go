package geometry

import (
	"math"

	"github.com/df07/go-packet-raytracer/pkg/core"
	"github.com/go-gl/mathgl/mgl32"
)

// PreprocessTri builds the projection accelerator for the triangle (p0, p1, p2).
// The triangle is projected onto the plane perpendicular to the dominant
// axis of its normal; barycentric u weights p1 and v weights p2.
// Degenerate triangles get NaN edge coefficients so they never report a hit.
func PreprocessTri(p0, p1, p2 mgl32.Vec3) core.TriAccel {
	// Calculate two edge vectors
	e0 := p1.Sub(p0)
	e1 := p2.Sub(p0)

	// Normal is the cross product of the two edges
	n := e0.Cross(e1)

	w := dominantAxis(n)
	u, v := core.NextU[w], core.NextV[w]

	acc := core.TriAccel{
		PU: p0[u],
		PV: p0[v],
		CI: int32(w),
	}

	den := e0[u]*e1[v] - e0[v]*e1[u]
	if n[w] == 0 || den == 0 {
		nan := float32(math.NaN())
		acc.E0U, acc.E0V, acc.E1U, acc.E1V = nan, nan, nan, nan
		return acc
	}

	acc.NU = n[u] / n[w]
	acc.NV = n[v] / n[w]
	acc.NP = p0[w] + acc.NU*p0[u] + acc.NV*p0[v]

	acc.E0U = e0[u] / den
	acc.E0V = e0[v] / den
	acc.E1U = e1[u] / den
	acc.E1V = e1[v] / den
	return acc
}

// PlaneNormal reconstructs the unit geometric normal stored in a TriAccel.
func PlaneNormal(tri *core.TriAccel) mgl32.Vec3 {
	w := tri.W()
	var n mgl32.Vec3
	n[w] = 1
	n[core.NextU[w]] = tri.NU
	n[core.NextV[w]] = tri.NV
	return n.Normalize()
}

func dominantAxis(n mgl32.Vec3) int {
	w := 0
	for k := 1; k < 3; k++ {
		if abs32(n[k]) > abs32(n[w]) {
			w = k
		}
	}
	return w
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
