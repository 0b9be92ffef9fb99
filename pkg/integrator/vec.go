package integrator

import "github.com/df07/go-packet-raytracer/pkg/lane"

func add3[W lane.Width](a, b [3]lane.Float[W]) [3]lane.Float[W] {
	return [3]lane.Float[W]{a[0].Add(b[0]), a[1].Add(b[1]), a[2].Add(b[2])}
}

func sub3[W lane.Width](a, b [3]lane.Float[W]) [3]lane.Float[W] {
	return [3]lane.Float[W]{a[0].Sub(b[0]), a[1].Sub(b[1]), a[2].Sub(b[2])}
}

func scale3[W lane.Width](a [3]lane.Float[W], s lane.Float[W]) [3]lane.Float[W] {
	return [3]lane.Float[W]{a[0].Mul(s), a[1].Mul(s), a[2].Mul(s)}
}

func scaleS3[W lane.Width](a [3]lane.Float[W], s float32) [3]lane.Float[W] {
	return [3]lane.Float[W]{a[0].MulS(s), a[1].MulS(s), a[2].MulS(s)}
}

func neg3[W lane.Width](a [3]lane.Float[W]) [3]lane.Float[W] {
	return [3]lane.Float[W]{a[0].Neg(), a[1].Neg(), a[2].Neg()}
}

func dot3[W lane.Width](a, b [3]lane.Float[W]) lane.Float[W] {
	return lane.Dot3(&a, &b)
}

func cross3[W lane.Width](a, b [3]lane.Float[W]) [3]lane.Float[W] {
	return lane.Cross3(&a, &b)
}

func normalize3[W lane.Width](a [3]lane.Float[W]) [3]lane.Float[W] {
	lane.Normalize3(&a)
	return a
}

func splat3[W lane.Width](v [3]float32) [3]lane.Float[W] {
	return [3]lane.Float[W]{lane.Fill[W](v[0]), lane.Fill[W](v[1]), lane.Fill[W](v[2])}
}

func where3[W lane.Width](dst *[3]lane.Float[W], mask lane.Int[W], src [3]lane.Float[W]) {
	for k := range dst {
		dst[k].Where(mask, src[k])
	}
}

// lerp3 interpolates three per-vertex values with barycentrics (w, u, v).
func lerp3[W lane.Width](a, b, c [3]lane.Float[W], w, u, v lane.Float[W]) [3]lane.Float[W] {
	return add3(add3(scale3(a, w), scale3(b, u)), scale3(c, v))
}
