package lane

import "math"

// Float is a vector of float32 lanes. Only the first Lanes[W]() entries are
// meaningful; the rest are carried along untouched.
type Float[W Width] [MaxWidth]float32

// Fill returns a Float with every lane set to x.
func Fill[W Width](x float32) Float[W] {
	var r Float[W]
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		r[i] = x
	}
	return r
}

// FloatOf builds a Float from up to Lanes[W]() values.
func FloatOf[W Width](xs ...float32) Float[W] {
	var r Float[W]
	n := min(Lanes[W](), len(xs))
	copy(r[:n], xs)
	return r
}

func (a Float[W]) Add(b Float[W]) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] += b[i]
	}
	return a
}

func (a Float[W]) Sub(b Float[W]) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] -= b[i]
	}
	return a
}

func (a Float[W]) Mul(b Float[W]) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] *= b[i]
	}
	return a
}

func (a Float[W]) Div(b Float[W]) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] /= b[i]
	}
	return a
}

func (a Float[W]) AddS(s float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] += s
	}
	return a
}

func (a Float[W]) SubS(s float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] -= s
	}
	return a
}

func (a Float[W]) MulS(s float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] *= s
	}
	return a
}

func (a Float[W]) DivS(s float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] /= s
	}
	return a
}

// RSubS returns s - a per lane.
func (a Float[W]) RSubS(s float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = s - a[i]
	}
	return a
}

// RDivS returns s / a per lane.
func (a Float[W]) RDivS(s float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = s / a[i]
	}
	return a
}

func (a Float[W]) Neg() Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = -a[i]
	}
	return a
}

func (a Float[W]) Abs() Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if a[i] < 0 {
			a[i] = -a[i]
		}
	}
	return a
}

func (a Float[W]) Min(b Float[W]) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if b[i] < a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func (a Float[W]) Max(b Float[W]) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if b[i] > a[i] {
			a[i] = b[i]
		}
	}
	return a
}

func (a Float[W]) Sqrt() Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = float32(math.Sqrt(float64(a[i])))
	}
	return a
}

func (a Float[W]) Floor() Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = float32(math.Floor(float64(a[i])))
	}
	return a
}

func (a Float[W]) Ceil() Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = float32(math.Ceil(float64(a[i])))
	}
	return a
}

// Fract returns a - floor(a).
func (a Float[W]) Fract() Float[W] {
	return a.Sub(a.Floor())
}

// Pow raises every lane to the power e.
func (a Float[W]) Pow(e float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = float32(math.Pow(float64(a[i]), float64(e)))
	}
	return a
}

// Clamp limits every lane to [lo, hi].
func (a Float[W]) Clamp(lo, hi float32) Float[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if a[i] < lo {
			a[i] = lo
		} else if a[i] > hi {
			a[i] = hi
		}
	}
	return a
}

func (a Float[W]) cmp(b Float[W], f func(x, y float32) bool) Int[W] {
	var m Int[W]
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if f(a[i], b[i]) {
			m[i] = -1
		}
	}
	return m
}

func (a Float[W]) Lt(b Float[W]) Int[W] { return a.cmp(b, func(x, y float32) bool { return x < y }) }
func (a Float[W]) Le(b Float[W]) Int[W] { return a.cmp(b, func(x, y float32) bool { return x <= y }) }
func (a Float[W]) Gt(b Float[W]) Int[W] { return a.cmp(b, func(x, y float32) bool { return x > y }) }
func (a Float[W]) Ge(b Float[W]) Int[W] { return a.cmp(b, func(x, y float32) bool { return x >= y }) }
func (a Float[W]) Eq(b Float[W]) Int[W] { return a.cmp(b, func(x, y float32) bool { return x == y }) }

func (a Float[W]) LtS(s float32) Int[W] { return a.Lt(Fill[W](s)) }
func (a Float[W]) LeS(s float32) Int[W] { return a.Le(Fill[W](s)) }
func (a Float[W]) GtS(s float32) Int[W] { return a.Gt(Fill[W](s)) }
func (a Float[W]) GeS(s float32) Int[W] { return a.Ge(Fill[W](s)) }

// Where overwrites the lanes of a selected by mask with src.
func (a *Float[W]) Where(mask Int[W], src Float[W]) {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if mask[i] != 0 {
			a[i] = src[i]
		}
	}
}

// WhereS overwrites the lanes of a selected by mask with s.
func (a *Float[W]) WhereS(mask Int[W], s float32) {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if mask[i] != 0 {
			a[i] = s
		}
	}
}

// Select returns a where mask is set and b elsewhere.
func Select[W Width](mask Int[W], a, b Float[W]) Float[W] {
	b.Where(mask, a)
	return b
}

// ToInt converts with round-to-nearest-even, matching packed float to int
// conversion on x86.
func (a Float[W]) ToInt() Int[W] {
	var r Int[W]
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		r[i] = int32(math.RoundToEven(float64(a[i])))
	}
	return r
}

// TruncInt converts by truncating toward zero.
func (a Float[W]) TruncInt() Int[W] {
	var r Int[W]
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		r[i] = int32(a[i])
	}
	return r
}

func (a Float[W]) Sum() float32 {
	var s float32
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		s += a[i]
	}
	return s
}

func (a Float[W]) MinLane() float32 {
	m := a[0]
	n := Lanes[W]()
	for i := 1; i < n; i++ {
		if a[i] < m {
			m = a[i]
		}
	}
	return m
}

func (a Float[W]) MaxLane() float32 {
	m := a[0]
	n := Lanes[W]()
	for i := 1; i < n; i++ {
		if a[i] > m {
			m = a[i]
		}
	}
	return m
}

// Dot3 returns a0*b0 + a1*b1 + a2*b2 lane-wise.
func Dot3[W Width](a, b *[3]Float[W]) Float[W] {
	return a[0].Mul(b[0]).Add(a[1].Mul(b[1])).Add(a[2].Mul(b[2]))
}

// Cross3 returns the lane-wise cross product of a and b.
func Cross3[W Width](a, b *[3]Float[W]) [3]Float[W] {
	return [3]Float[W]{
		a[1].Mul(b[2]).Sub(a[2].Mul(b[1])),
		a[2].Mul(b[0]).Sub(a[0].Mul(b[2])),
		a[0].Mul(b[1]).Sub(a[1].Mul(b[0])),
	}
}

// Normalize3 scales v to unit length lane-wise.
func Normalize3[W Width](v *[3]Float[W]) {
	l := Dot3(v, v).Sqrt()
	v[0] = v[0].Div(l)
	v[1] = v[1].Div(l)
	v[2] = v[2].Div(l)
}
