package lane

// Int is a vector of int32 lanes. Comparison results and lane masks use Int
// with every bit set (-1) for true and zero for false.
type Int[W Width] [MaxWidth]int32

// FillInt returns an Int with every lane set to x.
func FillInt[W Width](x int32) Int[W] {
	var r Int[W]
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		r[i] = x
	}
	return r
}

// IntOf builds an Int from up to Lanes[W]() values.
func IntOf[W Width](xs ...int32) Int[W] {
	var r Int[W]
	n := min(Lanes[W](), len(xs))
	copy(r[:n], xs)
	return r
}

// AllOnes is the mask with every lane active.
func AllOnes[W Width]() Int[W] { return FillInt[W](-1) }

// MaskOf returns a mask with lane i active where on[i] is true.
func MaskOf[W Width](on ...bool) Int[W] {
	var r Int[W]
	n := min(Lanes[W](), len(on))
	for i := 0; i < n; i++ {
		if on[i] {
			r[i] = -1
		}
	}
	return r
}

func (a Int[W]) Add(b Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] += b[i]
	}
	return a
}

func (a Int[W]) Sub(b Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] -= b[i]
	}
	return a
}

func (a Int[W]) Mul(b Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] *= b[i]
	}
	return a
}

func (a Int[W]) AddS(s int32) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] += s
	}
	return a
}

func (a Int[W]) MulS(s int32) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] *= s
	}
	return a
}

// Shl shifts every lane left by s bits.
func (a Int[W]) Shl(s uint) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] <<= s
	}
	return a
}

// Shr shifts every lane right by s bits, keeping the sign.
func (a Int[W]) Shr(s uint) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] >>= s
	}
	return a
}

// ShrV shifts lane i right by s[i] bits, keeping the sign.
func (a Int[W]) ShrV(s Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] >>= uint32(s[i])
	}
	return a
}

func (a Int[W]) And(b Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] &= b[i]
	}
	return a
}

func (a Int[W]) Or(b Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] |= b[i]
	}
	return a
}

func (a Int[W]) Xor(b Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] ^= b[i]
	}
	return a
}

func (a Int[W]) AndS(s int32) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] &= s
	}
	return a
}

// AndNot returns ^a & b: lanes set in b but not in a.
func (a Int[W]) AndNot(b Int[W]) Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = ^a[i] & b[i]
	}
	return a
}

func (a Int[W]) Not() Int[W] {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		a[i] = ^a[i]
	}
	return a
}

func (a Int[W]) cmp(b Int[W], f func(x, y int32) bool) Int[W] {
	var m Int[W]
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if f(a[i], b[i]) {
			m[i] = -1
		}
	}
	return m
}

func (a Int[W]) Eq(b Int[W]) Int[W] { return a.cmp(b, func(x, y int32) bool { return x == y }) }
func (a Int[W]) Lt(b Int[W]) Int[W] { return a.cmp(b, func(x, y int32) bool { return x < y }) }
func (a Int[W]) Gt(b Int[W]) Int[W] { return a.cmp(b, func(x, y int32) bool { return x > y }) }

func (a Int[W]) EqS(s int32) Int[W] { return a.Eq(FillInt[W](s)) }
func (a Int[W]) LtS(s int32) Int[W] { return a.Lt(FillInt[W](s)) }
func (a Int[W]) GtS(s int32) Int[W] { return a.Gt(FillInt[W](s)) }

// Where overwrites the lanes of a selected by mask with src.
func (a *Int[W]) Where(mask Int[W], src Int[W]) {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if mask[i] != 0 {
			a[i] = src[i]
		}
	}
}

// WhereS overwrites the lanes of a selected by mask with s.
func (a *Int[W]) WhereS(mask Int[W], s int32) {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if mask[i] != 0 {
			a[i] = s
		}
	}
}

// AllZeros reports whether every lane is zero.
func (a Int[W]) AllZeros() bool {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if a[i] != 0 {
			return false
		}
	}
	return true
}

// AllZerosIn reports whether every lane selected by mask is zero.
func (a Int[W]) AllZerosIn(mask Int[W]) bool {
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if a[i]&mask[i] != 0 {
			return false
		}
	}
	return true
}

// NotAllZeros reports whether any lane is non-zero.
func (a Int[W]) NotAllZeros() bool { return !a.AllZeros() }

// Count returns the number of non-zero lanes.
func (a Int[W]) Count() int {
	c := 0
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		if a[i] != 0 {
			c++
		}
	}
	return c
}

func (a Int[W]) ToFloat() Float[W] {
	var r Float[W]
	n := Lanes[W]()
	for i := 0; i < n; i++ {
		r[i] = float32(a[i])
	}
	return r
}
