package lane

import (
	"fmt"
	"unsafe"
)

// Load reads Lanes[W]() values from src, which may have any alignment.
func Load[W Width](src []float32) Float[W] {
	var r Float[W]
	copy(r[:Lanes[W]()], src)
	return r
}

// Store writes the meaningful lanes of a to dst.
func (a Float[W]) Store(dst []float32) {
	copy(dst, a[:Lanes[W]()])
}

// LoadAligned is Load for storage aligned to the vector size. It panics on
// misaligned input, the way a packed aligned load faults.
func LoadAligned[W Width](src []float32) Float[W] {
	mustAlign[W](unsafe.Pointer(unsafe.SliceData(src)))
	return Load[W](src)
}

// StoreAligned is Store for aligned storage.
func (a Float[W]) StoreAligned(dst []float32) {
	mustAlign[W](unsafe.Pointer(unsafe.SliceData(dst)))
	a.Store(dst)
}

// LoadInt reads Lanes[W]() values from src.
func LoadInt[W Width](src []int32) Int[W] {
	var r Int[W]
	copy(r[:Lanes[W]()], src)
	return r
}

// Store writes the meaningful lanes of a to dst.
func (a Int[W]) Store(dst []int32) {
	copy(dst, a[:Lanes[W]()])
}

// LoadIntAligned is LoadInt for aligned storage.
func LoadIntAligned[W Width](src []int32) Int[W] {
	mustAlign[W](unsafe.Pointer(unsafe.SliceData(src)))
	return LoadInt[W](src)
}

// StoreAligned is Store for aligned storage.
func (a Int[W]) StoreAligned(dst []int32) {
	mustAlign[W](unsafe.Pointer(unsafe.SliceData(dst)))
	a.Store(dst)
}

// IsAligned reports whether p sits on a boundary suitable for W-wide loads.
func IsAligned[W Width](p unsafe.Pointer) bool {
	return uintptr(p)%uintptr(4*Lanes[W]()) == 0
}

func mustAlign[W Width](p unsafe.Pointer) {
	if !IsAligned[W](p) {
		panic(fmt.Sprintf("lane: address %p is not %d-byte aligned", p, 4*Lanes[W]()))
	}
}

// AlignedFloats returns a slice of n float32 whose first element is aligned
// to the widest vector size.
func AlignedFloats(n int) []float32 {
	const align = 4 * MaxWidth
	buf := make([]float32, n+MaxWidth)
	off := 0
	for uintptr(unsafe.Pointer(&buf[off]))%align != 0 {
		off++
	}
	return buf[off : off+n : off+n]
}

// AlignedInts is AlignedFloats for int32.
func AlignedInts(n int) []int32 {
	const align = 4 * MaxWidth
	buf := make([]int32, n+MaxWidth)
	off := 0
	for uintptr(unsafe.Pointer(&buf[off]))%align != 0 {
		off++
	}
	return buf[off : off+n : off+n]
}
