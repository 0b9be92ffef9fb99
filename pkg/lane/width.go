// Package lane provides fixed-width float32/int32 lane vectors used by every
// packet-parallel stage of the renderer. The width is a type parameter so a
// single generic implementation serves the scalar reference (W1) and the wide
// packet paths (W4, W8, W16).
package lane

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/cpu"
)

// MaxWidth is the widest supported lane count; all vectors are backed by
// arrays of this length.
const MaxWidth = 16

// Width tags a lane count at the type level.
type Width interface {
	Lanes() int
}

// W1 is the scalar reference width.
type W1 struct{}

// W4 matches 128-bit registers (SSE2, NEON).
type W4 struct{}

// W8 matches 256-bit registers (AVX, AVX2).
type W8 struct{}

// W16 matches 512-bit registers (AVX-512).
type W16 struct{}

func (W1) Lanes() int  { return 1 }
func (W4) Lanes() int  { return 4 }
func (W8) Lanes() int  { return 8 }
func (W16) Lanes() int { return 16 }

// Lanes returns the lane count of W.
func Lanes[W Width]() int {
	var w W
	return w.Lanes()
}

// Detect returns the widest lane count the running CPU handles natively.
func Detect() int {
	switch runtime.GOARCH {
	case "amd64", "386":
		switch {
		case cpu.X86.HasAVX512F:
			return 16
		case cpu.X86.HasAVX2, cpu.X86.HasAVX:
			return 8
		case cpu.X86.HasSSE2:
			return 4
		}
	case "arm64":
		if cpu.ARM64.HasASIMD {
			return 4
		}
	}
	return 1
}

// Valid reports whether n is one of the supported lane counts.
func Valid(n int) bool {
	switch n {
	case 1, 4, 8, 16:
		return true
	}
	return false
}

// CheckWidth returns an error for unsupported lane counts.
func CheckWidth(n int) error {
	if !Valid(n) {
		return fmt.Errorf("unsupported lane width %d (want 1, 4, 8 or 16)", n)
	}
	return nil
}
