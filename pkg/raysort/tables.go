package raysort

import "math"

const (
	gridCells = 256

	omegaStep = 0.0625
	phiStep   = 0.125

	omegaEntries = 33 // (1 + dz) / omegaStep for dz in [-1, 1]
	phiEntries   = 17 // (1 + d) / phiStep for d in [-1, 1]
	dirBuckets   = 16
)

var (
	// morton256 spreads 8 bits three apart so x, y and z can be interleaved.
	morton256 [gridCells]uint32
	// morton16 spreads 4 bits two apart for the two direction angles.
	morton16 [dirBuckets]uint32

	// omegaTable buckets the polar angle of a direction from its z component.
	omegaTable [omegaEntries]uint8
	// phiTable buckets the azimuth from the y and x components.
	phiTable [phiEntries][phiEntries]uint8
)

func spreadBits(v uint32, bits, stride uint) uint32 {
	var r uint32
	for b := uint(0); b < bits; b++ {
		r |= (v >> b & 1) << (b * stride)
	}
	return r
}

func init() {
	for i := range morton256 {
		morton256[i] = spreadBits(uint32(i), 8, 3)
	}
	for i := range morton16 {
		morton16[i] = spreadBits(uint32(i), 4, 2)
	}

	for i := range omegaTable {
		dz := min(float64(i)*omegaStep-1, 1)
		omega := math.Acos(dz) / math.Pi * dirBuckets
		omegaTable[i] = uint8(min(int(omega), dirBuckets-1))
	}

	for i := range phiTable {
		dy := float64(i)*phiStep - 1
		for j := range phiTable[i] {
			dx := float64(j)*phiStep - 1
			phi := (math.Atan2(dy, dx) + math.Pi) / (2 * math.Pi) * dirBuckets
			phiTable[i][j] = uint8(min(int(phi), dirBuckets-1))
		}
	}
}
