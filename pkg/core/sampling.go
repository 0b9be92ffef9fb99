package core

import "math/rand"

// Primes used for radical inverse sequences and the offset of each prime's
// digit permutation inside the table built by RadicalInversePermutations.
var (
	Primes    = [...]int{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31}
	PrimeSums = [...]int{0, 2, 5, 10, 17, 28, 41, 58, 77, 100, 129}
)

const oneMinusEpsilon = float32(0x1.fffffep-1)

// RadicalInversePermutations returns one random digit permutation per prime
// in Primes, concatenated. The permutation for Primes[i] starts at
// PrimeSums[i].
func RadicalInversePermutations(random *rand.Rand) []uint16 {
	size := 0
	for _, p := range Primes {
		size += p
	}

	perms := make([]uint16, size)
	for i, p := range Primes {
		perm := perms[PrimeSums[i] : PrimeSums[i]+p]
		for j := range perm {
			perm[j] = uint16(j)
		}
		random.Shuffle(len(perm), func(a, b int) {
			perm[a], perm[b] = perm[b], perm[a]
		})
	}
	return perms
}

// ScrambledRadicalInverse mirrors the digits of a in the given base about the
// radix point, mapping each digit through perm. The result lies in [0, 1).
func ScrambledRadicalInverse(base int, perm []uint16, a uint64) float32 {
	invBase := 1 / float64(base)
	var reversed uint64
	invBaseN := 1.0

	for a != 0 {
		next := a / uint64(base)
		digit := a - next*uint64(base)
		reversed = reversed*uint64(base) + uint64(perm[digit])
		invBaseN *= invBase
		a = next
	}

	v := invBaseN * (float64(reversed) + invBase*float64(perm[0])/(1-invBase))
	return min(float32(v), oneMinusEpsilon)
}

// Hash is the integer mixing function used to decorrelate per-pixel sample
// offsets. It wraps like 32-bit integer arithmetic.
func Hash(x int32) int32 {
	x = ((x >> 16) ^ x) * 0x45d9f3b
	x = ((x >> 16) ^ x) * 0x45d9f3b
	return (x >> 16) ^ x
}
