package core

import (
	"math/rand"
	"sort"
	"testing"
)

func TestRadicalInversePermutations(t *testing.T) {
	perms := RadicalInversePermutations(rand.New(rand.NewSource(0)))

	if len(perms) != PrimeSums[len(PrimeSums)-1]+Primes[len(Primes)-1] {
		t.Fatalf("Expected %d entries, got %d", PrimeSums[len(PrimeSums)-1]+Primes[len(Primes)-1], len(perms))
	}

	// Each prime's slice must be a permutation of 0..p-1
	for i, p := range Primes {
		perm := append([]uint16(nil), perms[PrimeSums[i]:PrimeSums[i]+p]...)
		sort.Slice(perm, func(a, b int) bool { return perm[a] < perm[b] })
		for j, v := range perm {
			if int(v) != j {
				t.Errorf("Prime %d: not a permutation, sorted[%d] = %d", p, j, v)
				break
			}
		}
	}

	again := RadicalInversePermutations(rand.New(rand.NewSource(0)))
	for i := range perms {
		if perms[i] != again[i] {
			t.Fatal("Permutations should be deterministic for a fixed seed")
		}
	}
}

func TestScrambledRadicalInverse(t *testing.T) {
	identity := []uint16{0, 1}

	// With the identity permutation base 2 is the plain van der Corput sequence
	tests := []struct {
		a    uint64
		want float32
	}{
		{1, 0.5},
		{2, 0.25},
		{3, 0.75},
		{4, 0.125},
		{5, 0.625},
	}
	for _, tt := range tests {
		if got := ScrambledRadicalInverse(2, identity, tt.a); got != tt.want {
			t.Errorf("ScrambledRadicalInverse(2, id, %d) = %v, want %v", tt.a, got, tt.want)
		}
	}

	perms := RadicalInversePermutations(rand.New(rand.NewSource(0)))
	for i := uint64(0); i < 1000; i++ {
		v := ScrambledRadicalInverse(29, perms[PrimeSums[9]:], i)
		if v < 0 || v >= 1 {
			t.Fatalf("Value %v out of [0,1) at index %d", v, i)
		}
	}
}
