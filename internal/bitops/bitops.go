// Package bitops provides the small bit-twiddling primitives used by the
// occupation map: finding the first zero bit and finding the first run of n
// consecutive zero bits within a 64-bit word.
package bitops

import "math/bits"

// TrailingOnes returns the number of set bits starting from bit 0, i.e. the
// index of the first zero bit in x. If x is all ones it returns 64.
func TrailingOnes(x uint64) int {
	return bits.TrailingZeros64(^x)
}

// FindBitRange64 returns the lowest bit index k such that the n-bit run
// [k, k+n) is entirely zero in x, or 64 if no such run exists.
//
// n must be in [1, 64]. The search is a linear scan over start positions
// k in [0, 64-n], so a candidate run is never reported past bit 63.
func FindBitRange64(x uint64, n uint) uint {
	if n == 1 {
		k := uint(bits.TrailingZeros64(^x))
		if k >= 64 {
			return 64
		}
		return k
	}
	end := uint(64) - n + 1
	span := (uint64(1) << n) - 1
	for k := uint(0); k < end; k++ {
		if (span<<k)&x == 0 {
			return k
		}
	}
	return 64
}
