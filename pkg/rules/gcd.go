package rules

import "github.com/mazeworks-security/simplifier/pkg/bits"

// Minv computes the multiplicative inverse of an odd a modulo 2^64 via
// Newton-Raphson iteration (ported verbatim from
// original_source/EqSat/src/linalg.rs's minv: each iteration doubles
// the number of correct low bits, so four rounds suffice for 64 bits).
func Minv(a uint64) uint64 {
	x0 := (3 * a) ^ 2
	y := 1 - a*x0
	x1 := x0 * (1 + y)
	y *= y
	x2 := x1 * (1 + y)
	y *= y
	x3 := x2 * (1 + y)
	y *= y
	x4 := x3 * (1 + y)
	return x4
}

// MinvMod returns the inverse of odd a modulo 2^width.
func MinvMod(a uint64, width uint8) uint64 {
	return Minv(a) & bits.Mask(width)
}

// ExtGcdMod solves a*x = gcd (mod 2^width) where the modulus is a
// power of two: gcd is the largest power of two dividing a (i.e.
// 2^trailing_zeros(a)), and x is the modular inverse of a's odd part
// (ported from linalg.rs's ext_gcd_mod).
func ExtGcdMod(a uint64, width uint8) (gcd, x uint64) {
	mmask := bits.Mask(width)
	a &= mmask
	if a == 0 {
		return 0, 0
	}
	tz := trailingZeros(a)
	gcd = uint64(1) << uint(tz)
	odd := a >> uint(tz)
	x = MinvMod(odd, 64) & mmask
	return gcd, x
}

func trailingZeros(a uint64) int {
	if a == 0 {
		return 64
	}
	n := 0
	for a&1 == 0 {
		a >>= 1
		n++
	}
	return n
}

// GcdOfTwo is the Euclidean gcd over the two constants' residues at
// the given width (ported from factor_integer_gcd.rs's
// gcd_of_two_numbers, generalized from its i128 accumulator to the
// node's own bit width since every MBA constant here already lives
// mod 2^width).
func GcdOfTwo(a, b uint64, width uint8) uint64 {
	a &= bits.Mask(width)
	b &= bits.Mask(width)
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Gcd folds GcdOfTwo across n >= 1 constants (ported from
// factor_integer_gcd.rs's variadic gcd).
func Gcd(width uint8, nums ...uint64) uint64 {
	if len(nums) == 0 {
		return 0
	}
	g := nums[0] & bits.Mask(width)
	for _, n := range nums[1:] {
		g = GcdOfTwo(g, n, width)
	}
	return g
}
