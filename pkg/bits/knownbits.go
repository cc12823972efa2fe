// Package bits implements the KnownBits abstract-interpretation lattice and
// the AstClass classification lattice used by pkg/ast and pkg/egraph.
//
// The transfer functions port LLVM's KnownBits algorithms (add/sub/mul/and/
// or/xor/not/shl/lshr/zext/trunc/icmp/select); every one of them must be
// sound — it may only claim a bit is known when that bit agrees across
// every concrete value the lattice element could represent. DisableKnownBits
// is a plain runtime flag that puts known-bits-driven rewriting into a
// legitimate degraded mode, rather than a compiled-out FFI shim.
package bits

import "math/bits"

// DisableKnownBits puts every conditional rule guard that inspects
// KnownBits into its degraded "never fires" mode. Transfer functions
// themselves remain pure and always computed; only guard evaluation in
// pkg/rules consults this flag.
var DisableKnownBits = false

// KnownBits is a lattice element over a fixed bit width: for each bit
// position, Zeroes or Ones (not both) marks it known; neither marks it
// unknown. The invariant Zeroes&Ones==0 (within the low Width bits) must
// hold for every value returned by this package.
type KnownBits struct {
	Width  uint8
	Zeroes uint64
	Ones   uint64
}

// Mask returns the low-Width-bits mask, i.e. (1<<width)-1, with width==64
// handled specially since 1<<64 overflows a uint64.
func Mask(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Unknown returns the all-unknown lattice element for the given width.
func Unknown(width uint8) KnownBits {
	return KnownBits{Width: width}
}

// Constant returns the fully-known lattice element for value c (masked to
// width).
func Constant(c uint64, width uint8) KnownBits {
	m := Mask(width)
	c &= m
	return KnownBits{Width: width, Zeroes: (^c) & m, Ones: c & m}
}

// IsConstant reports whether every bit in the low Width bits is known.
func (k KnownBits) IsConstant() bool {
	return (k.Zeroes|k.Ones)&Mask(k.Width) == Mask(k.Width)
}

// AsConstant returns the constant value and true iff IsConstant.
func (k KnownBits) AsConstant() (uint64, bool) {
	if !k.IsConstant() {
		return 0, false
	}
	return k.Ones, true
}

// UnknownBits returns a mask of the bit positions that are neither known
// zero nor known one.
func (k KnownBits) UnknownBits() uint64 {
	return (^(k.Zeroes | k.Ones)) & Mask(k.Width)
}

// NumKnownBits returns the count of known bit positions.
func (k KnownBits) NumKnownBits() int {
	return bits.OnesCount64(k.Zeroes | k.Ones)
}

// Union combines two KnownBits facts about the same value: since both
// describe one value, a bit is known wherever either operand knows it.
// This is the plain bitwise-OR-of-masks join, so it only ever gains
// precision; callers that also want to detect and fold a
// provably-constant result (the e-graph's class-merge rule) do that on
// top.
func (k KnownBits) Union(o KnownBits) KnownBits {
	return KnownBits{Width: k.Width, Zeroes: k.Zeroes | o.Zeroes, Ones: k.Ones | o.Ones}
}

// NoCommonBitsSet reports whether no bit position can be 1 in both k and o
// (the are_disjoint_known_bits rule guard).
func (k KnownBits) NoCommonBitsSet(o KnownBits) bool {
	// A bit can be 1 in both unless it is known-zero in at least one side.
	maybeOneK := ^k.Zeroes & Mask(k.Width)
	maybeOneO := ^o.Zeroes & Mask(o.Width)
	return maybeOneK&maybeOneO == 0
}

// IsSubsetOf reports whether every bit that can be 1 in k is known-1 in o
// (the are_subset_known_bits rule guard).
func (k KnownBits) IsSubsetOf(o KnownBits) bool {
	maybeOneK := ^k.Zeroes & Mask(k.Width)
	return maybeOneK & ^o.Ones&Mask(o.Width) == 0
}
