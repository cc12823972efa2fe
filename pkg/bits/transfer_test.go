package bits

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestTransferSoundness fuzzes each required opcode against concrete
// valuations consistent with randomly generated KnownBits operands: the
// concrete result must always agree with the transfer function's known
// bits, never the other way around.
func TestTransferSoundness(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const width = 8
	const trials = 10000

	randKB := func() KnownBits {
		ones := uint64(rng.Intn(1 << width))
		unknownCandidates := Mask(width) &^ ones
		zeroes := uint64(0)
		for i := 0; i < width; i++ {
			bit := uint64(1) << uint(i)
			if unknownCandidates&bit != 0 && rng.Intn(2) == 0 {
				zeroes |= bit
			}
		}
		return KnownBits{Width: width, Zeroes: zeroes, Ones: ones}
	}

	concreteFor := func(k KnownBits) uint64 {
		v := k.Ones
		unknown := k.UnknownBits()
		for i := 0; i < width; i++ {
			bit := uint64(1) << uint(i)
			if unknown&bit != 0 && rng.Intn(2) == 1 {
				v |= bit
			}
		}
		return v & Mask(width)
	}

	checkSound := func(t *testing.T, out KnownBits, concrete uint64) {
		t.Helper()
		require.Equal(t, uint64(0), concrete&out.Zeroes, "result has a bit known-zero but set")
		require.Equal(t, out.Ones, concrete&out.Ones, "result missing a known-one bit")
	}

	for i := 0; i < trials; i++ {
		a, b := randKB(), randKB()
		ca, cb := concreteFor(a), concreteFor(b)

		checkSound(t, Add(a, b), (ca+cb)&Mask(width))
		checkSound(t, Mul(a, b), (ca*cb)&Mask(width))
		checkSound(t, And(a, b), ca&cb)
		checkSound(t, Or(a, b), ca|cb)
		checkSound(t, Xor(a, b), ca^cb)
		checkSound(t, Neg(a), (^ca)&Mask(width))
	}
}

// TestAddKnownBitsCarryCannotBeAssumedSound is a regression case for an
// unsound carry assumption: a is fully unknown and b has only its top
// bit (bit 2 of 3) known-one. A naive min/max-bound argument claims bit
// 2 of the sum is always 1, but a=1,b=7 sums to 0 mod 8 with bit 2 clear.
func TestAddKnownBitsCarryCannotBeAssumedSound(t *testing.T) {
	a := KnownBits{Width: 3}
	b := KnownBits{Width: 3, Ones: 4}
	sum := Add(a, b)
	require.Equal(t, uint64(0), sum.Zeroes&4, "bit 2 must not be claimed known-zero")
	require.Equal(t, uint64(0), sum.Ones&4, "bit 2 must not be claimed known-one")

	const mask = uint64(7)
	for av := uint64(0); av < 8; av++ {
		concrete := (av + 7) & mask
		require.Equal(t, uint64(0), concrete&sum.Zeroes, "a=%d disagrees with claimed known-zero bits", av)
		require.Equal(t, sum.Ones, concrete&sum.Ones, "a=%d disagrees with claimed known-one bits", av)
	}
}

func TestConstantAndUnion(t *testing.T) {
	k := Constant(0xAB, 8)
	v, ok := k.AsConstant()
	require.True(t, ok)
	require.Equal(t, uint64(0xAB), v)

	u := Unknown(8).Union(Constant(3, 8))
	require.Equal(t, uint64(3), u.Ones)
}

func TestIcmpConstants(t *testing.T) {
	a := Constant(5, 8)
	b := Constant(3, 8)
	require.Equal(t, uint64(1), mustConst(t, Icmp(PredUgt, a, b)))
	require.Equal(t, uint64(0), mustConst(t, Icmp(PredUlt, a, b)))
	require.Equal(t, uint64(1), mustConst(t, Icmp(PredNe, a, b)))
}

func mustConst(t *testing.T, k KnownBits) uint64 {
	t.Helper()
	v, ok := k.AsConstant()
	require.True(t, ok)
	return v
}
