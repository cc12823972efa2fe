package bits

import "math/bits"

// Predicate enumerates the ten icmp comparison predicates (unsigned and
// signed orderings plus equality).
type Predicate uint8

const (
	PredEq Predicate = iota
	PredNe
	PredUgt
	PredUge
	PredUlt
	PredUle
	PredSgt
	PredSge
	PredSlt
	PredSle
)

var predicateText = [...]string{"==", "!=", ">", ">=", "<", "<=", ">s", ">=s", "<s", "<=s"}

func (p Predicate) String() string {
	if int(p) < len(predicateText) {
		return predicateText[p]
	}
	return "?"
}

// Add computes the known bits of a+b mod 2^width by ripple-carrying a
// three-valued (zero/one/unknown) bit through the adder from bit 0 up:
// at each position every combination consistent with the operands' known
// bits and the current carry's possible values is enumerated, and a
// result bit (or the outgoing carry) is only marked known when every
// combination agrees on it. This is LLVM's KnownBits::computeForAddSub
// carry-chain argument (porting it is licensed for known-bits transfer
// functions generally), done bit-by-bit instead of with closed-form
// bit-vector tricks since widths here never exceed 64.
func Add(a, b KnownBits) KnownBits {
	return addWithCarry(a.Width, a, b, 0)
}

// Sub computes a-b mod 2^width as a + ^b + 1 (two's-complement), the
// same carry chain as Add with b's bits flipped and an incoming carry of
// 1; used internally by rule guards that reason about negation.
func Sub(a, b KnownBits) KnownBits {
	return addWithCarry(a.Width, a, Neg(b), 1)
}

// tri is a three-valued bit: -1 unknown, 0 known-zero, 1 known-one.
type tri int8

func bitOf(k KnownBits, i int) tri {
	m := uint64(1) << uint(i)
	switch {
	case k.Zeroes&m != 0:
		return 0
	case k.Ones&m != 0:
		return 1
	default:
		return -1
	}
}

func (t tri) possible() []int {
	if t == -1 {
		return []int{0, 1}
	}
	return []int{int(t)}
}

// addWithCarry ripple-carries a three-valued carry bit through a full
// adder, starting from carryIn, and returns the known bits of the
// width-w sum. It is always sound (an unknown input or carry just
// widens the set of combinations considered) though less precise than
// tracking correlations between bit positions.
func addWithCarry(w uint8, a, b KnownBits, carryIn int) KnownBits {
	var zeroes, ones uint64
	carry := tri(carryIn)
	for i := 0; i < int(w); i++ {
		av, bv := bitOf(a, i), bitOf(b, i)
		var sumSeen, carrySeen [2]bool
		for _, x := range av.possible() {
			for _, y := range bv.possible() {
				for _, c := range carry.possible() {
					sumSeen[x^y^c] = true
					carrySeen[(x&y)|(x&c)|(y&c)] = true
				}
			}
		}
		if sumSeen[0] != sumSeen[1] {
			if sumSeen[0] {
				zeroes |= uint64(1) << uint(i)
			} else {
				ones |= uint64(1) << uint(i)
			}
		}
		switch {
		case carrySeen[0] && !carrySeen[1]:
			carry = 0
		case carrySeen[1] && !carrySeen[0]:
			carry = 1
		default:
			carry = -1
		}
	}
	return KnownBits{Width: w, Zeroes: zeroes & Mask(w), Ones: ones & Mask(w)}
}

// fromBounds is a conservative fallback for products: when the concrete
// value can only be shown to lie in the unreduced range [lo,hi] (i.e.
// before reduction mod 2^w), a bit is known only if it agrees across the
// entire range AND that range never wraps a full 2^w cycle — once it
// does, every bit pattern is reachable and nothing can be claimed.
func fromBounds(w uint8, lo, hi uint64) KnownBits {
	if lo > hi {
		return Unknown(w)
	}
	if w < 64 && hi-lo >= uint64(1)<<w {
		return Unknown(w)
	}
	m := Mask(w)
	lo &= m
	hi &= m
	if lo > hi {
		// The unreduced range fit within one 2^w span but that span
		// itself wrapped past the mask boundary (e.g. w=3, lo=6, hi=9):
		// the reduced endpoints no longer describe a contiguous window.
		return Unknown(w)
	}
	diff := hi ^ lo
	var knownMask uint64
	if diff == 0 {
		knownMask = m
	} else {
		topDiff := 63 - bits.LeadingZeros64(diff)
		if topDiff >= 63 {
			knownMask = 0
		} else {
			knownMask = (^uint64(0) << uint(topDiff+1)) & m
		}
	}
	ones := lo & knownMask
	zeroes := (^lo) & knownMask & m
	return KnownBits{Width: w, Zeroes: zeroes, Ones: ones}
}

// Mul computes known bits of a*b mod 2^width using the standard low-bit
// propagation: the low tzA+tzB trailing zero bits of the product
// are known-zero from the operands' trailing known zero runs, and a fully
// constant operand allows exact multiplication of the other's bound range.
func Mul(a, b KnownBits) KnownBits {
	w := a.Width
	if av, ok := a.AsConstant(); ok {
		if bv, ok := b.AsConstant(); ok {
			return Constant(av*bv, w)
		}
	}
	if bv, ok := b.AsConstant(); ok {
		return mulByConstant(a, bv, w)
	}
	if av, ok := a.AsConstant(); ok {
		return mulByConstant(b, av, w)
	}
	// Neither is constant: only trailing known-zero bits propagate.
	tzA := trailingKnownZeros(a)
	tzB := trailingKnownZeros(b)
	tz := tzA + tzB
	if tz == 0 {
		return Unknown(w)
	}
	if tz > int(w) {
		tz = int(w)
	}
	zeroes := Mask(uint8(tz))
	return KnownBits{Width: w, Zeroes: zeroes}
}

func mulByConstant(a KnownBits, c uint64, w uint8) KnownBits {
	minA, maxA := a.Ones, a.Ones|a.UnknownBits()
	// Pass the unreduced products to fromBounds so it can itself detect
	// whether the range spans a full 2^w cycle, rather than masking here
	// and destroying the information it needs to make that call.
	lo := minA * c
	hi := maxA * c
	res := fromBounds(w, lo, hi)
	// Trailing zero bits contributed by c are always known-zero regardless
	// of bound collapsing above.
	tz := trailingZeroBits(c) + trailingKnownZeros(a)
	if tz > int(w) {
		tz = int(w)
	}
	forcedZero := Mask(uint8(tz))
	res.Zeroes |= forcedZero &^ res.Ones
	res.Ones &^= forcedZero
	return res
}

func trailingZeroBits(c uint64) int {
	if c == 0 {
		return 64
	}
	return bits.TrailingZeros64(c)
}

func trailingKnownZeros(k KnownBits) int {
	n := 0
	for i := 0; i < int(k.Width); i++ {
		if k.Zeroes&(1<<uint(i)) != 0 {
			n++
		} else {
			break
		}
	}
	return n
}

// And computes known bits of a&b: a bit is known-1 iff known-1 in both;
// known-0 iff known-0 in either.
func And(a, b KnownBits) KnownBits {
	return KnownBits{
		Width:  a.Width,
		Zeroes: (a.Zeroes | b.Zeroes) & Mask(a.Width),
		Ones:   (a.Ones & b.Ones) & Mask(a.Width),
	}
}

// Or computes known bits of a|b: known-1 iff known-1 in either; known-0
// iff known-0 in both.
func Or(a, b KnownBits) KnownBits {
	return KnownBits{
		Width:  a.Width,
		Zeroes: (a.Zeroes & b.Zeroes) & Mask(a.Width),
		Ones:   (a.Ones | b.Ones) & Mask(a.Width),
	}
}

// Xor computes known bits of a^b: known iff both sides are known at that
// position, value is the XOR of the known values.
func Xor(a, b KnownBits) KnownBits {
	bothKnown := (a.Zeroes | a.Ones) & (b.Zeroes | b.Ones) & Mask(a.Width)
	ones := (a.Ones ^ b.Ones) & bothKnown
	zeroes := bothKnown &^ ones
	return KnownBits{Width: a.Width, Zeroes: zeroes, Ones: ones}
}

// Neg computes known bits of ^a (bitwise NOT): known bits flip and swap
// which mask they live in.
func Neg(a KnownBits) KnownBits {
	return KnownBits{Width: a.Width, Zeroes: a.Ones, Ones: a.Zeroes}
}

// Shl computes known bits of a<<b when b is constant; otherwise the whole
// value becomes unknown except that low bits below the minimum shift
// amount are known-zero.
func Shl(a, shiftAmt KnownBits) KnownBits {
	w := a.Width
	if sv, ok := shiftAmt.AsConstant(); ok {
		s := int(sv)
		if s >= int(w) {
			return Constant(0, w)
		}
		return KnownBits{
			Width:  w,
			Zeroes: ((a.Zeroes << uint(s)) | Mask(uint8(s))) & Mask(w),
			Ones:   (a.Ones << uint(s)) & Mask(w),
		}
	}
	minS := shiftAmt.Ones
	if minS >= uint64(w) {
		return Constant(0, w)
	}
	return KnownBits{Width: w, Zeroes: Mask(uint8(minS))}
}

// Lshr computes known bits of a logical-right-shift by a constant amount.
// Both operands share the result's width; a constant shift amount of
// width or more gives a known-zero result.
func Lshr(a, shiftAmt KnownBits) KnownBits {
	w := a.Width
	if sv, ok := shiftAmt.AsConstant(); ok {
		s := int(sv)
		if s >= int(w) {
			return Constant(0, w)
		}
		topZeroes := (^uint64(0) << uint(int(w)-s)) & Mask(w)
		return KnownBits{
			Width:  w,
			Zeroes: ((a.Zeroes >> uint(s)) | topZeroes) & Mask(w),
			Ones:   (a.Ones >> uint(s)) & Mask(w),
		}
	}
	return Unknown(w)
}

// Zext widens a to a larger width; the new high bits are known-zero.
func Zext(a KnownBits, newWidth uint8) KnownBits {
	return KnownBits{
		Width:  newWidth,
		Zeroes: (a.Zeroes | (^Mask(a.Width))) & Mask(newWidth),
		Ones:   a.Ones & Mask(newWidth),
	}
}

// Trunc narrows a to a smaller width by keeping the low bits.
func Trunc(a KnownBits, newWidth uint8) KnownBits {
	return KnownBits{
		Width:  newWidth,
		Zeroes: a.Zeroes & Mask(newWidth),
		Ones:   a.Ones & Mask(newWidth),
	}
}

// Icmp computes the 1-wide known bits of an icmp predicate. When both
// sides are fully constant, the comparison is decided exactly; otherwise
// only Eq and Ne are decided, when some bit is known-1 on one side and
// known-0 on the other, and every other case is left unknown.
func Icmp(pred Predicate, a, b KnownBits) KnownBits {
	if av, ok := a.AsConstant(); ok {
		if bv, ok := b.AsConstant(); ok {
			if evalIcmpConst(pred, av, bv, a.Width) {
				return Constant(1, 1)
			}
			return Constant(0, 1)
		}
	}
	switch pred {
	case PredEq:
		if !a.NoCommonBitsSet(Neg(b)) {
			// a and ~b may share a set bit: that alone decides nothing
		}
		if mustDiffer(a, b) {
			return Constant(0, 1)
		}
	case PredNe:
		if mustDiffer(a, b) {
			return Constant(1, 1)
		}
	}
	return Unknown(1)
}

// mustDiffer reports whether a and b are provably unequal from known bits
// alone: some bit position is known-1 in one and known-0 in the other.
func mustDiffer(a, b KnownBits) bool {
	diffMask := (a.Ones & b.Zeroes) | (a.Zeroes & b.Ones)
	return diffMask&Mask(a.Width) != 0
}

func evalIcmpConst(pred Predicate, a, b uint64, w uint8) bool {
	sa, sb := signExtend(a, w), signExtend(b, w)
	switch pred {
	case PredEq:
		return a == b
	case PredNe:
		return a != b
	case PredUgt:
		return a > b
	case PredUge:
		return a >= b
	case PredUlt:
		return a < b
	case PredUle:
		return a <= b
	case PredSgt:
		return sa > sb
	case PredSge:
		return sa >= sb
	case PredSlt:
		return sa < sb
	case PredSle:
		return sa <= sb
	}
	return false
}

func signExtend(v uint64, w uint8) int64 {
	if w >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << (w - 1)
	if v&signBit != 0 {
		return int64(v | (^uint64(0) << w))
	}
	return int64(v)
}

// Select computes known bits of (c ? t : f): when c is constant the
// result is exactly the chosen side's known bits; otherwise it is the
// join (intersection of certainty) of both sides.
func Select(c, t, f KnownBits) KnownBits {
	if cv, ok := c.AsConstant(); ok {
		if cv != 0 {
			return t
		}
		return f
	}
	return KnownBits{
		Width:  t.Width,
		Zeroes: t.Zeroes & f.Zeroes,
		Ones:   t.Ones & f.Ones,
	}
}
