package ast

import "github.com/mazeworks-security/simplifier/pkg/bits"

// Const interns a width-bit literal, canonicalized modulo 2^width (I4).
func (a *Arena) Const(value uint64, width uint8) NodeId {
	value &= bits.Mask(width)
	n := Node{Tag: TagConst, Width: width, Payload: value}
	return a.intern(n, func() Data {
		return Data{Cost: 1, Class: bits.Bitwise, KB: bits.Constant(value, width)}
	})
}

// Sym interns a reference to the named, width-bit symbol, deduplicating
// the underlying symbol id through the symbol table (I6).
func (a *Arena) Sym(name string, width uint8) NodeId {
	symID := a.Symbol(name, width)
	n := Node{Tag: TagSym, Width: width, Payload: uint64(symID)}
	return a.intern(n, func() Data {
		return Data{Cost: 1, Class: bits.Bitwise, KB: bits.Unknown(width)}
	})
}

func (a *Arena) bin(tag Tag, width uint8, x, y NodeId) Node {
	a.checkWidth(width, x, y)
	return Node{Tag: tag, Width: width, NumKids: 2, Kids: [3]NodeId{x, y}}
}

// Add interns x+y, folding constant-constant and 0+x/x+0 (I4/I5).
func (a *Arena) Add(x, y NodeId) NodeId {
	w := a.Width(x)
	if cx, ok := a.isConst(x); ok {
		if cx == 0 {
			return y
		}
		if cy, ok := a.isConst(y); ok {
			return a.Const(cx+cy, w)
		}
	}
	if cy, ok := a.isConst(y); ok && cy == 0 {
		return x
	}
	n := a.bin(TagAdd, w, x, y)
	return a.intern(n, func() Data {
		dx, dy := a.Data(x), a.Data(y)
		_, xConst := a.isConst(x)
		_, yConst := a.isConst(y)
		class := classifyAdd(dx.Class, dy.Class, xConst, yConst)
		return Data{
			Cost:    computeCost(TagAdd, class, dx.Cost, dy.Cost),
			HasPoly: dx.HasPoly || dy.HasPoly,
			Class:   class,
			KB:      bits.Add(dx.KB, dy.KB),
		}
	})
}

// Mul interns x*y, folding constant-constant products and the 0/1
// identities (I5).
func (a *Arena) Mul(x, y NodeId) NodeId {
	w := a.Width(x)
	if cx, ok := a.isConst(x); ok {
		if cx == 0 {
			return a.Const(0, w)
		}
		if cx == 1 {
			return y
		}
		if cy, ok := a.isConst(y); ok {
			return a.Const(cx*cy, w)
		}
	}
	if cy, ok := a.isConst(y); ok {
		if cy == 0 {
			return a.Const(0, w)
		}
		if cy == 1 {
			return x
		}
	}
	n := a.bin(TagMul, w, x, y)
	return a.intern(n, func() Data {
		dx, dy := a.Data(x), a.Data(y)
		_, xConst := a.isConst(x)
		_, yConst := a.isConst(y)
		class := classifyMul(dx.Class, dy.Class, xConst, yConst)
		return Data{
			Cost:    computeCost(TagMul, class, dx.Cost, dy.Cost),
			HasPoly: computeHasPoly(TagMul, xConst, yConst, dx.HasPoly || dy.HasPoly),
			Class:   class,
			KB:      bits.Mul(dx.KB, dy.KB),
		}
	})
}

// Pow interns x**y (y a non-negative exponent, same width as x),
// folding constant-constant exponentiation (I5). Pow is always
// Nonlinear and always sets hasPoly.
func (a *Arena) Pow(x, y NodeId) NodeId {
	w := a.Width(x)
	a.checkWidth(w, x, y)
	if cx, ok := a.isConst(x); ok {
		if cy, ok := a.isConst(y); ok {
			return a.Const(powMod(cx, cy, w), w)
		}
	}
	n := Node{Tag: TagPow, Width: w, NumKids: 2, Kids: [3]NodeId{x, y}}
	return a.intern(n, func() Data {
		dx, dy := a.Data(x), a.Data(y)
		return Data{
			Cost:    computeCost(TagPow, bits.Nonlinear, dx.Cost, dy.Cost),
			HasPoly: true,
			Class:   bits.Nonlinear,
			KB:      bits.Unknown(w),
		}
	})
}

func powMod(base, exp uint64, w uint8) uint64 {
	m := bits.Mask(w)
	result := uint64(1) & m
	base &= m
	for exp > 0 {
		if exp&1 == 1 {
			result = (result * base) & m
		}
		base = (base * base) & m
		exp >>= 1
	}
	return result
}

func (a *Arena) mkBitwise(tag Tag, fold func(cx, cy uint64) uint64, transfer func(a, b bits.KnownBits) bits.KnownBits, x, y NodeId) NodeId {
	w := a.Width(x)
	cx, xConst := a.isConst(x)
	cy, yConst := a.isConst(y)
	if xConst && yConst {
		return a.Const(fold(cx, cy), w)
	}
	n := a.bin(tag, w, x, y)
	return a.intern(n, func() Data {
		dx, dy := a.Data(x), a.Data(y)
		class := classifyBitwise(xConst || yConst, dx.Class, dy.Class)
		return Data{
			Cost:    computeCost(tag, class, dx.Cost, dy.Cost),
			HasPoly: dx.HasPoly || dy.HasPoly,
			Class:   class,
			KB:      transfer(dx.KB, dy.KB),
		}
	})
}

// And interns x&y.
func (a *Arena) And(x, y NodeId) NodeId {
	return a.mkBitwise(TagAnd, func(cx, cy uint64) uint64 { return cx & cy }, bits.And, x, y)
}

// Or interns x|y.
func (a *Arena) Or(x, y NodeId) NodeId {
	return a.mkBitwise(TagOr, func(cx, cy uint64) uint64 { return cx | cy }, bits.Or, x, y)
}

// Xor interns x^y.
func (a *Arena) Xor(x, y NodeId) NodeId {
	return a.mkBitwise(TagXor, func(cx, cy uint64) uint64 { return cx ^ cy }, bits.Xor, x, y)
}

// Neg interns ~x (bitwise NOT), folding a constant operand immediately
// (I4: ~(~a) is not folded here; it is left to the rewrite engine).
func (a *Arena) Neg(x NodeId) NodeId {
	w := a.Width(x)
	if cx, ok := a.isConst(x); ok {
		return a.Const(^cx, w)
	}
	n := Node{Tag: TagNeg, Width: w, NumKids: 1, Kids: [3]NodeId{x}}
	return a.intern(n, func() Data {
		dx := a.Data(x)
		class := classifyBitwise(false, dx.Class)
		return Data{
			Cost:    computeCost(TagNeg, class, dx.Cost),
			HasPoly: dx.HasPoly,
			Class:   class,
			KB:      bits.Neg(dx.KB),
		}
	})
}

// Lshr interns x>>y, a logical right shift. Two constant operands fold
// eagerly, with a shift amount of width or more folding to 0.
func (a *Arena) Lshr(x, y NodeId) NodeId {
	w := a.Width(x)
	a.checkWidth(w, x, y)
	if cx, ok := a.isConst(x); ok {
		if cy, ok := a.isConst(y); ok {
			s := cy
			if s >= uint64(w) {
				return a.Const(0, w)
			}
			return a.Const(cx>>s, w)
		}
	}
	n := Node{Tag: TagLshr, Width: w, NumKids: 2, Kids: [3]NodeId{x, y}}
	return a.intern(n, func() Data {
		dx, dy := a.Data(x), a.Data(y)
		return Data{
			Cost:    computeCost(TagLshr, bits.Nonlinear, dx.Cost, dy.Cost),
			HasPoly: dx.HasPoly,
			Class:   bits.Nonlinear,
			KB:      bits.Lshr(dx.KB, dy.KB),
		}
	})
}

// Zext interns a zero-extension of x to newWidth (newWidth >= x's
// width), folding constants immediately (I5).
func (a *Arena) Zext(x NodeId, newWidth uint8) NodeId {
	if cx, ok := a.isConst(x); ok {
		return a.Const(cx, newWidth)
	}
	n := Node{Tag: TagZext, Width: newWidth, NumKids: 1, Kids: [3]NodeId{x}, Payload: uint64(newWidth)}
	return a.intern(n, func() Data {
		dx := a.Data(x)
		class := classifyZextTrunc(dx.Class)
		return Data{
			Cost:    computeCost(TagZext, class, dx.Cost),
			HasPoly: dx.HasPoly,
			Class:   class,
			KB:      bits.Zext(dx.KB, newWidth),
		}
	})
}

// Trunc interns a truncation of x to newWidth (newWidth <= x's width),
// folding constants immediately (I5).
func (a *Arena) Trunc(x NodeId, newWidth uint8) NodeId {
	if cx, ok := a.isConst(x); ok {
		return a.Const(cx, newWidth)
	}
	n := Node{Tag: TagTrunc, Width: newWidth, NumKids: 1, Kids: [3]NodeId{x}, Payload: uint64(newWidth)}
	return a.intern(n, func() Data {
		dx := a.Data(x)
		class := classifyZextTrunc(dx.Class)
		return Data{
			Cost:    computeCost(TagTrunc, class, dx.Cost),
			HasPoly: dx.HasPoly,
			Class:   class,
			KB:      bits.Trunc(dx.KB, newWidth),
		}
	})
}

// Icmp interns a 1-bit-wide comparison of x and y under pred (both x
// and y share a width; the result is always width 1).
func (a *Arena) Icmp(pred bits.Predicate, x, y NodeId) NodeId {
	w := a.Width(x)
	a.checkWidth(w, x, y)
	n := Node{Tag: TagIcmp, Width: 1, NumKids: 2, Kids: [3]NodeId{x, y}, Payload: uint64(pred)}
	return a.intern(n, func() Data {
		dx, dy := a.Data(x), a.Data(y)
		return Data{
			Cost:    computeCost(TagIcmp, bits.Nonlinear, dx.Cost, dy.Cost),
			HasPoly: dx.HasPoly || dy.HasPoly,
			Class:   bits.Nonlinear,
			KB:      bits.Icmp(pred, dx.KB, dy.KB),
		}
	})
}

// Predicate returns the comparison predicate carried by an icmp node.
func (a *Arena) Predicate(id NodeId) bits.Predicate {
	n := a.nodes[id]
	if n.Tag != TagIcmp {
		panic("ast: Predicate on non-icmp node")
	}
	return bits.Predicate(n.Payload)
}

// Select interns (c ? t : f); c is 1-bit wide, t and f share t's width
// which becomes the result width. A constant condition folds
// immediately to whichever branch it selects (I5).
func (a *Arena) Select(c, t, f NodeId) NodeId {
	w := a.Width(t)
	a.checkWidth(w, t, f)
	if cv, ok := a.isConst(c); ok {
		if cv != 0 {
			return t
		}
		return f
	}
	n := Node{Tag: TagSelect, Width: w, NumKids: 3, Kids: [3]NodeId{c, t, f}}
	return a.intern(n, func() Data {
		dc, dt, df := a.Data(c), a.Data(t), a.Data(f)
		return Data{
			Cost:    computeCost(TagSelect, bits.Nonlinear, dc.Cost, dt.Cost, df.Cost),
			HasPoly: dt.HasPoly || df.HasPoly,
			Class:   bits.Nonlinear,
			KB:      bits.Select(dc.KB, dt.KB, df.KB),
		}
	})
}
