package ast

import "github.com/mazeworks-security/simplifier/pkg/bits"

// classifyBitwise implements the And/Or/Xor/Neg rule from spec.md §3.2:
// a bitwise op over constant-free children stays Bitwise; if either
// child is a literal constant it becomes BitwiseWithConstants; but if a
// child's own class already exceeds BitwiseWithConstants, the whole
// node collapses to Nonlinear rather than silently capping.
func classifyBitwise(anyConst bool, childClasses ...bits.AstClass) bits.AstClass {
	base := bits.Bitwise
	if anyConst {
		base = bits.BitwiseWithConstants
	}
	joined := bits.Join(base, bits.JoinAll(childClasses...))
	if joined > bits.BitwiseWithConstants {
		return bits.Nonlinear
	}
	return joined
}

// classifyAdd implements the Add rule: at least Linear, upgraded to
// Semilinear when a constant-bearing bitwise subexpression is being
// added in (spec.md §3.2).
func classifyAdd(a, b bits.AstClass, aConst, bConst bool) bits.AstClass {
	res := bits.JoinAll(a, b, bits.Linear)
	if (a == bits.BitwiseWithConstants || b == bits.BitwiseWithConstants) && res <= bits.Linear {
		res = bits.Semilinear
	}
	return res
}

// classifyMul implements the Mul rule: a product of two non-constant
// subtrees is Nonlinear outright; a constant scalar times an expression
// behaves like Add for classification purposes.
func classifyMul(a, b bits.AstClass, aConst, bConst bool) bits.AstClass {
	if !aConst && !bConst {
		return bits.Nonlinear
	}
	other := a
	if aConst {
		other = b
	}
	res := bits.Join(other, bits.Linear)
	if other == bits.BitwiseWithConstants && res <= bits.Linear {
		res = bits.Semilinear
	}
	return res
}

// classifyZextTrunc implements the Zext/Trunc rule: width-only
// conversions preserve BitwiseWithConstants-or-better but collapse
// anything above that to Nonlinear, since a subsequent rewrite cannot
// see through the conversion the way it can through pure bitwise ops.
func classifyZextTrunc(child bits.AstClass) bits.AstClass {
	if child <= bits.BitwiseWithConstants {
		return child
	}
	return bits.Nonlinear
}
