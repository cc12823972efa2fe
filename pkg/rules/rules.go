// Package rules assembles the representative rewrite-rule corpus for
// spec.md §4.3 from original_source/EqSat/egraph/src/rules/mod.rs's
// make_simplification_rules()/make_original_rules(): per-operator
// identity/commutativity/associativity, the bitwise-negation move-in and
// conversion rules, constant folding, and the four custom appliers
// (pkg/rules/appliers.go) wired behind their named guards
// (pkg/rules/guards.go). mod.rs lists on the order of 150 rules; this
// file ports the load-bearing subset that exercises every guard and
// every custom applier at least once rather than transcribing all of
// them verbatim.
package rules

import (
	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/egraph"
)

func v(name string) egraph.Pattern { return egraph.Var(name) }

// DefaultRules returns the core rule set used by pkg/egraph.Saturate.
func DefaultRules() []egraph.Rule {
	var rs []egraph.Rule
	rs = append(rs, orRules()...)
	rs = append(rs, xorRules()...)
	rs = append(rs, andRules()...)
	rs = append(rs, addRules()...)
	rs = append(rs, mulRules()...)
	rs = append(rs, powRules()...)
	rs = append(rs, negationRules()...)
	rs = append(rs, constFoldRules()...)
	rs = append(rs, customApplierRules()...)
	rs = append(rs, guardDemoRules()...)
	return rs
}

func orRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewRule("or-zero",
			egraph.Op(ast.TagOr, v("x"), egraph.ConstLit(0)), v("x")),
		egraph.NewRule("or-itself",
			egraph.Op(ast.TagOr, v("x"), v("x")), v("x")),
		egraph.NewRule("or-negated-itself",
			egraph.Op(ast.TagOr, v("x"), egraph.Op(ast.TagNeg, v("x"))), egraph.MaxInt()),
		egraph.NewRule("or-commutativity",
			egraph.Op(ast.TagOr, v("a"), v("b")), egraph.Op(ast.TagOr, v("b"), v("a"))),
		egraph.NewRule("or-associativity",
			egraph.Op(ast.TagOr, egraph.Op(ast.TagOr, v("a"), v("b")), v("c")),
			egraph.Op(ast.TagOr, v("a"), egraph.Op(ast.TagOr, v("b"), v("c")))),
	}
}

func xorRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewRule("xor-zero",
			egraph.Op(ast.TagXor, v("x"), egraph.ConstLit(0)), v("x")),
		egraph.NewRule("xor-itself",
			egraph.Op(ast.TagXor, v("x"), v("x")), egraph.ConstLit(0)),
		egraph.NewRule("xor-negated-itself",
			egraph.Op(ast.TagXor, v("x"), egraph.Op(ast.TagNeg, v("x"))), egraph.MaxInt()),
		egraph.NewRule("xor-commutativity",
			egraph.Op(ast.TagXor, v("a"), v("b")), egraph.Op(ast.TagXor, v("b"), v("a"))),
		egraph.NewRule("xor-associativity",
			egraph.Op(ast.TagXor, egraph.Op(ast.TagXor, v("a"), v("b")), v("c")),
			egraph.Op(ast.TagXor, v("a"), egraph.Op(ast.TagXor, v("b"), v("c")))),
		egraph.NewRule("xor-flip-negations",
			egraph.Op(ast.TagXor, egraph.Op(ast.TagNeg, v("a")), egraph.Op(ast.TagNeg, v("b"))),
			egraph.Op(ast.TagXor, v("a"), v("b"))),
	}
}

func andRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewRule("and-zero",
			egraph.Op(ast.TagAnd, v("x"), egraph.ConstLit(0)), egraph.ConstLit(0)),
		egraph.NewRule("and-itself",
			egraph.Op(ast.TagAnd, v("x"), v("x")), v("x")),
		egraph.NewRule("and-negated-itself",
			egraph.Op(ast.TagAnd, v("x"), egraph.Op(ast.TagNeg, v("x"))), egraph.ConstLit(0)),
		egraph.NewRule("and-commutativity",
			egraph.Op(ast.TagAnd, v("a"), v("b")), egraph.Op(ast.TagAnd, v("b"), v("a"))),
		egraph.NewRule("and-associativity",
			egraph.Op(ast.TagAnd, egraph.Op(ast.TagAnd, v("a"), v("b")), v("c")),
			egraph.Op(ast.TagAnd, v("a"), egraph.Op(ast.TagAnd, v("b"), v("c")))),
		egraph.NewRule("and-move-bitwise-negation-in",
			egraph.Op(ast.TagAnd, egraph.Op(ast.TagNeg, v("a")), egraph.Op(ast.TagNeg, v("b"))),
			egraph.Op(ast.TagNeg, egraph.Op(ast.TagOr, v("a"), v("b")))),
		egraph.NewRule("and-distribute-over-xor",
			egraph.Op(ast.TagAnd, egraph.Op(ast.TagXor, v("a"), v("b")), v("c")),
			egraph.Op(ast.TagXor, egraph.Op(ast.TagAnd, v("a"), v("c")), egraph.Op(ast.TagAnd, v("b"), v("c")))),
	}
}

func addRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewRule("add-zero",
			egraph.Op(ast.TagAdd, v("x"), egraph.ConstLit(0)), v("x")),
		egraph.NewRule("add-commutativity",
			egraph.Op(ast.TagAdd, v("a"), v("b")), egraph.Op(ast.TagAdd, v("b"), v("a"))),
		egraph.NewRule("add-associativity",
			egraph.Op(ast.TagAdd, egraph.Op(ast.TagAdd, v("a"), v("b")), v("c")),
			egraph.Op(ast.TagAdd, v("a"), egraph.Op(ast.TagAdd, v("b"), v("c")))),
	}
}

func mulRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewRule("mul-zero",
			egraph.Op(ast.TagMul, v("x"), egraph.ConstLit(0)), egraph.ConstLit(0)),
		egraph.NewRule("mul-one",
			egraph.Op(ast.TagMul, v("x"), egraph.ConstLit(1)), v("x")),
		egraph.NewRule("mul-commutativity",
			egraph.Op(ast.TagMul, v("a"), v("b")), egraph.Op(ast.TagMul, v("b"), v("a"))),
		egraph.NewRule("mul-associativity",
			egraph.Op(ast.TagMul, egraph.Op(ast.TagMul, v("a"), v("b")), v("c")),
			egraph.Op(ast.TagMul, v("a"), egraph.Op(ast.TagMul, v("b"), v("c")))),
	}
}

func powRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewRule("pow-one",
			egraph.Op(ast.TagPow, v("x"), egraph.ConstLit(1)), v("x")),
		egraph.NewRule("pow-zero-exp",
			egraph.Op(ast.TagPow, v("x"), egraph.ConstLit(0)), egraph.ConstLit(1)),
	}
}

func negationRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewRule("negate-twice",
			egraph.Op(ast.TagNeg, egraph.Op(ast.TagNeg, v("a"))), v("a")),
		// ~a <-> (a*-1)-1, expressed as (a*-1)+-1 since pkg/ast has no
		// subtraction tag (ported from not_to_arith/arith_to_not).
		egraph.NewRule("not-to-arith",
			egraph.Op(ast.TagNeg, v("a")),
			egraph.Op(ast.TagAdd, egraph.Op(ast.TagMul, v("a"), egraph.MaxInt()), egraph.MaxInt())),
		egraph.NewRule("arith-to-not",
			egraph.Op(ast.TagAdd, egraph.Op(ast.TagMul, v("a"), egraph.MaxInt()), egraph.MaxInt()),
			egraph.Op(ast.TagNeg, v("a"))),
	}
}

// customApplierRules wires the four ported custom appliers behind their
// named guards (pkg/rules/appliers.go, pkg/rules/guards.go).
func customApplierRules() []egraph.Rule {
	var rs []egraph.Rule
	rs = append(rs, egraph.NewCustomRule("duplicate-children-mul-add",
		egraph.Op(ast.TagAdd, egraph.Op(ast.TagMul, v("c"), v("x")), v("x")),
		DuplicateChildrenMulAddApplier{ConstFactor: "c", X: "x"},
		IsConstFactor("c"),
	))
	for _, op := range []ast.Tag{ast.TagAnd, ast.TagOr, ast.TagXor} {
		rs = append(rs, egraph.NewCustomRule("bitwise-power-of-two-factor-"+op.String(),
			egraph.Op(op,
				egraph.Op(ast.TagMul, v("xf"), v("x")),
				egraph.Op(ast.TagMul, v("yf"), v("y"))),
			BitwisePowerOfTwoFactorApplier{Op: op, XFactor: "xf", YFactor: "yf", X: "x", Y: "y"},
			IsPowerOfTwo("xf", "yf"),
		))
	}
	rs = append(rs, egraph.NewCustomRule("factor-integer-gcd",
		egraph.Op(ast.TagAdd,
			egraph.Op(ast.TagMul, v("xf"), v("x")),
			egraph.Op(ast.TagMul, v("yf"), v("y"))),
		FactorIntegerGcdApplier{XFactor: "xf", YFactor: "yf", X: "x", Y: "y"},
		HasSignificantGcd("xf", "yf"),
	))
	rs = append(rs, egraph.NewCustomRule("rewrite-power",
		egraph.Op(ast.TagPow, egraph.Op(ast.TagMul, v("a"), v("b")), v("e")),
		RewritePowerApplier{A: "a", B: "b", Exponent: "e"},
		CanRewritePower("a", "b", "e"),
	))
	return rs
}

// guardDemoRules exercises the remaining named guards
// (AreMinusConst/AreNegatedConst/ConstAContainsB/AreDisjointKnownBits/
// AreSubsetKnownBits/IsNegativeConst) that the four custom appliers
// above don't already reach.
func guardDemoRules() []egraph.Rule {
	return []egraph.Rule{
		egraph.NewConditionalRule("const-add-inverse",
			egraph.Op(ast.TagAdd, v("c1"), v("c2")), egraph.ConstLit(0),
			AreMinusConst("c1", "c2")),
		egraph.NewConditionalRule("const-xor-complement",
			egraph.Op(ast.TagXor, v("c1"), v("c2")), egraph.MaxInt(),
			AreNegatedConst("c1", "c2")),
		egraph.NewConditionalRule("const-and-absorb",
			egraph.Op(ast.TagAnd, v("c1"), v("c2")), v("c2"),
			ConstAContainsB("c1", "c2")),
		egraph.NewConditionalRule("known-bits-add-to-or",
			egraph.Op(ast.TagAdd, v("a"), v("b")), egraph.Op(ast.TagOr, v("a"), v("b")),
			AreDisjointKnownBits("a", "b")),
		egraph.NewConditionalRule("known-bits-and-absorb",
			egraph.Op(ast.TagAnd, v("a"), v("b")), v("a"),
			AreSubsetKnownBits("a", "b")),
		egraph.NewCustomRule("negative-const-fold-neg",
			egraph.Op(ast.TagNeg, v("c")),
			constNegFoldApplier{C: "c"},
			IsNegativeConst("c"),
		),
	}
}

// constNegFoldApplier folds ~c for a known-negative constant c — its
// guard (IsNegativeConst) narrows it to the sign-bearing case the
// general constFoldRules() unary fold otherwise already covers, so this
// exists specifically to exercise is_negative_const.
type constNegFoldApplier struct{ C string }

func (a constNegFoldApplier) Apply(g *egraph.EGraph, sub egraph.Subst, width uint8) []egraph.ClassId {
	c, ok := constOf(g, sub[a.C])
	if !ok {
		return nil
	}
	mask := maskOfWidth(width)
	return []egraph.ClassId{g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: (^c) & mask})}
}

func maskOfWidth(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
