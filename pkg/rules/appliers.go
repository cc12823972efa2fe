package rules

import (
	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/egraph"
)

// IsPowerOfTwo: both constants are nonzero powers of two (ported from
// bitwise_power_of_two.rs's is_power_of_two).
func IsPowerOfTwo(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "is_power_of_two", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		c1, ok1 := constOf(g, s[v1])
		c2, ok2 := constOf(g, s[v2])
		return ok1 && ok2 && c1 != 0 && c1&(c1-1) == 0 && c2 != 0 && c2&(c2-1) == 0
	}}
}

// BitwisePowerOfTwoFactorApplier rewrites (xFactor*x) OP (yFactor*y),
// where OP is And/Or/Xor and xFactor/yFactor are both powers of two,
// into the common power-of-two factor pulled out front: min*(x OP y)
// when the factors are equal, or min*((max/min * bigger) OP smaller)
// otherwise (ported from bitwise_power_of_two.rs's
// BitwisePowerOfTwoFactorApplier).
type BitwisePowerOfTwoFactorApplier struct {
	Op                 ast.Tag
	XFactor, YFactor   string
	X, Y               string
}

func (a BitwisePowerOfTwoFactorApplier) Apply(g *egraph.EGraph, sub egraph.Subst, width uint8) []egraph.ClassId {
	xFactor, _ := constOf(g, sub[a.XFactor])
	yFactor, _ := constOf(g, sub[a.YFactor])
	xID, yID := sub[a.X], sub[a.Y]

	min, max := xFactor, yFactor
	if min > max {
		min, max = max, min
	}
	minID := g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: min})

	var factored egraph.ClassId
	if min == max {
		anded := g.Add(egraph.ENode{Tag: a.Op, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{xID, yID}})
		factored = g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{minID, anded}})
	} else {
		remaining := max / min
		remID := g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: remaining})
		var rhs egraph.ClassId
		if xFactor == max {
			scaled := g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{remID, xID}})
			rhs = g.Add(egraph.ENode{Tag: a.Op, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{scaled, yID}})
		} else {
			scaled := g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{remID, yID}})
			rhs = g.Add(egraph.ENode{Tag: a.Op, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{scaled, xID}})
		}
		factored = g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{minID, rhs}})
	}
	return []egraph.ClassId{factored}
}

// FactorIntegerGcdApplier rewrites (xFactor*x) + (yFactor*y) into
// gcd * ((xFactor/gcd)*x + (yFactor/gcd)*y), dropping either side's
// residual multiplier when it reduces to 1 (ported from
// factor_integer_gcd.rs's FactorIntegerGcdApplier).
type FactorIntegerGcdApplier struct {
	XFactor, YFactor string
	X, Y             string
}

func (a FactorIntegerGcdApplier) Apply(g *egraph.EGraph, sub egraph.Subst, width uint8) []egraph.ClassId {
	xFactor, _ := constOf(g, sub[a.XFactor])
	yFactor, _ := constOf(g, sub[a.YFactor])
	gcd := GcdOfTwo(xFactor, yFactor, width)
	gcdID := g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: gcd})

	lhs := withoutGcd(g, sub[a.X], xFactor, gcd, width)
	rhs := withoutGcd(g, sub[a.Y], yFactor, gcd, width)
	added := g.Add(egraph.ENode{Tag: ast.TagAdd, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{lhs, rhs}})
	factored := g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{gcdID, added}})
	return []egraph.ClassId{factored}
}

func withoutGcd(g *egraph.EGraph, x egraph.ClassId, factor, gcd uint64, width uint8) egraph.ClassId {
	remaining := factor / gcd
	if remaining == 1 {
		return x
	}
	remID := g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: remaining})
	return g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{x, remID}})
}

// DuplicateChildrenMulAddApplier rewrites (constFactor*x) + x into
// (constFactor+1)*x (ported from duplicate_children_mul_add.rs).
type DuplicateChildrenMulAddApplier struct {
	ConstFactor string
	X           string
}

func (a DuplicateChildrenMulAddApplier) Apply(g *egraph.EGraph, sub egraph.Subst, width uint8) []egraph.ClassId {
	c, _ := constOf(g, sub[a.ConstFactor])
	newConst := g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: c + 1})
	x := sub[a.X]
	newExpr := g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{newConst, x}})
	return []egraph.ClassId{newExpr}
}

// RewritePowerApplier rewrites (a*b)**exponent, a constant and b not,
// into b**exponent * a**exponent (ported from rewrite_power.rs).
type RewritePowerApplier struct {
	A, B, Exponent string
}

func (r RewritePowerApplier) Apply(g *egraph.EGraph, sub egraph.Subst, width uint8) []egraph.ClassId {
	a, _ := constOf(g, sub[r.A])
	exp, ok := constOf(g, sub[r.Exponent])
	if !ok || exp > 1<<20 {
		return nil
	}
	constValue := powMod(a, exp, width)
	constID := g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: constValue})
	powID := g.Add(egraph.ENode{Tag: ast.TagPow, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{sub[r.B], sub[r.Exponent]}})
	newExpr := g.Add(egraph.ENode{Tag: ast.TagMul, Width: width, NumKids: 2, Kids: [3]egraph.ClassId{powID, constID}})
	return []egraph.ClassId{newExpr}
}

func powMod(base, exp uint64, w uint8) uint64 {
	m := (uint64(1)<<w - 1)
	if w >= 64 {
		m = ^uint64(0)
	}
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

// CanRewritePower: a is constant, b is not, exponent is constant
// (ported from rewrite_power.rs's can_rewrite_power).
func CanRewritePower(a, b, exponent string) egraph.Guard {
	return egraph.Guard{Name: "can_rewrite_power", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		_, aConst := constOf(g, s[a])
		_, bConst := constOf(g, s[b])
		_, expConst := constOf(g, s[exponent])
		return aConst && !bConst && expConst
	}}
}
