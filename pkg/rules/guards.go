// Package rules implements the conditional rewrite rules and custom
// appliers, grounded directly on
// original_source/EqSat/egraph/src/rules/*.rs: the same guard names,
// ported from egg's Subst/read_constant/read_known_bits idiom to
// pkg/egraph's Subst/ClassId lookups.
package rules

import (
	"github.com/mazeworks-security/simplifier/pkg/bits"
	"github.com/mazeworks-security/simplifier/pkg/egraph"
)

func constOf(g *egraph.EGraph, c egraph.ClassId) (uint64, bool) {
	return g.Class(c).Data.KB.AsConstant()
}

func kbOf(g *egraph.EGraph, c egraph.ClassId) bits.KnownBits {
	return g.Class(c).Data.KB
}

// IsConst: var is bound to a class with a fully-known constant value.
func IsConst(v string) egraph.Guard {
	return egraph.Guard{Name: "is_const", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		_, ok := constOf(g, s[v])
		return ok
	}}
}

// AreConst: both vars resolve to constants.
func AreConst(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "are_const", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		_, ok1 := constOf(g, s[v1])
		_, ok2 := constOf(g, s[v2])
		return ok1 && ok2
	}}
}

// AreMinusConst: c2 == -c1 (two's complement negation).
func AreMinusConst(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "are_minus_const", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		c1, ok1 := constOf(g, s[v1])
		c2, ok2 := constOf(g, s[v2])
		if !ok1 || !ok2 {
			return false
		}
		w := g.Class(s[v1]).Data.KB.Width
		return c2 == (-c1)&bits.Mask(w)
	}}
}

// AreDisjointConst: c1 & c2 == 0, both literal constants.
func AreDisjointConst(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "are_disjoint_const", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		c1, ok1 := constOf(g, s[v1])
		c2, ok2 := constOf(g, s[v2])
		return ok1 && ok2 && c1&c2 == 0
	}}
}

// AreDisjointKnownBits: the are_disjoint_known_bits guard — no
// concrete valuation can ever set a bit in both subexpressions,
// decided conservatively from the KnownBits lattice.
func AreDisjointKnownBits(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "are_disjoint_known_bits", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		if bits.DisableKnownBits {
			return false
		}
		return kbOf(g, s[v1]).NoCommonBitsSet(kbOf(g, s[v2]))
	}}
}

// AreSubsetKnownBits: the are_subset_known_bits guard — every bit v1
// could ever set is known-1 in v2.
func AreSubsetKnownBits(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "are_subset_known_bits", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		if bits.DisableKnownBits {
			return false
		}
		return kbOf(g, s[v1]).IsSubsetOf(kbOf(g, s[v2]))
	}}
}

// AreNegatedConst: c2 == ^c1.
func AreNegatedConst(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "are_negated_const", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		c1, ok1 := constOf(g, s[v1])
		c2, ok2 := constOf(g, s[v2])
		if !ok1 || !ok2 {
			return false
		}
		w := g.Class(s[v1]).Data.KB.Width
		return c2 == (^c1)&bits.Mask(w)
	}}
}

// ConstAContainsB: c1 & c2 == c2, i.e. every bit of c2 is set in c1.
func ConstAContainsB(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "const_a_contains_b", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		c1, ok1 := constOf(g, s[v1])
		c2, ok2 := constOf(g, s[v2])
		return ok1 && ok2 && c1&c2 == c2
	}}
}

// IsNegativeConst: the constant's sign bit (at its own width) is set.
func IsNegativeConst(v string) egraph.Guard {
	return egraph.Guard{Name: "is_negative_const", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		c, ok := constOf(g, s[v])
		if !ok {
			return false
		}
		w := g.Class(s[v]).Data.KB.Width
		if w == 0 {
			return false
		}
		return c&(uint64(1)<<(w-1)) != 0
	}}
}

// HasSignificantGcd: the gcd of the two constants is neither 0, 1, nor
// -1 (mod width), and is not 2 — mirrors has_significant_gcd's
// deliberate exclusion of the trivial and the barely-useful factor.
func HasSignificantGcd(v1, v2 string) egraph.Guard {
	return egraph.Guard{Name: "has_significant_gcd", Check: func(g *egraph.EGraph, s egraph.Subst) bool {
		c1, ok1 := constOf(g, s[v1])
		c2, ok2 := constOf(g, s[v2])
		if !ok1 || !ok2 || c1 == 0 || c2 == 0 {
			return false
		}
		w := g.Class(s[v1]).Data.KB.Width
		m := bits.Mask(w)
		if c1 == m || c2 == m {
			return false
		}
		gcd := GcdOfTwo(c1, c2, w)
		return gcd != 0 && gcd != 1 && gcd != 2 && gcd != m
	}}
}

// IsConstFactor reuses IsConst under the duplicate-children-mul-add
// rule's naming (original: is_const(var)).
func IsConstFactor(v string) egraph.Guard { return IsConst(v) }
