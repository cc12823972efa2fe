package ast

import "github.com/mazeworks-security/simplifier/pkg/bits"

// computeCost implements the node-metadata cost estimate from spec.md
// §3.2: leaves cost 1, an n-ary op costs 1 plus its children's costs
// (saturating), shifts carry a small surcharge, and nonlinear shape
// is penalized more heavily than semilinear. This is deliberately
// cruder than the weighted extraction-cost formula in pkg/egraph
// (spec.md §4.3); it only needs to preserve relative ordering for
// quick per-node heuristics, not drive extraction itself.
func computeCost(tag Tag, class bits.AstClass, childCosts ...uint32) uint32 {
	if len(childCosts) == 0 {
		return 1
	}
	sum := uint32(1)
	for _, c := range childCosts {
		sum = satAdd(sum, c)
	}
	if tag == TagLshr {
		sum = satAdd(sum, 2)
	}
	switch class {
	case bits.Nonlinear:
		sum = satAdd(sum, 4)
	case bits.Semilinear:
		sum = satAdd(sum, 1)
	}
	return sum
}

// computeHasPoly implements spec.md §3.2's hasPoly flag: true iff the
// subtree contains a multiplication of two non-constant operands, or a
// Pow node (always genuinely polynomial).
func computeHasPoly(tag Tag, aConst, bConst, childHasPoly bool) bool {
	if childHasPoly {
		return true
	}
	if tag == TagPow {
		return true
	}
	if tag == TagMul && !aConst && !bConst {
		return true
	}
	return false
}
