package egraph

// Guard is a named side condition gating a conditional rule, e.g.
// are_disjoint, are_subset, width checks. It inspects the e-graph's
// analysis data under a substitution rather than any concrete valuation.
type Guard struct {
	Name  string
	Check func(g *EGraph, sub Subst) bool
}

// Applier is the single-method contract for rules whose RHS cannot be
// expressed as a flat pattern: BitwisePowerOfTwoFactor, FactorIntegerGcd,
// DuplicateChildrenMulAdd, and RewritePower all need to synthesize new
// constants or reshape arity based on the match, not just substitute
// into a fixed template.
type Applier interface {
	// Apply inserts whatever e-classes the custom RHS needs and returns
	// the class(es) that should be unioned with the match root. An empty
	// result means the applier declined (its own internal guard failed).
	Apply(g *EGraph, sub Subst, width uint8) []ClassId
}

// patternApplier adapts a plain Pattern to the Applier interface, used
// by every rule whose RHS is a flat substitution.
type patternApplier struct{ pat Pattern }

func (p patternApplier) Apply(g *EGraph, sub Subst, width uint8) []ClassId {
	return []ClassId{Instantiate(g, p.pat, width, sub)}
}

// Rule is one rewrite rule: match LHS, optionally check Guards, then
// union the match root with whatever RHS produces.
type Rule struct {
	Name    string
	LHS     Pattern
	Guards  []Guard
	RHS     Applier
}

// NewRule builds a plain (unconditional, flat-RHS) rule.
func NewRule(name string, lhs, rhs Pattern) Rule {
	return Rule{Name: name, LHS: lhs, RHS: patternApplier{rhs}}
}

// NewConditionalRule builds a rule gated by one or more named guards.
func NewConditionalRule(name string, lhs Pattern, rhs Pattern, guards ...Guard) Rule {
	return Rule{Name: name, LHS: lhs, RHS: patternApplier{rhs}, Guards: guards}
}

// NewCustomRule builds a rule whose RHS is a custom Applier.
func NewCustomRule(name string, lhs Pattern, applier Applier, guards ...Guard) Rule {
	return Rule{Name: name, LHS: lhs, RHS: applier, Guards: guards}
}

func (r Rule) passesGuards(g *EGraph, sub Subst) bool {
	for _, gd := range r.Guards {
		if !gd.Check(g, sub) {
			return false
		}
	}
	return true
}
