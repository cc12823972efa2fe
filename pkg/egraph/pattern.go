package egraph

import "github.com/mazeworks-security/simplifier/pkg/ast"

// Pattern is a rewrite-rule side: either a Var leaf (matches any
// e-class and binds it) or a concrete operator applied to sub-patterns.
type Pattern struct {
	IsVar   bool
	VarName string

	Tag     ast.Tag
	Payload uint64
	HasConstPayload bool // Payload is a literal value to match exactly, e.g. a specific icmp predicate
	// ConstPred, when set, matches a TagConst leaf whose (value, width)
	// satisfies the predicate — used for width-relative literals like
	// "maxint" (all-ones) that a fixed Payload cannot express.
	ConstPred func(value uint64, width uint8) bool
	Kids    []Pattern
}

// Var constructs a pattern variable.
func Var(name string) Pattern { return Pattern{IsVar: true, VarName: name} }

// Op constructs a concrete-operator pattern.
func Op(tag ast.Tag, kids ...Pattern) Pattern {
	return Pattern{Tag: tag, Kids: kids}
}

// ConstLit matches a literal constant leaf with exactly this value
// (only safe for width-invariant small literals like 0, 1, 2).
func ConstLit(v uint64) Pattern {
	return Pattern{Tag: ast.TagConst, HasConstPayload: true, Payload: v}
}

// MaxInt matches the all-ones constant at whatever width the match
// site has (the "-1" literal pervasive in the rule corpus).
func MaxInt() Pattern {
	return Pattern{Tag: ast.TagConst, ConstPred: func(value uint64, width uint8) bool {
		return value == maskOf(width)
	}}
}

func maskOf(width uint8) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}

// Subst binds pattern variable names to matched e-classes.
type Subst map[string]ClassId

// Match attempts to match p against the e-class `root`, trying every
// e-node in the class (a class may contain several equivalent shapes)
// and extending binding as it recurses into children. It returns every
// substitution that makes the pattern match somewhere in the class.
func Match(g *EGraph, p Pattern, root ClassId) []Subst {
	root = g.Find(root)
	if p.IsVar {
		return []Subst{{p.VarName: root}}
	}
	var out []Subst
	for _, n := range g.classes[root].Nodes {
		if n.Tag != p.Tag || int(n.NumKids) != len(p.Kids) {
			continue
		}
		if p.HasConstPayload && n.Payload != p.Payload {
			continue
		}
		if p.ConstPred != nil && !p.ConstPred(n.Payload, n.Width) {
			continue
		}
		subs := []Subst{{}}
		ok := true
		for i, kidPat := range p.Kids {
			var next []Subst
			childMatches := Match(g, kidPat, n.Kids[i])
			if len(childMatches) == 0 {
				ok = false
				break
			}
			for _, base := range subs {
				for _, cm := range childMatches {
					merged, compatible := mergeSubst(base, cm)
					if compatible {
						next = append(next, merged)
					}
				}
			}
			subs = next
			if len(subs) == 0 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, subs...)
		}
	}
	return out
}

func mergeSubst(a, b Subst) (Subst, bool) {
	out := make(Subst, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		if existing, ok := out[k]; ok && existing != v {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

// Instantiate rebuilds a pattern's RHS shape into the e-graph under a
// substitution, used by plain (non-custom-applier) rewrite rules.
func Instantiate(g *EGraph, p Pattern, width uint8, sub Subst) ClassId {
	if p.IsVar {
		return sub[p.VarName]
	}
	var n ENode
	n.Tag = p.Tag
	n.Width = width
	n.Payload = p.Payload
	if p.Tag == ast.TagConst && p.ConstPred != nil {
		n.Payload = maskOf(width) // MaxInt() used as an RHS literal
	}
	n.NumKids = uint8(len(p.Kids))
	for i, kid := range p.Kids {
		n.Kids[i] = Instantiate(g, kid, width, sub)
	}
	return g.Add(n)
}
