package rules

import (
	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/egraph"
)

// constFoldBinaryApplier evaluates tag(a, b) when both operands are
// fully-known constants, synthesizing the literal result e-class — the
// e-graph analogue of pkg/interp.Eval, needed because g.Add never folds
// on its own (unlike pkg/ast's builders).
type constFoldBinaryApplier struct {
	Tag  ast.Tag
	A, B string
}

func (f constFoldBinaryApplier) Apply(g *egraph.EGraph, sub egraph.Subst, width uint8) []egraph.ClassId {
	a, aok := constOf(g, sub[f.A])
	b, bok := constOf(g, sub[f.B])
	if !aok || !bok {
		return nil
	}
	mask := maskOfWidth(width)
	var result uint64
	switch f.Tag {
	case ast.TagAdd:
		result = (a + b) & mask
	case ast.TagMul:
		result = (a * b) & mask
	case ast.TagAnd:
		result = a & b & mask
	case ast.TagOr:
		result = (a | b) & mask
	case ast.TagXor:
		result = (a ^ b) & mask
	case ast.TagPow:
		result = powMod(a, b, width)
	default:
		return nil
	}
	return []egraph.ClassId{g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: result})}
}

// constFoldUnaryApplier evaluates ~c for a fully-known constant c.
type constFoldUnaryApplier struct{ C string }

func (f constFoldUnaryApplier) Apply(g *egraph.EGraph, sub egraph.Subst, width uint8) []egraph.ClassId {
	c, ok := constOf(g, sub[f.C])
	if !ok {
		return nil
	}
	mask := maskOfWidth(width)
	return []egraph.ClassId{g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: (^c) & mask})}
}

// constFoldRules folds every binary/unary operator over two fully-known
// constant operands, guarded by AreConst/IsConst so the rule only fires
// once the e-graph's analysis data has resolved both sides.
func constFoldRules() []egraph.Rule {
	var rs []egraph.Rule
	for _, tag := range []ast.Tag{ast.TagAdd, ast.TagMul, ast.TagAnd, ast.TagOr, ast.TagXor, ast.TagPow} {
		rs = append(rs, egraph.NewCustomRule("const-fold-"+tag.String(),
			egraph.Op(tag, v("a"), v("b")),
			constFoldBinaryApplier{Tag: tag, A: "a", B: "b"},
			AreConst("a", "b"),
		))
	}
	rs = append(rs, egraph.NewCustomRule("const-fold-neg",
		egraph.Op(ast.TagNeg, v("c")),
		constFoldUnaryApplier{C: "c"},
		IsConst("c"),
	))
	return rs
}
