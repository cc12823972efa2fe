package egraph

import (
	"testing"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
	"github.com/stretchr/testify/require"
)

func TestRoundTripThroughExtraction(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	expr := a.Add(a.And(x, y), a.Const(1, 8))

	g := New()
	memo := make(map[ast.NodeId]ClassId)
	root := FromAST(g, a, expr, memo)

	out, nid := Extract(g, root, DefaultCostFn, a)
	require.Equal(t, "(+ (& x:i8 y:i8) 1:i8)", out.String(nid))
}

func TestUnionCollapsesClasses(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	lhs := a.Add(x, a.Const(0, 8)) // folds to x already, but build raw e-nodes below
	_ = lhs

	g := New()
	xID := g.Add(ENode{Tag: ast.TagSym, Width: 8, Payload: uint64(a.Symbol("x", 8))})
	doubleNeg := g.Add(ENode{Tag: ast.TagNeg, Width: 8, NumKids: 1, Kids: [3]ClassId{
		g.Add(ENode{Tag: ast.TagNeg, Width: 8, NumKids: 1, Kids: [3]ClassId{xID}}),
	}})
	require.NotEqual(t, xID, g.Find(doubleNeg))

	g.Union(xID, doubleNeg)
	g.Rebuild()
	require.Equal(t, g.Find(xID), g.Find(doubleNeg))
}

func TestDefaultCostFnRewardsKnownBits(t *testing.T) {
	fullyKnown := bits.Constant(0, 8)
	fullyUnknown := bits.Unknown(8)
	require.Greater(t,
		DefaultCostFn(ast.TagAnd, bits.Bitwise, fullyUnknown, []uint32{1, 1}),
		DefaultCostFn(ast.TagAnd, bits.Bitwise, fullyKnown, []uint32{1, 1}),
		"a fully-unknown result must cost strictly more than a fully-known one of the same shape")
}

func TestUnionOfConstantSideMaterializesConstLeaf(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)

	g := New()
	xID := g.Add(ENode{Tag: ast.TagSym, Width: 8, Payload: uint64(a.Symbol("x", 8))})
	constID := g.Add(ENode{Tag: ast.TagConst, Width: 8, Payload: 42})

	merged := g.Union(xID, constID)
	require.True(t, g.Class(merged).Data.KB.IsConstant())
	v, ok := g.Class(merged).Data.KB.AsConstant()
	require.True(t, ok)
	require.Equal(t, uint64(42), v)

	foundConst := false
	for _, n := range g.Class(merged).Nodes {
		if n.Tag == ast.TagConst && n.Payload == 42 {
			foundConst = true
		}
	}
	require.True(t, foundConst, "merged class must contain a materialized Const(42) node")
}

func TestSaturateWithCommutativity(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	expr := a.Add(x, y)
	swapped := a.Add(y, x)

	g := New()
	memo := make(map[ast.NodeId]ClassId)
	root := FromAST(g, a, expr, memo)
	otherRoot := FromAST(g, a, swapped, memo)
	require.NotEqual(t, g.Find(root), g.Find(otherRoot), "x+y and y+x are distinct nodes, so they start in distinct classes until the commutativity rule fires")

	commuteAdd := NewRule("add-commute",
		Op(ast.TagAdd, Var("a"), Var("b")),
		Op(ast.TagAdd, Var("b"), Var("a")),
	)
	stats := Saturate(g, []Rule{commuteAdd}, Config{MaxIterations: 10})
	require.Equal(t, "saturated", stats.StoppedOn)
	require.Equal(t, g.Find(root), g.Find(otherRoot))
}
