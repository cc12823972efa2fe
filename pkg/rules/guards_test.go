package rules

import (
	"testing"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/egraph"
	"github.com/stretchr/testify/require"
)

func constClass(t *testing.T, g *egraph.EGraph, value uint64, width uint8) egraph.ClassId {
	t.Helper()
	return g.Add(egraph.ENode{Tag: ast.TagConst, Width: width, Payload: value})
}

func TestGuardsOnConstants(t *testing.T) {
	g := egraph.New()
	c3 := constClass(t, g, 3, 8)
	c5 := constClass(t, g, 5, 8)
	cMinus3 := constClass(t, g, uint64(0x100-3), 8)
	cNot3 := constClass(t, g, ^uint64(3)&0xff, 8)
	c6 := constClass(t, g, 6, 8)
	c9 := constClass(t, g, 9, 8)

	sub := egraph.Subst{"a": c3, "b": c5, "negA": cMinus3, "notA": cNot3, "x": c6, "y": c9}

	require.True(t, IsConst("a").Check(g, sub))
	require.True(t, AreConst("a", "b").Check(g, sub))
	require.True(t, AreMinusConst("a", "negA").Check(g, sub))
	require.False(t, AreMinusConst("a", "b").Check(g, sub))
	require.True(t, AreNegatedConst("a", "notA").Check(g, sub))
	require.True(t, AreDisjointConst("a", "negA").Check(g, sub) == (3&(0x100-3)&0xff == 0))
}

func TestConstAContainsBExact(t *testing.T) {
	g := egraph.New()
	c7 := constClass(t, g, 7, 8)  // 0b111
	c3 := constClass(t, g, 3, 8)  // 0b011, subset of 7
	c8 := constClass(t, g, 8, 8)  // 0b1000, not a subset of 7
	sub := egraph.Subst{"a": c7, "b": c3, "c": c8}
	require.True(t, ConstAContainsB("a", "b").Check(g, sub))
	require.False(t, ConstAContainsB("a", "c").Check(g, sub))
}

func TestIsNegativeConst(t *testing.T) {
	g := egraph.New()
	neg := constClass(t, g, 0x80, 8) // sign bit set at width 8
	pos := constClass(t, g, 0x7f, 8)
	require.True(t, IsNegativeConst("n").Check(g, egraph.Subst{"n": neg}))
	require.False(t, IsNegativeConst("p").Check(g, egraph.Subst{"p": pos}))
}

func TestHasSignificantGcd(t *testing.T) {
	g := egraph.New()
	c6 := constClass(t, g, 6, 8)
	c9 := constClass(t, g, 9, 8)
	c1 := constClass(t, g, 1, 8)
	c2 := constClass(t, g, 2, 8)
	require.True(t, HasSignificantGcd("a", "b").Check(g, egraph.Subst{"a": c6, "b": c9})) // gcd 3
	require.False(t, HasSignificantGcd("a", "b").Check(g, egraph.Subst{"a": c1, "b": c9})) // gcd 1
	require.False(t, HasSignificantGcd("a", "b").Check(g, egraph.Subst{"a": c2, "b": c6})) // gcd 2, excluded
}

func TestMinvRoundTrips(t *testing.T) {
	for _, a := range []uint64{1, 3, 5, 7, 255, 12345} {
		a |= 1 // ensure odd
		inv := Minv(a)
		require.Equal(t, uint64(1), a*inv) // wraps mod 2^64, which is the point
	}
}

func TestGcdOfTwo(t *testing.T) {
	require.Equal(t, uint64(3), GcdOfTwo(6, 9, 8))
	require.Equal(t, uint64(1), GcdOfTwo(7, 9, 8))
	require.Equal(t, uint64(5), Gcd(8, 10, 15, 25))
}
