package ast

import (
	"testing"

	"github.com/mazeworks-security/simplifier/pkg/bits"
	"github.com/stretchr/testify/require"
)

// TestHashConsing checks P1: structurally identical expressions built
// independently collapse to the same NodeId.
func TestHashConsing(t *testing.T) {
	a := New()
	x1 := a.Sym("x", 32)
	y1 := a.Sym("y", 32)
	sum1 := a.Add(x1, y1)

	x2 := a.Sym("x", 32)
	y2 := a.Sym("y", 32)
	sum2 := a.Add(x2, y2)

	require.Equal(t, x1, x2)
	require.Equal(t, y1, y2)
	require.Equal(t, sum1, sum2)

	before := a.Size()
	_ = a.Add(x1, y1)
	require.Equal(t, before, a.Size(), "re-building an existing node must not grow the arena")
}

func TestConstantFolding(t *testing.T) {
	a := New()
	x := a.Sym("x", 8)

	require.Equal(t, a.Const(7, 8), a.Add(a.Const(3, 8), a.Const(4, 8)))
	require.Equal(t, x, a.Add(a.Const(0, 8), x))
	require.Equal(t, x, a.Add(x, a.Const(0, 8)))

	require.Equal(t, a.Const(0, 8), a.Mul(a.Const(0, 8), x))
	require.Equal(t, x, a.Mul(a.Const(1, 8), x))
	require.Equal(t, x, a.Mul(x, a.Const(1, 8)))
	require.Equal(t, a.Const(12, 8), a.Mul(a.Const(3, 8), a.Const(4, 8)))

	require.Equal(t, uint64(256), a.ConstantValue(a.Pow(a.Const(2, 16), a.Const(8, 16))))

	doubleNeg := a.Neg(a.Neg(x))
	require.NotEqual(t, InvalidID, doubleNeg) // no panic; double-negation is left for the rewrite engine
}

func TestWidthCanonicalization(t *testing.T) {
	a := New()
	// 300 mod 256 == 44
	require.Equal(t, uint64(44), a.ConstantValue(a.Const(300, 8)))
}

func TestZextTruncFold(t *testing.T) {
	a := New()
	c := a.Const(0xFF, 8)
	wide := a.Zext(c, 16)
	require.Equal(t, uint64(0xFF), a.ConstantValue(wide))
	require.Equal(t, uint8(16), a.Width(wide))

	narrow := a.Trunc(a.Const(0x1FF, 9), 8)
	require.Equal(t, uint64(0xFF), a.ConstantValue(narrow))
}

func TestSelectConstantCondition(t *testing.T) {
	a := New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	require.Equal(t, x, a.Select(a.Const(1, 1), x, y))
	require.Equal(t, y, a.Select(a.Const(0, 1), x, y))
}

func TestVariableOrdering(t *testing.T) {
	a := New()
	z := a.Sym("z", 8)
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	root := a.Add(a.Add(z, x), y)

	vars := a.Variables(root)
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = a.SymbolName(v)
	}
	require.Equal(t, []string{"x", "y", "z"}, names)
}

func TestClassification(t *testing.T) {
	a := New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)

	require.Equal(t, bits.Bitwise, a.Data(a.And(x, y)).Class)
	require.Equal(t, bits.BitwiseWithConstants, a.Data(a.And(x, a.Const(3, 8))).Class)
	require.Equal(t, bits.Linear, a.Data(a.Add(x, y)).Class)
	require.Equal(t, bits.Nonlinear, a.Data(a.Mul(x, y)).Class)
	require.True(t, a.Data(a.Mul(x, y)).HasPoly)
	require.False(t, a.Data(a.Mul(x, a.Const(5, 8))).HasPoly)
}

func TestPrettyPrint(t *testing.T) {
	a := New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	expr := a.Add(a.And(x, y), a.Const(1, 8))
	require.Equal(t, "(+ (& x:i8 y:i8) 1:i8)", a.String(expr))
}
