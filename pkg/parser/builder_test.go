package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
)

func parse(t *testing.T, src string) (*ast.Arena, ast.NodeId) {
	t.Helper()
	a := ast.New()
	id, err := ParseString(a, t.Name(), src)
	require.NoError(t, err)
	return a, id
}

func TestParseAddOfTwoSymbols(t *testing.T) {
	a, id := parse(t, "(+ x:i8 y:i8)")
	require.Equal(t, ast.TagAdd, a.Node(id).Tag)
	require.Equal(t, uint8(8), a.Width(id))
	require.Equal(t, "(+ x:i8 y:i8)", a.String(id))
}

func TestParseVariadicAddFoldsLeft(t *testing.T) {
	a, id := parse(t, "(+ x:i8 y:i8 z:i8)")
	require.Equal(t, ast.TagAdd, a.Node(id).Tag)
	// left fold: (x + y) + z
	left := a.Op0(id)
	require.Equal(t, ast.TagAdd, a.Node(left).Tag)
	require.Equal(t, "z", a.SymbolName(a.Op1(id)))
}

func TestParseIcmp(t *testing.T) {
	a, id := parse(t, "(icmp == a:i32 b:i32)")
	require.Equal(t, ast.TagIcmp, a.Node(id).Tag)
	require.Equal(t, uint64(bits.PredEq), a.Node(id).Payload)
}

func TestParseIcmpSignedPredicate(t *testing.T) {
	a, id := parse(t, "(icmp >=s a:i32 b:i32)")
	require.Equal(t, uint64(bits.PredSge), a.Node(id).Payload)
}

func TestParseZeroExtend(t *testing.T) {
	a, id := parse(t, "(zx x:i8 16:i8)")
	require.Equal(t, ast.TagZext, a.Node(id).Tag)
	require.Equal(t, uint8(16), a.TargetWidth(id))
	require.Equal(t, uint8(16), a.Width(id))
}

func TestParseTruncate(t *testing.T) {
	a, id := parse(t, "(tr x:i32 8:i8)")
	require.Equal(t, ast.TagTrunc, a.Node(id).Tag)
	require.Equal(t, uint8(8), a.TargetWidth(id))
}

func TestParseSelect(t *testing.T) {
	a, id := parse(t, "(select c:i1 a:i8 b:i8)")
	require.Equal(t, ast.TagSelect, a.Node(id).Tag)
	require.Equal(t, uint8(8), a.Width(id))
}

func TestParseNestedCalls(t *testing.T) {
	a, id := parse(t, "(~ (& x:i8 y:i8))")
	require.Equal(t, ast.TagNeg, a.Node(id).Tag)
	require.Equal(t, ast.TagAnd, a.Node(a.Op0(id)).Tag)
}

func TestParseConstantLeaf(t *testing.T) {
	a, id := parse(t, "(+ x:i8 1:i8)")
	const0 := a.Op1(id)
	require.Equal(t, ast.TagConst, a.Node(const0).Tag)
	require.Equal(t, uint64(1), a.ConstantValue(const0))
}

func TestBuildRejectsZxWithNonConstantWidth(t *testing.T) {
	a := ast.New()
	_, err := ParseString(a, t.Name(), "(zx x:i8 y:i8)")
	require.Error(t, err)
}

func TestBuildRejectsUnknownOperator(t *testing.T) {
	a := ast.New()
	_, err := ParseString(a, t.Name(), "(frob x:i8 y:i8)")
	require.Error(t, err)
}
