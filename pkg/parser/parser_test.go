package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
)

func TestParseStringUnterminatedCallReturnsError(t *testing.T) {
	a := ast.New()
	_, err := ParseString(a, "bad.expr", "(+ x:i8 y:i8")
	require.Error(t, err)
}

func TestParseStringGarbageTokenReturnsError(t *testing.T) {
	a := ast.New()
	_, err := ParseString(a, "bad.expr", "(+ x:i8 @@@)")
	require.Error(t, err)
}

func TestParseStringRoundTripsThroughArena(t *testing.T) {
	a := ast.New()
	id, err := ParseString(a, "ok.expr", "(* (+ a:i16 b:i16) 2:i16)")
	require.NoError(t, err)
	require.Equal(t, ast.TagMul, a.Node(id).Tag)
	require.Equal(t, uint8(16), a.Width(id))
}

func TestReportParseErrorDoesNotPanicOnNonParticipleError(t *testing.T) {
	require.NotPanics(t, func() {
		reportParseError("(+ x:i8 y:i8)", errPlain("boom"))
	})
}

type errPlain string

func (e errPlain) Error() string { return string(e) }

// TestStringReparsesToSamePrintedForm is spec.md §6's round-trip
// guarantee: ast.String's prefix S-expression output must be exactly
// what pkg/parser consumes back, for every node shape — so print then
// reparse then print again is a fixed point.
func TestStringReparsesToSamePrintedForm(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 16)
	y := a.Sym("y", 16)
	c := a.Neg(x)

	exprs := []ast.NodeId{
		a.Add(x, y),
		a.Mul(x, y),
		a.Pow(x, a.Const(3, 16)),
		a.And(x, y),
		a.Or(x, y),
		a.Xor(x, y),
		c,
		a.Lshr(x, a.Const(4, 16)),
		a.Zext(x, 32),
		a.Trunc(x, 8),
		a.Icmp(bits.PredSlt, x, y),
		a.Select(a.Icmp(bits.PredEq, x, y), x, y),
		a.Const(negativeOneAtWidth(16), 16),
	}

	for _, root := range exprs {
		printed := a.String(root)

		out := ast.New()
		reparsed, err := ParseString(out, "roundtrip", printed)
		require.NoError(t, err, "reparsing %q", printed)
		require.Equal(t, printed, out.String(reparsed), "print->parse->print mismatch for %q", printed)
	}
}

func negativeOneAtWidth(w uint8) uint64 {
	return (uint64(1) << w) - 1
}
