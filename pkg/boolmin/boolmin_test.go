package boolmin

import (
	"encoding/binary"
	"testing"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/interp"
	"github.com/mazeworks-security/simplifier/pkg/ttdb"
	"github.com/stretchr/testify/require"
)

// buildSymbolBankAt hand-assembles a 1-record bank (per spec.md §6's
// wire format, tag=2 for a bare symbol) whose single record lives at
// truth-table index idx, encoding "var 0 alone" — a degenerate but
// always cost-1 entry, used to deterministically test that
// minimizeSmall prefers a cheaper database entry over its own
// ANF/factoring result regardless of what that result happens to be.
func buildSymbolBankAt(idx int) []byte {
	headerBytes := 8 * (idx + 1)
	buf := make([]byte, headerBytes)

	contentOffset := len(buf)
	buf = append(buf, 2, 0, 0, 0, 0) // tag=2 (symbol), var_index=0

	binary.LittleEndian.PutUint32(buf[8*idx:], uint32(contentOffset))
	binary.LittleEndian.PutUint32(buf[8*idx+4:], 1) // cost
	return buf
}

func requireSameTruthTable(t *testing.T, a *ast.Arena, orig ast.NodeId, out *ast.Arena, simplified ast.NodeId, names []string) {
	t.Helper()
	n := len(names)
	for i := 0; i < (1 << uint(n)); i++ {
		env1 := make(interp.Env, n)
		env2 := make(interp.Env, n)
		for j, name := range names {
			bit := uint64((i >> uint(j)) & 1)
			env1[name] = bit
			env2[name] = bit
		}
		require.Equal(t, interp.Eval(a, orig, env1), interp.Eval(out, simplified, env2), "mismatch at assignment %d", i)
	}
}

func TestMinimizeXorOfAndOrPreservesTruthTable(t *testing.T) {
	// (a & b) ^ (a | b) has the same truth table as a ^ b; this checks
	// the truth table by round trip rather than asserting a specific shape.
	a := ast.New()
	x := a.Sym("x", 1)
	y := a.Sym("y", 1)
	expr := a.Xor(a.And(x, y), a.Or(x, y))

	out := ast.New()
	simplified := Minimize(out, a, expr, []ast.NodeId{x, y}, nil, nil)
	requireSameTruthTable(t, a, expr, out, simplified, []string{"x", "y"})
}

func TestMinimizeConstantTrue(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 1)
	expr := a.Or(x, a.Neg(x)) // always 1

	out := ast.New()
	simplified := Minimize(out, a, expr, []ast.NodeId{x}, nil, nil)
	requireSameTruthTable(t, a, expr, out, simplified, []string{"x"})
}

func TestMinimizeFiveVariablesDecomposes(t *testing.T) {
	a := ast.New()
	vars := make([]ast.NodeId, 5)
	names := []string{"v0", "v1", "v2", "v3", "v4"}
	for i, name := range names {
		vars[i] = a.Sym(name, 1)
	}
	expr := vars[0]
	for i := 1; i < 5; i++ {
		expr = a.Xor(expr, vars[i])
	}

	out := ast.New()
	simplified := Minimize(out, a, expr, vars, nil, nil)
	requireSameTruthTable(t, a, expr, out, simplified, names)
}

func TestExtractANFSingleVar(t *testing.T) {
	// f(x) = x: table bit0=0 (x=0 -> 0), bit1=1 (x=1 -> 1)
	terms := extractANF(0b10, 1)
	require.Equal(t, []term{1}, terms)
}

func TestExtractANFConstantOne(t *testing.T) {
	terms := extractANF(0b11, 1)
	require.Equal(t, []term{0}, terms)
}

func TestMinimizeSmallPrefersCheaperBankEntry(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 1)
	y := a.Sym("y", 1)
	z := a.Sym("z", 1)
	// (x&y) ^ (y&z) ^ (x&z): its own ANF/factoring result is several
	// nodes deep (cost > 1), so a loaded bank entry of cost 1 must win.
	expr := a.Xor(a.Xor(a.And(x, y), a.And(y, z)), a.And(x, z))
	vars := []ast.NodeId{x, y, z}

	table := buildTruthTable(a, expr, vars, JITEvaluator)

	outNoBank := ast.New()
	withoutBank := minimizeSmall(outNoBank, a, vars, table, nil)
	require.NotEqual(t, ast.TagSym, outNoBank.Node(withoutBank).Tag, "sanity: the unpatched result isn't already a bare symbol")

	out := ast.New()
	banks := Banks{3: ttdb.New(3, buildSymbolBankAt(int(table)))}
	withBank := minimizeSmall(out, a, vars, table, banks)
	require.Equal(t, ast.TagSym, out.Node(withBank).Tag)
	require.Equal(t, "x", out.SymbolName(withBank))
}

func TestMinimizeSmallIgnoresBankWithNoMatchingArity(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 1)
	y := a.Sym("y", 1)
	expr := a.Xor(a.And(x, y), a.Or(x, y))
	vars := []ast.NodeId{x, y}
	table := buildTruthTable(a, expr, vars, JITEvaluator)

	out := ast.New()
	banks := Banks{4: ttdb.New(4, buildSymbolBankAt(int(table)))} // wrong arity, never consulted
	result := minimizeSmall(out, a, vars, table, banks)
	require.NotEqual(t, ast.TagSym, out.Node(result).Tag)
}
