package jit

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
	"github.com/mazeworks-security/simplifier/pkg/interp"
)

// checkAgreement is P6: for every assignment over a small domain,
// Simulate(Compile(expr)) must equal pkg/interp.Eval(expr).
func checkAgreement(t *testing.T, a *ast.Arena, root ast.NodeId, vars []ast.NodeId) {
	t.Helper()
	prog := Compile(a, root, vars)
	width := a.Width(root)
	mask := bits.Mask(width)

	domain := []uint64{0, 1, 2, 3, 5, 255}
	var assign func(i int, env interp.Env, args []uint64)
	assign = func(i int, env interp.Env, args []uint64) {
		if i == len(vars) {
			want := interp.Eval(a, root, env) & mask
			got := Simulate(prog, args) & mask
			require.Equal(t, want, got, "mismatch for %v", args)
			return
		}
		name := a.SymbolName(vars[i])
		for _, v := range domain {
			env[name] = v
			args[i] = v
			assign(i+1, env, args)
		}
	}
	assign(0, interp.Env{}, make([]uint64, len(vars)))
}

func TestJITAgreesWithInterpAdd(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	root := a.Add(x, y)
	checkAgreement(t, a, root, []ast.NodeId{x, y})
}

func TestJITAgreesWithInterpMulAndXor(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	mul := a.Mul(x, y)
	root := a.Xor(mul, a.Neg(y))
	checkAgreement(t, a, root, []ast.NodeId{x, y})
}

func TestJITAgreesWithInterpAndOr(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	root := a.Or(a.And(x, y), a.And(a.Neg(x), a.Neg(y)))
	checkAgreement(t, a, root, []ast.NodeId{x, y})
}

func TestJITAgreesWithInterpTrunc(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 32)
	root := a.Trunc(x, 8)
	checkAgreement(t, a, root, []ast.NodeId{x})
}

func TestJITAgreesWithInterpZextAfterNeg(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	root := a.Zext(a.Neg(x), 16)
	checkAgreement(t, a, root, []ast.NodeId{x})
}

func TestJITAgreesWithInterpZextAfterAddAndMul(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	root := a.Zext(a.Mul(a.Add(x, y), y), 16)
	checkAgreement(t, a, root, []ast.NodeId{x, y})
}

func TestCompileSafeRejectsIcmp(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	root := a.Icmp(bits.PredEq, x, y)
	_, err := CompileSafe(a, root, []ast.NodeId{x, y})
	require.Error(t, err)
}

func TestCompileSafeRejectsUnboundVariable(t *testing.T) {
	a := ast.New()
	x := a.Sym("x", 8)
	y := a.Sym("y", 8)
	root := a.Add(x, y)
	_, err := CompileSafe(a, root, []ast.NodeId{x})
	require.Error(t, err)
}

func TestSimulateLoadConst(t *testing.T) {
	prog := []Instr{{Op: OpLoadConst, Imm: 42}}
	require.Equal(t, uint64(42), Simulate(prog, nil))
}
