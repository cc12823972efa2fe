package asmtest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mazeworks-security/simplifier/pkg/jit"
)

func addProgram() []jit.Instr {
	return []jit.Instr{
		{Op: jit.OpLoadVar, Imm: 0},
		{Op: jit.OpLoadVar, Imm: 1},
		{Op: jit.OpAdd},
	}
}

func TestFastEncoderDecodesCleanly(t *testing.T) {
	code := jit.NewFastEncoder().Assemble(addProgram(), jit.Helpers{})
	lines, err := Decoded(code)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
	require.True(t, strings.HasPrefix(lines[len(lines)-1], "ret"))
}

func TestFastEncoderDecodesBitwiseChain(t *testing.T) {
	prog := []jit.Instr{
		{Op: jit.OpLoadVar, Imm: 0},
		{Op: jit.OpLoadVar, Imm: 1},
		{Op: jit.OpAnd},
		{Op: jit.OpLoadVar, Imm: 0},
		{Op: jit.OpNot},
		{Op: jit.OpOr},
		{Op: jit.OpTrunc, Width: 8},
	}
	code := jit.NewFastEncoder().Assemble(prog, jit.Helpers{})
	lines, err := Decoded(code)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
}

func TestFastEncoderDecodesMulAndShift(t *testing.T) {
	prog := []jit.Instr{
		{Op: jit.OpLoadVar, Imm: 0},
		{Op: jit.OpLoadConst, Imm: 3},
		{Op: jit.OpMul},
		{Op: jit.OpLoadConst, Imm: 1},
		{Op: jit.OpShr, Width: 64},
	}
	code := jit.NewFastEncoder().Assemble(prog, jit.Helpers{})
	lines, err := Decoded(code)
	require.NoError(t, err)
	require.NotEmpty(t, lines)
}
