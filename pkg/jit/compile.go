package jit

import (
	"fmt"

	"github.com/mazeworks-security/simplifier/internal/simplifyerr"
	"github.com/mazeworks-security/simplifier/pkg/ast"
)

// Compile lowers expr into a postfix instruction stream over vars (in
// the order their values will be supplied at call time: argument i
// reads ast.Arena variable vars[i]). Icmp and Select have no lowering
// yet (spec.md §4.5 scopes the JIT to the arithmetic/bitwise core);
// encountering one is a contract violation from the caller's
// perspective — it should have routed that subtree through pkg/interp
// instead — so it raises simplifyerr.CodeJITUnsupportedTag rather than
// returning an ordinary error. CompileSafe recovers that panic for
// callers that want a plain error.
func Compile(a *ast.Arena, expr ast.NodeId, vars []ast.NodeId) []Instr {
	index := make(map[ast.NodeId]int, len(vars))
	for i, v := range vars {
		index[v] = i
	}
	var prog []Instr
	var walk func(ast.NodeId)
	walk = func(id ast.NodeId) {
		n := a.Node(id)
		switch n.Tag {
		case ast.TagConst:
			prog = append(prog, Instr{Op: OpLoadConst, Imm: a.ConstantValue(id)})
		case ast.TagSym:
			i, ok := index[id]
			if !ok {
				simplifyerr.Raise(simplifyerr.CodeUnboundVariable, "jit: symbol %q not in vars", a.SymbolName(id))
			}
			prog = append(prog, Instr{Op: OpLoadVar, Imm: uint64(i)})
		case ast.TagAdd:
			walk(a.Op0(id))
			walk(a.Op1(id))
			prog = append(prog, Instr{Op: OpAdd, Width: n.Width})
		case ast.TagMul:
			walk(a.Op0(id))
			walk(a.Op1(id))
			prog = append(prog, Instr{Op: OpMul, Width: n.Width})
		case ast.TagAnd:
			walk(a.Op0(id))
			walk(a.Op1(id))
			prog = append(prog, Instr{Op: OpAnd})
		case ast.TagOr:
			walk(a.Op0(id))
			walk(a.Op1(id))
			prog = append(prog, Instr{Op: OpOr})
		case ast.TagXor:
			walk(a.Op0(id))
			walk(a.Op1(id))
			prog = append(prog, Instr{Op: OpXor})
		case ast.TagNeg:
			walk(a.Op0(id))
			prog = append(prog, Instr{Op: OpNot, Width: n.Width})
		case ast.TagLshr:
			walk(a.Op0(id))
			walk(a.Op1(id))
			prog = append(prog, Instr{Op: OpShr, Width: n.Width})
		case ast.TagPow:
			walk(a.Op0(id))
			walk(a.Op1(id))
			prog = append(prog, Instr{Op: OpPow, Width: n.Width})
		case ast.TagZext:
			walk(a.Op0(id))
			prog = append(prog, Instr{Op: OpZext, Width: a.TargetWidth(id)})
		case ast.TagTrunc:
			walk(a.Op0(id))
			prog = append(prog, Instr{Op: OpTrunc, Width: a.TargetWidth(id)})
		default:
			simplifyerr.Raise(simplifyerr.CodeJITUnsupportedTag, "jit: %s has no lowering", n.Tag)
		}
	}
	walk(expr)
	return prog
}

// CompileSafe recovers Compile's panic into an ordinary error, for
// callers (pkg/boolmin's JITEvaluator) that decide per-expression
// whether to fall back to pkg/interp instead of aborting the run.
func CompileSafe(a *ast.Arena, expr ast.NodeId, vars []ast.NodeId) (prog []Instr, err error) {
	defer func() {
		if r := recover(); r != nil {
			if f, ok := r.(*simplifyerr.Fatal); ok {
				err = fmt.Errorf("jit: %w", f)
				return
			}
			panic(r)
		}
	}()
	prog = Compile(a, expr, vars)
	return prog, nil
}
