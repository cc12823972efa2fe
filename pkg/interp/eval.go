// Package interp implements a tree-walking evaluator over pkg/ast
// expressions, the reference oracle for the soundness checks in
// spec.md §4 (P4, P6). It mirrors the teacher's pkg/cpu/exec.go: one
// switch over the node tag, no caching, deliberately simple so it can
// be trusted as ground truth.
package interp

import (
	"fmt"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
)

// Env maps a variable name to its concrete value for one evaluation.
type Env map[string]uint64

// Eval evaluates id against env, returning a value masked to the
// node's width. Panics on an unbound variable or unsupported tag,
// mirroring the teacher's "fatal on illegal instruction" stance: a
// malformed tree is a programming error, not a recoverable condition.
func Eval(a *ast.Arena, id ast.NodeId, env Env) uint64 {
	n := a.Node(id)
	w := n.Width
	m := bits.Mask(w)
	switch n.Tag {
	case ast.TagConst:
		return a.ConstantValue(id) & m
	case ast.TagSym:
		name := a.SymbolName(id)
		v, ok := env[name]
		if !ok {
			panic(fmt.Sprintf("interp: unbound variable %q", name))
		}
		return v & m
	case ast.TagAdd:
		return (Eval(a, a.Op0(id), env) + Eval(a, a.Op1(id), env)) & m
	case ast.TagMul:
		return (Eval(a, a.Op0(id), env) * Eval(a, a.Op1(id), env)) & m
	case ast.TagPow:
		return powMod(Eval(a, a.Op0(id), env), Eval(a, a.Op1(id), env), w)
	case ast.TagAnd:
		return Eval(a, a.Op0(id), env) & Eval(a, a.Op1(id), env) & m
	case ast.TagOr:
		return (Eval(a, a.Op0(id), env) | Eval(a, a.Op1(id), env)) & m
	case ast.TagXor:
		return (Eval(a, a.Op0(id), env) ^ Eval(a, a.Op1(id), env)) & m
	case ast.TagNeg:
		return (^Eval(a, a.Op0(id), env)) & m
	case ast.TagLshr:
		shift := Eval(a, a.Op1(id), env)
		if shift >= uint64(w) {
			return 0
		}
		return (Eval(a, a.Op0(id), env) >> shift) & m
	case ast.TagZext, ast.TagTrunc:
		return Eval(a, a.Op0(id), env) & m
	case ast.TagIcmp:
		return evalIcmp(a.Predicate(id), Eval(a, a.Op0(id), env), Eval(a, a.Op1(id), env), a.Width(a.Op0(id)))
	case ast.TagSelect:
		if Eval(a, a.Op0(id), env) != 0 {
			return Eval(a, a.Op1(id), env) & m
		}
		return Eval(a, a.Op2(id), env) & m
	}
	panic(fmt.Sprintf("interp: unsupported tag %v", n.Tag))
}

func powMod(base, exp uint64, w uint8) uint64 {
	m := bits.Mask(w)
	result := uint64(1) & m
	base &= m
	for exp > 0 {
		if exp&1 == 1 {
			result = (result * base) & m
		}
		base = (base * base) & m
		exp >>= 1
	}
	return result
}

func evalIcmp(pred bits.Predicate, x, y uint64, w uint8) uint64 {
	sx, sy := signExtend(x, w), signExtend(y, w)
	var ok bool
	switch pred {
	case bits.PredEq:
		ok = x == y
	case bits.PredNe:
		ok = x != y
	case bits.PredUgt:
		ok = x > y
	case bits.PredUge:
		ok = x >= y
	case bits.PredUlt:
		ok = x < y
	case bits.PredUle:
		ok = x <= y
	case bits.PredSgt:
		ok = sx > sy
	case bits.PredSge:
		ok = sx >= sy
	case bits.PredSlt:
		ok = sx < sy
	case bits.PredSle:
		ok = sx <= sy
	}
	if ok {
		return 1
	}
	return 0
}

func signExtend(v uint64, w uint8) int64 {
	if w >= 64 {
		return int64(v)
	}
	signBit := uint64(1) << (w - 1)
	if v&signBit != 0 {
		return int64(v | (^uint64(0) << w))
	}
	return int64(v)
}
