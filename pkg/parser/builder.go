package parser

import (
	"fmt"
	"strconv"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
)

var predNames = map[string]bits.Predicate{
	"==":  bits.PredEq,
	"!=":  bits.PredNe,
	">":   bits.PredUgt,
	">=":  bits.PredUge,
	"<":   bits.PredUlt,
	"<=":  bits.PredUle,
	">s":  bits.PredSgt,
	">=s": bits.PredSge,
	"<s":  bits.PredSlt,
	"<=s": bits.PredSle,
}

// Build converts a parsed Program into an ast.Arena node, interning
// symbols and constants as it goes (the surface syntax is the only
// place widths are spelled out textually; everywhere else they come
// from the arena's own canonicalization).
func Build(a *ast.Arena, prog *Program) (ast.NodeId, error) {
	return buildExpr(a, prog.Root)
}

func buildExpr(a *ast.Arena, e *Expr) (ast.NodeId, error) {
	switch {
	case e.Leaf != nil:
		return buildLeaf(a, e.Leaf)
	case e.Call != nil:
		return buildCall(a, e.Call)
	default:
		return ast.InvalidID, fmt.Errorf("parser: empty expression node")
	}
}

func buildLeaf(a *ast.Arena, leaf *Leaf) (ast.NodeId, error) {
	width, err := parseWidth(leaf.Width)
	if err != nil {
		return ast.InvalidID, err
	}
	if leaf.Int != nil {
		return a.Const(uint64(*leaf.Int), width), nil
	}
	return a.Sym(*leaf.Name, width), nil
}

func parseWidth(tok string) (uint8, error) {
	// tok is e.g. "i8"; strip the leading 'i'.
	n, err := strconv.Atoi(tok[1:])
	if err != nil {
		return 0, fmt.Errorf("parser: invalid width %q: %w", tok, err)
	}
	if n <= 0 || n > 64 {
		return 0, fmt.Errorf("parser: width %d out of range (1..64)", n)
	}
	return uint8(n), nil
}

func buildCall(a *ast.Arena, call *Call) (ast.NodeId, error) {
	args := make([]ast.NodeId, len(call.Args))
	for i, sub := range call.Args {
		id, err := buildExpr(a, sub)
		if err != nil {
			return ast.InvalidID, err
		}
		args[i] = id
	}

	switch call.Op {
	case "+":
		return foldBinary(a.Add, args, call.Op)
	case "*":
		return foldBinary(a.Mul, args, call.Op)
	case "&":
		return foldBinary(a.And, args, call.Op)
	case "|":
		return foldBinary(a.Or, args, call.Op)
	case "^":
		return foldBinary(a.Xor, args, call.Op)
	case "**":
		return exactlyTwo(args, call.Op, a.Pow)
	case ">>":
		return exactlyTwo(args, call.Op, a.Lshr)
	case "~":
		if len(args) != 1 {
			return ast.InvalidID, fmt.Errorf("parser: ~ takes exactly one operand, got %d", len(args))
		}
		return a.Neg(args[0]), nil
	case "zx", "tr":
		if len(args) != 2 {
			return ast.InvalidID, fmt.Errorf("parser: %s takes exactly two operands, got %d", call.Op, len(args))
		}
		newWidth, ok := a.ConstantValueOk(args[1])
		if !ok {
			return ast.InvalidID, fmt.Errorf("parser: %s's second operand must be a constant width", call.Op)
		}
		if call.Op == "zx" {
			return a.Zext(args[0], uint8(newWidth)), nil
		}
		return a.Trunc(args[0], uint8(newWidth)), nil
	case "icmp":
		if call.Pred == nil {
			return ast.InvalidID, fmt.Errorf("parser: icmp requires a predicate")
		}
		pred, ok := predNames[*call.Pred]
		if !ok {
			return ast.InvalidID, fmt.Errorf("parser: unknown icmp predicate %q", *call.Pred)
		}
		return exactlyTwo(args, "icmp", func(x, y ast.NodeId) ast.NodeId { return a.Icmp(pred, x, y) })
	case "select":
		if len(args) != 3 {
			return ast.InvalidID, fmt.Errorf("parser: select takes exactly three operands, got %d", len(args))
		}
		return a.Select(args[0], args[1], args[2]), nil
	default:
		return ast.InvalidID, fmt.Errorf("parser: unknown operator %q", call.Op)
	}
}

func exactlyTwo(args []ast.NodeId, op string, build func(x, y ast.NodeId) ast.NodeId) (ast.NodeId, error) {
	if len(args) != 2 {
		return ast.InvalidID, fmt.Errorf("parser: %s takes exactly two operands, got %d", op, len(args))
	}
	return build(args[0], args[1]), nil
}

// foldBinary left-folds a variadic commutative call (`(+ a b c)`) over
// the arena's binary builder, since pkg/ast's Tag set has no n-ary node.
func foldBinary(build func(x, y ast.NodeId) ast.NodeId, args []ast.NodeId, op string) (ast.NodeId, error) {
	if len(args) < 2 {
		return ast.InvalidID, fmt.Errorf("parser: %s takes at least two operands, got %d", op, len(args))
	}
	result := args[0]
	for _, a := range args[1:] {
		result = build(result, a)
	}
	return result, nil
}
