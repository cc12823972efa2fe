package egraph

import (
	"math"

	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
)

// CostFn scores a node shape given its already-extracted children's
// costs: a base per-opcode charge, a class-shape penalty, and a
// known-bits term that rewards forms analysis has proven more about,
// styled like the teacher's additive stoke.Cost (a sum of penalty
// terms) rather than a single opaque number, so individual terms stay
// inspectable.
type CostFn func(tag ast.Tag, class bits.AstClass, kb bits.KnownBits, childCosts []uint32) uint32

// opBaseCost is the per-opcode base charge: plain bitwise ops and
// leaves are cheapest, arithmetic and width conversions cost a bit
// more, shifts cost more still, and icmp, pow and select (in that
// order) cost the most.
func opBaseCost(tag ast.Tag) uint32 {
	switch tag {
	case ast.TagConst, ast.TagSym, ast.TagAnd, ast.TagOr, ast.TagXor, ast.TagNeg:
		return 1
	case ast.TagAdd, ast.TagMul, ast.TagZext, ast.TagTrunc:
		return 2
	case ast.TagLshr:
		return 3
	case ast.TagIcmp:
		return 4
	case ast.TagPow:
		return 5
	case ast.TagSelect:
		return 6
	}
	return 1
}

// satAddCost saturates at math.MaxUint32 instead of wrapping.
func satAddCost(a, b uint32) uint32 {
	next := a + b
	if next < a {
		return math.MaxUint32
	}
	return next
}

// DefaultCostFn favors fewer, more "bitwise" nodes with more bits known:
// a per-opcode base charge plus a class-shape penalty plus a term
// rewarding known bits. Its weighting is its own and differs from
// ast.computeCost's.
func DefaultCostFn(tag ast.Tag, class bits.AstClass, kb bits.KnownBits, childCosts []uint32) uint32 {
	sum := opBaseCost(tag)
	for _, c := range childCosts {
		sum = satAddCost(sum, c)
	}
	switch class {
	case bits.Nonlinear:
		sum = satAddCost(sum, 10)
	case bits.Semilinear:
		sum = satAddCost(sum, 1)
	}
	sum = satAddCost(sum, uint32(64-kb.NumKnownBits()))
	return sum
}

type extractEntry struct {
	cost uint32
	node ENode
	has  bool
}

// Extract performs DP minimum-cost extraction over the whole e-graph:
// for every class, the cheapest representative node is chosen bottom-up
// by repeated relaxation until costs stop improving (sound even in the
// presence of cross-class cycles introduced by rewriting, since cost is
// always >= 1 per node). src is the Arena the e-graph was originally
// built from (via FromAST); it is consulted only to resolve symbol
// names for TagSym payloads.
func Extract(g *EGraph, root ClassId, costFn CostFn, src *ast.Arena) (*ast.Arena, ast.NodeId) {
	best := make(map[ClassId]extractEntry)
	for _, id := range g.Classes() {
		best[id] = extractEntry{cost: math.MaxUint32}
	}

	changed := true
	for changed {
		changed = false
		for _, id := range g.Classes() {
			cls := g.classes[id]
			cur := best[id]
			for _, n := range cls.Nodes {
				ready := true
				childCosts := make([]uint32, n.NumKids)
				for i := 0; i < int(n.NumKids); i++ {
					ce, ok := best[g.Find(n.Kids[i])]
					if !ok || !ce.has {
						ready = false
						break
					}
					childCosts[i] = ce.cost
				}
				if !ready {
					continue
				}
				data := g.Class(g.Find(id)).Data
				c := costFn(n.Tag, data.Class, data.KB, childCosts)
				if !cur.has || c < cur.cost {
					cur = extractEntry{cost: c, node: n, has: true}
					changed = true
				}
			}
			best[id] = cur
		}
	}

	a := ast.New()
	memo := make(map[ClassId]ast.NodeId)
	var build func(ClassId) ast.NodeId
	build = func(id ClassId) ast.NodeId {
		id = g.Find(id)
		if nid, ok := memo[id]; ok {
			return nid
		}
		e := best[id]
		n := e.node
		kids := make([]ast.NodeId, n.NumKids)
		for i := range kids {
			kids[i] = build(n.Kids[i])
		}
		nid := buildNode(a, n, kids, src)
		memo[id] = nid
		return nid
	}
	return a, build(root)
}

func buildNode(a *ast.Arena, n ENode, kids []ast.NodeId, src *ast.Arena) ast.NodeId {
	switch n.Tag {
	case ast.TagConst:
		return a.Const(n.Payload, n.Width)
	case ast.TagSym:
		return a.Sym(src.SymbolNameByID(uint32(n.Payload)), n.Width)
	case ast.TagAdd:
		return a.Add(kids[0], kids[1])
	case ast.TagMul:
		return a.Mul(kids[0], kids[1])
	case ast.TagPow:
		return a.Pow(kids[0], kids[1])
	case ast.TagAnd:
		return a.And(kids[0], kids[1])
	case ast.TagOr:
		return a.Or(kids[0], kids[1])
	case ast.TagXor:
		return a.Xor(kids[0], kids[1])
	case ast.TagNeg:
		return a.Neg(kids[0])
	case ast.TagLshr:
		return a.Lshr(kids[0], kids[1])
	case ast.TagZext:
		return a.Zext(kids[0], uint8(n.Payload))
	case ast.TagTrunc:
		return a.Trunc(kids[0], uint8(n.Payload))
	case ast.TagIcmp:
		return a.Icmp(bits.Predicate(n.Payload), kids[0], kids[1])
	case ast.TagSelect:
		return a.Select(kids[0], kids[1], kids[2])
	}
	panic("egraph: unsupported tag in extraction")
}
