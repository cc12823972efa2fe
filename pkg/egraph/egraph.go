// Package egraph implements the equality-saturation engine: a union-find
// of e-classes, each holding a set of structurally-equivalent e-nodes,
// grown by applying pkg/rules rewrite rules until no rule fires or a
// resource cap is hit, then collapsed back to a single best expression
// by DP minimum-cost extraction.
//
// The shape is grounded in the teacher's pkg/search: EGraph.Saturate
// plays the role of search.Run, the backoff Scheduler plays the role
// of pruner.ShouldPrune (cheaply rejecting unproductive work before it
// is paid for), and Extract's DP walk is the in-process analogue of
// search's "keep only the shortest verified replacement" discipline.
package egraph

import (
	"github.com/mazeworks-security/simplifier/pkg/ast"
	"github.com/mazeworks-security/simplifier/pkg/bits"
)

// ClassId identifies an e-class. It is stable until the next Rebuild,
// at which point Find must be used to resolve it to its canonical id.
type ClassId uint32

// ENode is an operator applied to e-classes rather than concrete nodes;
// two e-nodes are the hashcons key for congruence closure.
type ENode struct {
	Tag     ast.Tag
	Width   uint8
	Payload uint64
	Kids    [3]ClassId
	NumKids uint8
}

// EClass groups e-nodes known to be semantically equal, plus the
// joined analysis data shared by every member.
type EClass struct {
	Nodes []ENode
	Data  ClassData
	// Parents lists (enode, owning class) pairs referencing this class,
	// maintained for the upward-merging rebuild pass (congruence closure).
	Parents []parentRef
}

type parentRef struct {
	node  ENode
	class ClassId
}

// ClassData is the per-e-class analysis bundle, joined across every
// member node whenever the class grows.
type ClassData struct {
	Class bits.AstClass
	KB    bits.KnownBits
}

// EGraph is the union-find-backed e-graph.
type EGraph struct {
	parent  []ClassId
	classes map[ClassId]*EClass
	hashcon map[ENode]ClassId
	next    ClassId
	dirty   []ClassId // classes touched since the last Rebuild
}

// New creates an empty e-graph.
func New() *EGraph {
	return &EGraph{
		classes: make(map[ClassId]*EClass),
		hashcon: make(map[ENode]ClassId),
	}
}

func (g *EGraph) newClass() ClassId {
	id := g.next
	g.next++
	g.parent = append(g.parent, id)
	g.classes[id] = &EClass{}
	return id
}

// Find resolves id to its current canonical class, path-compressing.
func (g *EGraph) Find(id ClassId) ClassId {
	for g.parent[id] != id {
		g.parent[id] = g.parent[g.parent[id]]
		id = g.parent[id]
	}
	return id
}

func (g *EGraph) canon(n ENode) ENode {
	for i := 0; i < int(n.NumKids); i++ {
		n.Kids[i] = g.Find(n.Kids[i])
	}
	return n
}

// Add inserts (or finds) the e-class for the given e-node shape,
// canonicalizing its children first. This is the egraph equivalent of
// ast.Arena.intern: congruent nodes collapse to one class.
func (g *EGraph) Add(n ENode) ClassId {
	n = g.canon(n)
	if id, ok := g.hashcon[n]; ok {
		return g.Find(id)
	}
	id := g.newClass()
	g.classes[id].Nodes = append(g.classes[id].Nodes, n)
	g.classes[id].Data = leafData(n, g)
	g.hashcon[n] = id
	for i := 0; i < int(n.NumKids); i++ {
		kid := g.classes[n.Kids[i]]
		kid.Parents = append(kid.Parents, parentRef{node: n, class: id})
	}
	return id
}

func leafData(n ENode, g *EGraph) ClassData {
	switch n.Tag {
	case ast.TagConst:
		return ClassData{Class: bits.Bitwise, KB: bits.Constant(n.Payload, n.Width)}
	case ast.TagSym:
		return ClassData{Class: bits.Bitwise, KB: bits.Unknown(n.Width)}
	}
	childClasses := make([]bits.AstClass, n.NumKids)
	for i := range childClasses {
		childClasses[i] = g.classes[n.Kids[i]].Data.Class
	}
	return ClassData{Class: bits.JoinAll(childClasses...), KB: bits.Unknown(n.Width)}
}

// Union merges the e-classes of a and b, returning the surviving id.
// The joined class keeps the larger node set as host (union by size)
// and re-points the smaller class's hashcons/parent entries. The
// class-merge rule has two branches: if either side's KnownBits is
// already a constant, the merged class's KnownBits is exactly that
// constant (taken as is rather than ORed with the other side's facts)
// and a canonical Const leaf for that value is added and unioned into
// the class, so the extractor can fall back to a literal even when no
// syntactic rule ever produced one. Otherwise it is a plain join.
func (g *EGraph) Union(a, b ClassId) ClassId {
	a, b = g.Find(a), g.Find(b)
	if a == b {
		return a
	}
	ca, cb := g.classes[a], g.classes[b]
	if len(ca.Nodes) < len(cb.Nodes) {
		a, b = b, a
		ca, cb = cb, ca
	}
	g.parent[b] = a
	ca.Nodes = append(ca.Nodes, cb.Nodes...)
	ca.Parents = append(ca.Parents, cb.Parents...)

	joinedKB := ca.Data.KB.Union(cb.Data.KB)
	if cv, ok := ca.Data.KB.AsConstant(); ok {
		joinedKB = bits.Constant(cv, ca.Data.KB.Width)
	} else if cv, ok := cb.Data.KB.AsConstant(); ok {
		joinedKB = bits.Constant(cv, cb.Data.KB.Width)
	}
	ca.Data = ClassData{
		Class: bits.Join(ca.Data.Class, cb.Data.Class),
		KB:    joinedKB,
	}
	delete(g.classes, b)
	g.dirty = append(g.dirty, a)

	if cv, ok := joinedKB.AsConstant(); ok {
		g.materializeConstant(a, cv, joinedKB.Width)
		// materializeConstant's own Union(constID, a) is free to pick
		// either side as survivor (union-by-size), so a may now be the
		// absorbed class; re-resolve to the true canonical id.
		a = g.Find(a)
	}
	return a
}

// materializeConstant ensures class id actually contains a Const e-node
// for value, adding and unioning one in if it is missing. Called once a
// class's joined KnownBits prove it constant, so the fact known-bits
// analysis alone established becomes a real member the extractor can
// choose, not just metadata sitting beside the class's nodes.
func (g *EGraph) materializeConstant(id ClassId, value uint64, width uint8) {
	id = g.Find(id)
	constID := g.Add(ENode{Tag: ast.TagConst, Width: width, Payload: value})
	if constID != id {
		g.Union(constID, id)
	}
}

// Rebuild restores congruence: any two e-nodes in the hashcons table
// that became equal after a Union (because their children's classes
// merged) are unioned in turn, repeated to a fixed point. This mirrors
// egg's deferred-rebuild discipline: rule application proposes unions
// without paying for incremental congruence, and Rebuild settles the
// whole batch at once.
func (g *EGraph) Rebuild() {
	for len(g.dirty) > 0 {
		todo := g.dirty
		g.dirty = nil
		seen := make(map[ClassId]bool)
		for _, id := range todo {
			c := g.Find(id)
			if seen[c] {
				continue
			}
			seen[c] = true
			g.repairClass(c)
		}
	}
}

func (g *EGraph) repairClass(id ClassId) {
	cls := g.classes[g.Find(id)]
	if cls == nil {
		return
	}
	newHash := make(map[ENode]ClassId, len(cls.Parents))
	for _, p := range cls.Parents {
		n := g.canon(p.node)
		pc := g.Find(p.class)
		if existing, ok := newHash[n]; ok {
			if existing != pc {
				g.Union(existing, pc)
			}
		} else {
			newHash[n] = pc
		}
		delete(g.hashcon, p.node)
		g.hashcon[n] = g.Find(pc)
	}
}

// Classes returns every live (canonical) class id.
func (g *EGraph) Classes() []ClassId {
	out := make([]ClassId, 0, len(g.classes))
	for id := range g.classes {
		out = append(out, id)
	}
	return out
}

// Class returns the EClass record for a canonical id.
func (g *EGraph) Class(id ClassId) *EClass { return g.classes[g.Find(id)] }

// Size returns the number of live e-classes, the resource the
// saturation node cap is measured against.
func (g *EGraph) Size() int { return len(g.classes) }
