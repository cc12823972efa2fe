package ast

import (
	"sort"

	"github.com/mazeworks-security/simplifier/internal/simplifyerr"
)

// symbolRecord is the entry in the parallel symbolId -> (name, width)
// vector (spec.md §4.1 "Symbol table").
type symbolRecord struct {
	Name  string
	Width uint8
}

// Arena owns every expression node ever constructed (spec.md §3.3). It is
// append-only; the only way to release storage is Clear, which drops
// everything in O(arena size).
type Arena struct {
	nodes []Node
	data  []Data
	byKey map[Node]NodeId

	symbols   []symbolRecord
	symbolIdx map[symKey]uint32
}

type symKey struct {
	name  string
	width uint8
}

// New creates an empty Arena.
func New() *Arena {
	return &Arena{
		byKey:     make(map[Node]NodeId, 1024),
		symbolIdx: make(map[symKey]uint32, 64),
	}
}

// Clear releases all nodes and symbols, matching the teacher's
// "clear()"-style context reset (spec.md §5).
func (a *Arena) Clear() {
	a.nodes = a.nodes[:0]
	a.data = a.data[:0]
	for k := range a.byKey {
		delete(a.byKey, k)
	}
	a.symbols = a.symbols[:0]
	for k := range a.symbolIdx {
		delete(a.symbolIdx, k)
	}
}

// Size returns the number of distinct nodes currently interned.
func (a *Arena) Size() int { return len(a.nodes) }

// Node returns the structural record for id.
func (a *Arena) Node(id NodeId) Node { return a.nodes[id] }

// Data returns the analysis bundle for id.
func (a *Arena) Data(id NodeId) *Data { return &a.data[id] }

// Width is a convenience accessor.
func (a *Arena) Width(id NodeId) uint8 { return a.nodes[id].Width }

// SymbolName returns the name bound to a TagSym node.
func (a *Arena) SymbolName(id NodeId) string {
	n := a.nodes[id]
	if n.Tag != TagSym {
		panic("ast: SymbolName on non-symbol node")
	}
	return a.symbols[n.Payload].Name
}

// SymbolNameByID resolves a raw symbol id (as stored in a TagSym
// node's Payload) to its name, without requiring a NodeId. Used by
// pkg/egraph extraction, which carries symbol ids across into a fresh
// Arena that has never seen the originating NodeId.
func (a *Arena) SymbolNameByID(symID uint32) string {
	return a.symbols[symID].Name
}

// intern looks up or inserts n, computing its Data via fill before first
// insertion. fill is only invoked on the cold path (I3: analyses are
// computed before the id becomes observable).
func (a *Arena) intern(n Node, fill func() Data) NodeId {
	if id, ok := a.byKey[n]; ok {
		return id
	}
	id := NodeId(len(a.nodes))
	a.nodes = append(a.nodes, n)
	a.data = append(a.data, fill())
	a.byKey[n] = id
	return id
}

func (a *Arena) childData(kids ...NodeId) []*Data {
	out := make([]*Data, len(kids))
	for i, k := range kids {
		out[i] = &a.data[k]
	}
	return out
}

func satAdd(a, b uint32) uint32 {
	s := a + b
	if s < a {
		return ^uint32(0)
	}
	return s
}

// checkWidth enforces I2: all children of a binary operator share the
// parent's width.
func (a *Arena) checkWidth(w uint8, kids ...NodeId) {
	for _, k := range kids {
		if a.nodes[k].Width != w {
			simplifyerr.Raise(simplifyerr.CodeWidthMismatch, "ast: width mismatch: child has width %d, expected %d", a.nodes[k].Width, w)
		}
	}
}

func (a *Arena) isConst(id NodeId) (uint64, bool) {
	n := a.nodes[id]
	if n.Tag == TagConst {
		return n.Payload, true
	}
	return 0, false
}

// ConstantValueOk is the non-panicking counterpart to ConstantValue,
// used by callers (e.g. pkg/parser's zx/tr width operand) that don't
// already know the node is a constant.
func (a *Arena) ConstantValueOk(id NodeId) (uint64, bool) {
	return a.isConst(id)
}

// Symbol returns (or creates) the stable symbolId for (name, width),
// deduplicating through the separate symbol table (I6).
func (a *Arena) Symbol(name string, width uint8) uint32 {
	key := symKey{name, width}
	if id, ok := a.symbolIdx[key]; ok {
		return id
	}
	id := uint32(len(a.symbols))
	a.symbols = append(a.symbols, symbolRecord{Name: name, Width: width})
	a.symbolIdx[key] = id
	return id
}

// Variables performs the DFS variable collection from spec.md §4.1:
// returns the unique set of symbol nodes under root, stably sorted by
// name (the canonical variable ordering used by truth-vector
// construction).
func (a *Arena) Variables(root NodeId) []NodeId {
	seen := make(map[NodeId]bool)
	var out []NodeId
	var visit func(NodeId)
	visit = func(id NodeId) {
		if seen[id] {
			return
		}
		seen[id] = true
		n := a.nodes[id]
		if n.Tag == TagSym {
			out = append(out, id)
			return
		}
		for i := 0; i < int(n.NumKids); i++ {
			visit(n.Kids[i])
		}
	}
	visit(root)
	sort.SliceStable(out, func(i, j int) bool {
		return a.SymbolName(out[i]) < a.SymbolName(out[j])
	})
	return out
}
