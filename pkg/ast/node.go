// Package ast implements the hash-consed expression DAG described in
// spec.md §3 and §4.1: a single append-only Arena of Node records, each
// carrying the analysis metadata (width, cost, hasPoly, class, knownBits)
// required before its NodeId becomes observable.
//
// The shape mirrors the teacher's pkg/inst: a compact tag
// (ast.Tag, like inst.OpCode) plus a flat per-tag metadata table
// (opInfo, like inst.Catalog), with builders standing in for the
// teacher's instruction constructors.
package ast

import "github.com/mazeworks-security/simplifier/pkg/bits"

// Tag is the node shape discriminator (spec.md §3.1).
type Tag uint8

const (
	TagConst Tag = iota
	TagSym
	TagAdd
	TagMul
	TagPow
	TagAnd
	TagOr
	TagXor
	TagNeg
	TagLshr
	TagZext
	TagTrunc
	TagIcmp
	TagSelect
	tagCount
)

var tagNames = [...]string{
	"const", "sym", "+", "*", "**", "&", "|", "^", "~", ">>", "zx", "tr", "icmp", "select",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return "?"
}

// opInfo is the static per-tag metadata table, the ast analogue of the
// teacher's `Catalog [OpCodeCount]Info` in pkg/inst/catalog.go.
type opInfo struct {
	arity   int
	baseCost uint32
}

var catalog = [tagCount]opInfo{
	TagConst:  {0, 1},
	TagSym:    {0, 1},
	TagAdd:    {2, 1},
	TagMul:    {2, 1},
	TagPow:    {2, 3},
	TagAnd:    {2, 1},
	TagOr:     {2, 1},
	TagXor:    {2, 1},
	TagNeg:    {1, 1},
	TagLshr:   {2, 3},
	TagZext:   {1, 1},
	TagTrunc:  {1, 1},
	TagIcmp:   {2, 4},
	TagSelect: {3, 4},
}

// NodeId is a shared, weak-lifetime handle into the Arena (spec.md §3.3).
type NodeId uint32

// InvalidID marks the absence of a node, e.g. an unused child slot.
const InvalidID NodeId = ^NodeId(0)

// Node is the structural (tag, children, payload) key; (I1) no two
// distinct ids may share an equal Node value.
type Node struct {
	Tag      Tag
	Width    uint8
	NumKids  uint8
	Kids     [3]NodeId
	// Payload holds the constant value (TagConst), the symbol id
	// (TagSym), the icmp predicate (TagIcmp), or the target width
	// (TagZext/TagTrunc).
	Payload uint64
}

// Data is the per-node analysis bundle computed once at construction
// (I3): width is folded into Node itself, the rest lives here.
type Data struct {
	Cost     uint32
	HasPoly  bool
	Class    bits.AstClass
	KB       bits.KnownBits
	// ImutData is the single mutable scratch slot (spec.md §6/§9) shared
	// by whichever algorithm currently owns it (e.g. the JIT's per-node
	// use counter). Exactly one algorithm may use it at a time; callers
	// clear it when done.
	ImutData uint64
}
