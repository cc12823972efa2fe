// Package ttdb reads the precomputed Boolean truth-table database used
// by pkg/boolmin's small-table lookup, in a fixed binary layout: a flat
// array of (u32 fileOffset, u32 cost) record headers, one per
// truth-table index, followed by a pool of post-order tag-encoded
// Boolean trees referenced by those offsets.
//
// Grounded on original_source/EqSat/src/truth_table_database.rs's
// decode_u32/parse_binary_boolean_func, ported from raw-pointer Rust to
// a bounds-checked []byte reader; the packed-record idiom (read a
// header, then follow an offset into a shared byte pool) mirrors the
// teacher's pkg/gpu/cuda.go binary.Write/Read subprocess protocol.
package ttdb

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/mazeworks-security/simplifier/pkg/ast"
)

// Opcode tags used inside the encoded Boolean-tree pool.
const (
	opSymbol = 2
	opAnd    = 8
	opOr     = 9
	opXor    = 10
	opNeg    = 11
)

// Table holds one fixed-arity (2, 3, or 4 variable) truth-table bank.
type Table struct {
	NumVars int
	bytes   []byte
}

// Load reads a table bank from disk. The file is the raw byte dump
// Self::get_file_as_byte_vec wrote in the original tool: record headers
// at the front, tree pool after.
func Load(path string, numVars int) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ttdb: load %q: %w", path, err)
	}
	return &Table{NumVars: numVars, bytes: data}, nil
}

// New wraps an already-loaded byte buffer, e.g. an embedded table.
func New(numVars int, data []byte) *Table {
	return &Table{NumVars: numVars, bytes: data}
}

func decodeU32(b []byte, offset int) uint32 {
	return binary.LittleEndian.Uint32(b[offset : offset+4])
}

// Cost returns the precomputed extraction cost stored in record idx's
// header, without decoding the tree itself.
func (t *Table) Cost(idx int) (uint32, error) {
	headerOffset := 8*idx + 4
	if headerOffset+4 > len(t.bytes) {
		return 0, fmt.Errorf("ttdb: record %d header out of range", idx)
	}
	return decodeU32(t.bytes, headerOffset), nil
}

// BoolExpr is a minimal Boolean-tree node decoded from the table pool:
// Sym references a variable slot by index (0-based, matching the
// caller's variable ordering); And/Or/Xor/Neg mirror the AST's bitwise
// operators directly since every function in this database is a pure
// Boolean circuit over a handful of variables.
type BoolExpr struct {
	Op       int // opSymbol, opAnd, opOr, opXor, opNeg
	VarIndex int
	A, B     *BoolExpr
}

// Decode looks up record idx's tree-pool offset from its header and
// parses the post-order-tagged tree rooted there.
func (t *Table) Decode(idx int) (*BoolExpr, error) {
	headerOffset := 8 * idx
	if headerOffset+8 > len(t.bytes) {
		return nil, fmt.Errorf("ttdb: record %d header out of range", idx)
	}
	rootOffset := int(decodeU32(t.bytes, headerOffset))
	return t.parse(rootOffset)
}

func (t *Table) parse(start int) (*BoolExpr, error) {
	if start >= len(t.bytes) {
		return nil, fmt.Errorf("ttdb: node offset %d out of range", start)
	}
	opcode := int(t.bytes[start])
	offset := start + 4 // the header reserves a 4-byte-aligned opcode slot

	switch opcode {
	case opSymbol:
		if offset >= len(t.bytes) {
			return nil, fmt.Errorf("ttdb: symbol index out of range at %d", offset)
		}
		return &BoolExpr{Op: opSymbol, VarIndex: int(t.bytes[offset])}, nil

	case opAnd, opOr, opXor:
		aOffset := int(decodeU32(t.bytes, offset))
		offset += 4
		bOffset := int(decodeU32(t.bytes, offset))
		a, err := t.parse(aOffset)
		if err != nil {
			return nil, err
		}
		b, err := t.parse(bOffset)
		if err != nil {
			return nil, err
		}
		return &BoolExpr{Op: opcode, A: a, B: b}, nil

	case opNeg:
		aOffset := int(decodeU32(t.bytes, offset))
		a, err := t.parse(aOffset)
		if err != nil {
			return nil, err
		}
		return &BoolExpr{Op: opNeg, A: a}, nil

	default:
		return nil, fmt.Errorf("ttdb: unsupported opcode %d", opcode)
	}
}

// Materialize builds this decoded tree directly into dst, substituting
// vars[i] for the database's symbol index i. This is the step
// pkg/boolmin's small-table lookup (spec.md §4.4 step 6) uses to splice
// a database entry into the caller's destination arena once it has been
// found cheaper than the ANF/factoring result.
func (e *BoolExpr) Materialize(dst *ast.Arena, vars []ast.NodeId) ast.NodeId {
	switch e.Op {
	case opSymbol:
		return vars[e.VarIndex]
	case opAnd:
		return dst.And(e.A.Materialize(dst, vars), e.B.Materialize(dst, vars))
	case opOr:
		return dst.Or(e.A.Materialize(dst, vars), e.B.Materialize(dst, vars))
	case opXor:
		return dst.Xor(e.A.Materialize(dst, vars), e.B.Materialize(dst, vars))
	case opNeg:
		return dst.Neg(e.A.Materialize(dst, vars))
	default:
		panic(fmt.Sprintf("ttdb: unreachable opcode %d", e.Op))
	}
}

// Eval evaluates the decoded Boolean expression against a bit-per-variable
// assignment (vars[i] must be 0 or 1), used to sanity-check a decoded
// entry.
func (e *BoolExpr) Eval(vars []uint8) uint8 {
	switch e.Op {
	case opSymbol:
		return vars[e.VarIndex] & 1
	case opAnd:
		return e.A.Eval(vars) & e.B.Eval(vars)
	case opOr:
		return e.A.Eval(vars) | e.B.Eval(vars)
	case opXor:
		return e.A.Eval(vars) ^ e.B.Eval(vars)
	case opNeg:
		return e.A.Eval(vars) ^ 1
	}
	panic(fmt.Sprintf("ttdb: unreachable opcode %d", e.Op))
}
