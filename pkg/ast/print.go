package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mazeworks-security/simplifier/pkg/bits"
)

// Op0, Op1, Op2 are positional child accessors; callers must know the
// node's arity (catalog[tag].arity) or check NumKids first.
func (a *Arena) Op0(id NodeId) NodeId { return a.nodes[id].Kids[0] }
func (a *Arena) Op1(id NodeId) NodeId { return a.nodes[id].Kids[1] }
func (a *Arena) Op2(id NodeId) NodeId { return a.nodes[id].Kids[2] }

// ConstantValue returns the literal value of a TagConst node.
func (a *Arena) ConstantValue(id NodeId) uint64 {
	n := a.nodes[id]
	if n.Tag != TagConst {
		panic("ast: ConstantValue on non-const node")
	}
	return n.Payload
}

// TargetWidth returns the destination width carried by a Zext/Trunc
// node's payload.
func (a *Arena) TargetWidth(id NodeId) uint8 {
	n := a.nodes[id]
	if n.Tag != TagZext && n.Tag != TagTrunc {
		panic("ast: TargetWidth on neither Zext nor Trunc")
	}
	return uint8(n.Payload)
}

// String renders id in the prefix S-expression surface syntax from
// spec.md §6 (`"(" op expr... ")"`, leaves as `<int-or-name>:i<width>`),
// the same grammar pkg/parser consumes — so a.String(a.Const(...)) and
// every extracted/simplified result print→reparse round-trip through
// ParseString unchanged.
func (a *Arena) String(id NodeId) string {
	var sb strings.Builder
	a.write(&sb, id)
	return sb.String()
}

// zextTruncArgWidth is the width tag attached to the synthetic constant
// leaf printed for zx/tr's second operand (spec.md §6: "zx/tr take a
// second operand that is the target width as a constant"). The parser
// masks the leaf's integer to this declared width and the zx/tr builder
// then reads only the constant's value, so it must be a valid 1..64
// width wide enough to hold every target width up to 64.
const zextTruncArgWidth = 8

func (a *Arena) write(sb *strings.Builder, id NodeId) {
	n := a.nodes[id]
	switch n.Tag {
	case TagConst:
		sb.WriteString(signedDecimal(n.Payload, n.Width))
		sb.WriteString(":i")
		sb.WriteString(strconv.Itoa(int(n.Width)))
	case TagSym:
		sb.WriteString(a.SymbolName(id))
		sb.WriteString(":i")
		sb.WriteString(strconv.Itoa(int(n.Width)))
	case TagAdd:
		a.writeCall(sb, "+", n.Kids[0], n.Kids[1])
	case TagMul:
		a.writeCall(sb, "*", n.Kids[0], n.Kids[1])
	case TagPow:
		a.writeCall(sb, "**", n.Kids[0], n.Kids[1])
	case TagAnd:
		a.writeCall(sb, "&", n.Kids[0], n.Kids[1])
	case TagOr:
		a.writeCall(sb, "|", n.Kids[0], n.Kids[1])
	case TagXor:
		a.writeCall(sb, "^", n.Kids[0], n.Kids[1])
	case TagNeg:
		a.writeCall(sb, "~", n.Kids[0])
	case TagLshr:
		a.writeCall(sb, ">>", n.Kids[0], n.Kids[1])
	case TagZext:
		sb.WriteString("(zx ")
		a.write(sb, n.Kids[0])
		sb.WriteString(" ")
		fmt.Fprintf(sb, "%d:i%d", n.Payload, zextTruncArgWidth)
		sb.WriteString(")")
	case TagTrunc:
		sb.WriteString("(tr ")
		a.write(sb, n.Kids[0])
		sb.WriteString(" ")
		fmt.Fprintf(sb, "%d:i%d", n.Payload, zextTruncArgWidth)
		sb.WriteString(")")
	case TagIcmp:
		sb.WriteString("(icmp ")
		sb.WriteString(bits.Predicate(n.Payload).String())
		sb.WriteString(" ")
		a.write(sb, n.Kids[0])
		sb.WriteString(" ")
		a.write(sb, n.Kids[1])
		sb.WriteString(")")
	case TagSelect:
		a.writeCall(sb, "select", n.Kids[0], n.Kids[1], n.Kids[2])
	default:
		sb.WriteString("?")
	}
}

// writeCall renders "(op kid0 kid1 ...)", spec.md §6's one and only
// call shape — every multi-child operator uses it, so infix/precedence
// never has to be reconstructed on reparse.
func (a *Arena) writeCall(sb *strings.Builder, op string, kids ...NodeId) {
	sb.WriteString("(")
	sb.WriteString(op)
	for _, k := range kids {
		sb.WriteString(" ")
		a.write(sb, k)
	}
	sb.WriteString(")")
}

// signedDecimal renders payload (already canonicalized mod 2^width) as
// the signed two's-complement integer spec.md §6 displays constants as.
func signedDecimal(payload uint64, width uint8) string {
	if width >= 64 {
		return strconv.FormatInt(int64(payload), 10)
	}
	if payload&(uint64(1)<<(width-1)) != 0 {
		return strconv.FormatInt(int64(payload)-int64(uint64(1)<<width), 10)
	}
	return strconv.FormatUint(payload, 10)
}
