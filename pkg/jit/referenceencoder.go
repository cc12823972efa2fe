package jit

import (
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"
)

// ReferenceEncoder assembles the same postfix program as FastEncoder
// but delegates instruction encoding to golang-asm/obj/x86 instead of
// hand-rolling bytes, the structural counterpart of
// original_source/EqSat/src/assembler/iced_amd64_assembler.rs (which
// delegates to the iced-x86 crate rather than encoding by hand).
// pkg/jit/asmtest's differential tester exists because these two
// encoders are maintained independently and must never disagree.
type ReferenceEncoder struct {
	ctxt *obj.Link
}

// NewReferenceEncoder builds the obj.Link context once; it is cheap to
// reuse across Assemble calls.
func NewReferenceEncoder() *ReferenceEncoder {
	return &ReferenceEncoder{ctxt: obj.Linknew(&x86.Linkamd64)}
}

var regTable = [...]int16{
	x86.REG_AX, x86.REG_CX, x86.REG_DX, x86.REG_BX,
	x86.REG_SP, x86.REG_BP, x86.REG_SI, x86.REG_DI,
	x86.REG_R8, x86.REG_R9, x86.REG_R10, x86.REG_R11,
	x86.REG_R12, x86.REG_R13, x86.REG_R14, x86.REG_R15,
}

func objReg(r Reg) int16 { return regTable[r] }

// progBuilder accumulates a linked obj.Prog chain the way
// cmd/internal/obj callers build a function body: each appended Prog
// becomes the Link successor of the last.
type progBuilder struct {
	sym   *obj.LSym
	first *obj.Prog
	last  *obj.Prog
}

func (b *progBuilder) append(p *obj.Prog) {
	if b.first == nil {
		b.first = p
		b.last = p
		return
	}
	b.last.Link = p
	b.last = p
}

func regAddr(r Reg) obj.Addr {
	return obj.Addr{Type: obj.TYPE_REG, Reg: objReg(r)}
}

func memAddr(base Reg, offset int32) obj.Addr {
	return obj.Addr{Type: obj.TYPE_MEM, Reg: objReg(base), Offset: int64(offset)}
}

func constAddr(v int64) obj.Addr {
	return obj.Addr{Type: obj.TYPE_CONST, Offset: v}
}

func (b *progBuilder) rr(as obj.As, from, to Reg) {
	p := &obj.Prog{As: as, From: regAddr(from), To: regAddr(to)}
	b.append(p)
}

func (b *progBuilder) ri(as obj.As, imm int64, to Reg) {
	p := &obj.Prog{As: as, From: constAddr(imm), To: regAddr(to)}
	b.append(p)
}

func (b *progBuilder) rm(as obj.As, base Reg, offset int32, to Reg) {
	p := &obj.Prog{As: as, From: memAddr(base, offset), To: regAddr(to)}
	b.append(p)
}

func (b *progBuilder) r1(as obj.As, reg Reg) {
	p := &obj.Prog{As: as, To: regAddr(reg)}
	b.append(p)
}

func (b *progBuilder) op0(as obj.As) {
	b.append(&obj.Prog{As: as})
}

// Assemble ports Compile's postfix program onto golang-asm's Prog
// chain, then flushes it through the x86 backend to get raw bytes.
func (e *ReferenceEncoder) Assemble(prog []Instr, helpers Helpers) []byte {
	sym := &obj.LSym{Name: "mbasimplify.jit"}
	b := &progBuilder{sym: sym}
	// mask ANDs RAX down to width bits, as FastEncoder.maskReg does.
	mask := func(width uint8) {
		if width < 64 {
			b.ri(x86.AMOVQ, int64(maskOf(width)), RegCX)
			b.rr(x86.AANDQ, RegCX, RegAX)
		}
	}

	for _, in := range prog {
		switch in.Op {
		case OpLoadVar:
			b.rm(x86.AMOVQ, RegDI, int32(in.Imm)*8, RegAX)
			b.r1(x86.APUSHQ, RegAX)
		case OpLoadConst:
			b.ri(x86.AMOVQ, int64(in.Imm), RegAX)
			b.r1(x86.APUSHQ, RegAX)
		case OpAdd:
			b.r1(x86.APOPQ, RegCX)
			b.r1(x86.APOPQ, RegAX)
			b.rr(x86.AADDQ, RegCX, RegAX)
			mask(in.Width)
			b.r1(x86.APUSHQ, RegAX)
		case OpMul:
			b.r1(x86.APOPQ, RegCX)
			b.r1(x86.APOPQ, RegAX)
			b.rr(x86.AIMULQ, RegCX, RegAX)
			mask(in.Width)
			b.r1(x86.APUSHQ, RegAX)
		case OpAnd:
			b.r1(x86.APOPQ, RegCX)
			b.r1(x86.APOPQ, RegAX)
			b.rr(x86.AANDQ, RegCX, RegAX)
			b.r1(x86.APUSHQ, RegAX)
		case OpOr:
			b.r1(x86.APOPQ, RegCX)
			b.r1(x86.APOPQ, RegAX)
			b.rr(x86.AORQ, RegCX, RegAX)
			b.r1(x86.APUSHQ, RegAX)
		case OpXor:
			b.r1(x86.APOPQ, RegCX)
			b.r1(x86.APOPQ, RegAX)
			b.rr(x86.AXORQ, RegCX, RegAX)
			b.r1(x86.APUSHQ, RegAX)
		case OpNot:
			b.r1(x86.APOPQ, RegAX)
			b.r1(x86.ANOTQ, RegAX)
			mask(in.Width)
			b.r1(x86.APUSHQ, RegAX)
		case OpShr:
			b.r1(x86.APOPQ, RegCX)
			b.r1(x86.APOPQ, RegDX)
			if in.Width > 0 && in.Width < 64 {
				b.rr(x86.AMOVQ, RegCX, RegDI)
				b.ri(x86.AMOVQ, int64(helpers.ShrModAddr), RegR11)
				b.r1(x86.ACALL, RegR11)
				b.rr(x86.AMOVQ, RegAX, RegCX)
			}
			b.rr(x86.AMOVQ, RegDX, RegAX)
			b.rr(x86.ASHRQ, RegCX, RegAX)
			b.r1(x86.APUSHQ, RegAX)
		case OpPow:
			b.r1(x86.APOPQ, RegSI)
			b.r1(x86.APOPQ, RegDI)
			b.ri(x86.AMOVQ, int64(helpers.PowAddr), RegR11)
			b.r1(x86.ACALL, RegR11)
			b.r1(x86.APUSHQ, RegAX)
		case OpZext:
			// no-op, mirrors FastEncoder.
		case OpTrunc:
			b.r1(x86.APOPQ, RegAX)
			b.ri(x86.AANDQ, int64(maskOf(in.Width)), RegAX)
			b.r1(x86.APUSHQ, RegAX)
		}
	}
	b.r1(x86.APOPQ, RegAX)
	b.op0(obj.ARET)

	sym.Func = &obj.FuncInfo{}
	pl := &obj.Plist{Firstpc: b.first, Curfn: sym}
	obj.Flushplist(e.ctxt, pl, nil, "")
	return sym.P
}
