package jit

import "encoding/binary"

// Helpers supplies the absolute addresses of the two runtime callbacks
// the compiled code calls out to: pow-mod (OpPow) and the modulo-width
// reduction of a shift amount (OpShr on a width that isn't 64). Obtaining a real, stable address for a Go function value
// needs a platform trampoline outside this package's scope (see
// DESIGN.md); Helpers just carries whatever addresses the caller's
// trampoline already resolved.
type Helpers struct {
	PowAddr    uint64
	ShrModAddr uint64
}

// FastEncoder hand-emits raw instruction bytes, the Go port of
// original_source/EqSat/src/assembler/fast_amd64_assembler.rs's
// FastAmd64Assembler: same REX/opcode/ModRM construction, same
// opcode_reg_reg/opc_reg_imm helper shape, same push/pop-based operand
// stack. Every compiled function takes one argument (RDI: *uint64,
// the packed variable array) and returns its result in RAX.
type FastEncoder struct {
	buf []byte
}

// NewFastEncoder returns an empty encoder ready for Assemble.
func NewFastEncoder() *FastEncoder { return &FastEncoder{} }

func (e *FastEncoder) emit(b ...byte) { e.buf = append(e.buf, b...) }

func (e *FastEncoder) emitImm32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	e.emit(b[:]...)
}

func (e *FastEncoder) emitImm64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	e.emit(b[:]...)
}

// opcodeRegReg ports FastAmd64Assembler::opcode_reg_reg: computes
// reg1 := reg1 OP reg2 for any 0x01/0x09/0x21/0x31-style r/m64,r64 opcode.
func (e *FastEncoder) opcodeRegReg(opcode byte, reg1, reg2 Reg) {
	rex := byte(0x48)
	if reg1.extended() {
		rex |= 0x01
	}
	if reg2.extended() {
		rex |= 0x04
	}
	modrm := 0xC0 | (reg2.code() << 3) | reg1.code()
	e.emit(rex, opcode, modrm)
}

func (e *FastEncoder) pushReg(r Reg) {
	if r.extended() {
		e.emit(0x41, 0x50+r.code())
		return
	}
	e.emit(0x50 + r.code())
}

func (e *FastEncoder) popReg(r Reg) {
	if r.extended() {
		e.emit(0x41, 0x58+r.code())
		return
	}
	e.emit(0x58 + r.code())
}

func (e *FastEncoder) movRegReg(dst, src Reg) { e.opcodeRegReg(0x89, dst, src) }

// movRegMem64 ports mov_reg_mem64_template: loads *(base+offset) into dst.
func (e *FastEncoder) movRegMem64(dst, base Reg, offset int32) {
	rex := byte(0x48)
	if dst.extended() {
		rex |= 0x04
	}
	if base.extended() {
		rex |= 0x01
	}
	modrm := 0x80 | (dst.code() << 3) | base.code()
	e.emit(rex, 0x8B, modrm)
	if base == RegSP || base == RegR12 {
		e.emit(0x00 | (0x04 << 3) | base.code())
	}
	var off [4]byte
	binary.LittleEndian.PutUint32(off[:], uint32(offset))
	e.emit(off[:]...)
}

func (e *FastEncoder) movabsRegImm64(dst Reg, imm uint64) {
	rex := byte(0x48)
	if dst.extended() {
		rex |= 0x01
	}
	e.emit(rex, 0xB8+dst.code())
	e.emitImm64(imm)
}

func (e *FastEncoder) imulRegReg(dst, src Reg) {
	rex := byte(0x48)
	if dst.extended() {
		rex |= 0x04
	}
	if src.extended() {
		rex |= 0x01
	}
	modrm := 0xC0 | (dst.code() << 3) | src.code()
	e.emit(rex, 0x0F, 0xAF, modrm)
}

func (e *FastEncoder) notReg(r Reg) {
	rex := byte(0x48)
	if r.extended() {
		rex |= 0x01
	}
	modrm := 0xC0 | (0x02 << 3) | r.code()
	e.emit(rex, 0xF7, modrm)
}

func (e *FastEncoder) andRegImm32(dst Reg, imm uint32) {
	rex := byte(0x48)
	if dst.extended() {
		rex |= 0x01
	}
	modrm := 0xC0 | (0x04 << 3) | dst.code()
	e.emit(rex, 0x81, modrm)
	e.emitImm32(imm)
}

// shiftRegCL ports shift_reg_cl: shr/shl reg, cl.
func (e *FastEncoder) shiftRegCL(shl bool, r Reg) {
	rex := byte(0x48)
	if r.extended() {
		rex |= 0x01
	}
	m1 := byte(0x05)
	if shl {
		m1 = 0x04
	}
	modrm := 0xC0 | (m1 << 3) | r.code()
	e.emit(rex, 0xD3, modrm)
}

func (e *FastEncoder) callReg(r Reg) {
	if r.extended() {
		e.emit(0x41)
	}
	modrm := 0xC0 | (0x02 << 3) | r.code()
	e.emit(0xFF, modrm)
}

func (e *FastEncoder) ret() { e.emit(0xC3) }

// maskReg masks r down to width bits, the same "and after any op that
// could produce bits beyond width" rule OpTrunc already applies,
// skipped when width==64 since no bits exist above it.
func (e *FastEncoder) maskReg(r Reg, width uint8) {
	if width >= 64 {
		return
	}
	if width < 32 {
		e.andRegImm32(r, uint32(maskOf(width)))
		return
	}
	e.movabsRegImm64(RegCX, maskOf(width))
	e.opcodeRegReg(0x21, r, RegCX)
}

// Assemble lowers prog into a standalone function body: prologue loads
// nothing (the variable array pointer stays in RDI throughout), the
// postfix program is replayed by always spilling the top of the
// virtual stack to the native stack (push/pop), and the epilogue moves
// the final value from RAX (already the convention every op leaves its
// result in) and returns.
func (e *FastEncoder) Assemble(prog []Instr, helpers Helpers) []byte {
	e.buf = e.buf[:0]
	for _, in := range prog {
		switch in.Op {
		case OpLoadVar:
			e.movRegMem64(RegAX, RegDI, int32(in.Imm)*8)
			e.pushReg(RegAX)
		case OpLoadConst:
			e.movabsRegImm64(RegAX, in.Imm)
			e.pushReg(RegAX)
		case OpAdd:
			e.popReg(RegCX)
			e.popReg(RegAX)
			e.opcodeRegReg(0x01, RegAX, RegCX)
			e.maskReg(RegAX, in.Width)
			e.pushReg(RegAX)
		case OpMul:
			e.popReg(RegCX)
			e.popReg(RegAX)
			e.imulRegReg(RegAX, RegCX)
			e.maskReg(RegAX, in.Width)
			e.pushReg(RegAX)
		case OpAnd:
			e.popReg(RegCX)
			e.popReg(RegAX)
			e.opcodeRegReg(0x21, RegAX, RegCX)
			e.pushReg(RegAX)
		case OpOr:
			e.popReg(RegCX)
			e.popReg(RegAX)
			e.opcodeRegReg(0x09, RegAX, RegCX)
			e.pushReg(RegAX)
		case OpXor:
			e.popReg(RegCX)
			e.popReg(RegAX)
			e.opcodeRegReg(0x31, RegAX, RegCX)
			e.pushReg(RegAX)
		case OpNot:
			e.popReg(RegAX)
			e.notReg(RegAX)
			e.maskReg(RegAX, in.Width)
			e.pushReg(RegAX)
		case OpShr:
			e.popReg(RegCX) // shift amount
			e.popReg(RegDX) // value
			if in.Width > 0 && in.Width < 64 {
				e.movRegReg(RegDI, RegCX)
				e.movabsRegImm64(RegR11, helpers.ShrModAddr)
				e.callReg(RegR11)
				e.movRegReg(RegCX, RegAX)
			}
			e.movRegReg(RegAX, RegDX)
			e.shiftRegCL(false, RegAX)
			e.pushReg(RegAX)
		case OpPow:
			e.popReg(RegSI) // exponent
			e.popReg(RegDI) // base
			e.movabsRegImm64(RegR11, helpers.PowAddr)
			e.callReg(RegR11)
			e.pushReg(RegAX)
		case OpZext:
			// values are always carried mod 2^width already; nothing to do.
		case OpTrunc:
			e.popReg(RegAX)
			e.maskReg(RegAX, in.Width)
			e.pushReg(RegAX)
		}
	}
	e.popReg(RegAX)
	e.ret()
	out := make([]byte, len(e.buf))
	copy(out, e.buf)
	return out
}
