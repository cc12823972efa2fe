package jit

// Encoder turns a postfix instruction stream into a standalone x86-64
// function body (SysV AMD64: one argument in RDI, a pointer to the
// packed variable array; result in RAX). FastEncoder and
// ReferenceEncoder are the two concrete implementations spec.md §4.5
// asks for; pkg/jit/asmtest's differential tester exists to keep them
// in agreement.
type Encoder interface {
	Assemble(prog []Instr, helpers Helpers) []byte
}

var (
	_ Encoder = (*FastEncoder)(nil)
	_ Encoder = (*ReferenceEncoder)(nil)
)
