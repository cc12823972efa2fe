// Package asmtest is the differential tester for pkg/jit's two
// encoders (spec.md §4.5/P7), ported structurally from
// original_source/EqSat/src/assembler/differential_tester.rs: drive
// both encoders over the same instruction stream and cross-check their
// output by decoding it with a real x86-64 disassembler rather than
// comparing raw bytes (two legal encodings of the same semantics need
// not be byte-identical).
package asmtest

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"github.com/mazeworks-security/simplifier/pkg/jit"
)

// Decoded disassembles code in 64-bit mode from offset 0, returning
// one textual line per instruction. A decode failure means the
// encoder emitted something malformed — that's the bug this package
// exists to catch.
func Decoded(code []byte) ([]string, error) {
	var lines []string
	pos := 0
	for pos < len(code) {
		inst, err := x86asm.Decode(code[pos:], 64)
		if err != nil {
			return nil, fmt.Errorf("asmtest: decode failed at offset %d: %w", pos, err)
		}
		lines = append(lines, x86asm.GNUSyntax(inst, uint64(pos), nil))
		pos += inst.Len
	}
	return lines, nil
}

// CompareEncoders runs prog through both of pkg/jit's encoders and
// returns their disassembly listings for the caller to diff. It does
// not assert equality itself — FastEncoder and ReferenceEncoder are
// allowed to choose different (but equivalent) instruction forms, so
// the test layer decides what "agreement" means for a given program.
func CompareEncoders(prog []jit.Instr, helpers jit.Helpers) (fastLines, refLines []string, err error) {
	fastCode := jit.NewFastEncoder().Assemble(prog, helpers)
	fastLines, err = Decoded(fastCode)
	if err != nil {
		return nil, nil, fmt.Errorf("fast encoder: %w", err)
	}

	refCode := jit.NewReferenceEncoder().Assemble(prog, helpers)
	refLines, err = Decoded(refCode)
	if err != nil {
		return nil, nil, fmt.Errorf("reference encoder: %w", err)
	}
	return fastLines, refLines, nil
}
