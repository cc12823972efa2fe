package ttdb

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

// buildTable hand-assembles a minimal one-record bank encoding
// (x0 & x1), the way the original Rust tool's offline builder would
// have serialized it: one 8-byte header, then a 4-byte-aligned opcode
// slot per node.
func buildTable(t *testing.T) []byte {
	t.Helper()
	var buf []byte

	putU32 := func(v uint32) {
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		buf = append(buf, b...)
	}

	// header: record 0 -> tree starts right after the 8-byte header, cost 2
	putU32(8)
	putU32(2)

	andNodeOffset := len(buf)
	buf = append(buf, opAnd, 0, 0, 0)
	aOffPos := len(buf)
	putU32(0) // patched below
	bOffPos := len(buf)
	putU32(0) // patched below

	aOffset := len(buf)
	buf = append(buf, opSymbol, 0, 0, 0, 0) // var 0

	bOffset := len(buf)
	buf = append(buf, opSymbol, 0, 0, 0, 1) // var 1

	binary.LittleEndian.PutUint32(buf[aOffPos:], uint32(aOffset))
	binary.LittleEndian.PutUint32(buf[bOffPos:], uint32(bOffset))
	_ = andNodeOffset
	return buf
}

func TestDecodeAndEval(t *testing.T) {
	table := New(2, buildTable(t))

	cost, err := table.Cost(0)
	require.NoError(t, err)
	require.Equal(t, uint32(2), cost)

	expr, err := table.Decode(0)
	require.NoError(t, err)
	require.Equal(t, opAnd, expr.Op)

	require.Equal(t, uint8(0), expr.Eval([]uint8{0, 0}))
	require.Equal(t, uint8(0), expr.Eval([]uint8{1, 0}))
	require.Equal(t, uint8(0), expr.Eval([]uint8{0, 1}))
	require.Equal(t, uint8(1), expr.Eval([]uint8{1, 1}))
}

func TestDecodeOutOfRange(t *testing.T) {
	table := New(2, []byte{1, 2, 3})
	_, err := table.Cost(0)
	require.Error(t, err)
}
