package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterReaderFields(t *testing.T) {
	w := NewWriterSize(16)
	w.WriteByte(0x80)
	w.WriteUint16(0xbeef)
	w.WriteUint24(0x7f3a9c)
	w.WriteUint32(0xdeadbeef)
	require.NoError(t, w.WriteSlice([]byte{1, 2}))
	assert.Equal(t, 12, w.Length())
	assert.Equal(t, 4, w.Available())
	assert.Equal(t, []byte{0x80, 0xbe, 0xef, 0x7f, 0x3a, 0x9c, 0xde, 0xad, 0xbe, 0xef, 1, 2}, w.Bytes())

	r := NewReader(w.Bytes())
	assert.Equal(t, byte(0x80), r.ReadByte())
	assert.Equal(t, uint16(0xbeef), r.ReadUint16())
	assert.Equal(t, []byte{0x7f, 0x3a, 0x9c}, r.ReadSlice(3))
	assert.Equal(t, uint32(0xdeadbeef), r.ReadUint32())
	assert.Equal(t, 10, r.Offset())
	assert.Equal(t, []byte{1, 2}, r.ReadRemaining())
	assert.Equal(t, 0, r.Remaining())
}

func TestWriterCapacity(t *testing.T) {
	w := NewWriterSize(2)
	assert.Error(t, w.WriteSlice([]byte{1, 2, 3}))
	assert.Equal(t, 0, w.Length())

	w.WriteUint16(1)
	w.Reset()
	assert.Equal(t, 0, w.Length())
	assert.Empty(t, w.Bytes())
}

func TestReaderCheckRemaining(t *testing.T) {
	r := NewReader(make([]byte, 12))
	assert.NoError(t, r.CheckRemaining(12))
	r.Skip(8)
	assert.Error(t, r.CheckRemaining(5))
	assert.NoError(t, r.CheckRemaining(4))
}
