package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestByteBufferRoundTrip(t *testing.T) {
	b := NewByteBuffer(64)
	b.WriteUint8(0x7F)
	b.WriteUint16(0xBEEF)
	b.WriteUint32(0xDEADBEEF)
	b.WriteUint64(0x0102030405060708)
	b.WriteFloat32(1.5)
	b.WriteCString("Realm One")
	b.Append([]byte{1, 2, 3})

	u8, ok := b.ReadUint8()
	require.True(t, ok)
	assert.Equal(t, uint8(0x7F), u8)

	u16, ok := b.ReadUint16()
	require.True(t, ok)
	assert.Equal(t, uint16(0xBEEF), u16)

	u32, ok := b.ReadUint32()
	require.True(t, ok)
	assert.Equal(t, uint32(0xDEADBEEF), u32)

	u64, ok := b.ReadUint64()
	require.True(t, ok)
	assert.Equal(t, uint64(0x0102030405060708), u64)

	f, ok := b.ReadFloat32()
	require.True(t, ok)
	assert.Equal(t, float32(1.5), f)

	s, ok := b.ReadCString()
	require.True(t, ok)
	assert.Equal(t, "Realm One", s)

	rest, ok := b.ReadBytes(3)
	require.True(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, rest)
}

func TestByteBufferLittleEndian(t *testing.T) {
	b := NewByteBuffer(4)
	b.WriteUint32(0x01020304)
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b.Bytes())
}

func TestByteBufferReadPastEnd(t *testing.T) {
	b := NewByteBuffer(2)
	b.WriteUint8(1)

	_, ok := b.ReadUint16()
	assert.False(t, ok)

	_, ok = b.ReadBytes(2)
	assert.False(t, ok)

	// unterminated string
	_, ok = b.ReadCString()
	assert.False(t, ok)
}

func TestByteBufferReset(t *testing.T) {
	b := NewByteBuffer(8)
	b.WriteUint32(42)
	b.Reset()

	assert.Equal(t, 0, b.Len())
	_, ok := b.ReadUint8()
	assert.False(t, ok)
}
