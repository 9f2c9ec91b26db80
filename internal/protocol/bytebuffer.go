package protocol

import (
	"encoding/binary"
	"math"
)

// ByteBuffer is an append/read buffer for the auth wire format: little-endian
// fixed-width integers and null-terminated strings.
type ByteBuffer struct {
	data    []byte
	readPos int
}

// NewByteBuffer returns an empty buffer with the given capacity hint.
func NewByteBuffer(capacity int) *ByteBuffer {
	return &ByteBuffer{data: make([]byte, 0, capacity)}
}

// Bytes returns the written contents.
func (b *ByteBuffer) Bytes() []byte {
	return b.data
}

// Len returns the number of bytes written.
func (b *ByteBuffer) Len() int {
	return len(b.data)
}

// Reset clears the buffer and rewinds the read position.
func (b *ByteBuffer) Reset() {
	b.data = b.data[:0]
	b.readPos = 0
}

// Append writes raw bytes.
func (b *ByteBuffer) Append(data []byte) {
	b.data = append(b.data, data...)
}

// WriteUint8 writes one byte.
func (b *ByteBuffer) WriteUint8(v uint8) {
	b.data = append(b.data, v)
}

// WriteUint16 writes a little-endian uint16.
func (b *ByteBuffer) WriteUint16(v uint16) {
	b.data = binary.LittleEndian.AppendUint16(b.data, v)
}

// WriteUint32 writes a little-endian uint32.
func (b *ByteBuffer) WriteUint32(v uint32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, v)
}

// WriteUint64 writes a little-endian uint64.
func (b *ByteBuffer) WriteUint64(v uint64) {
	b.data = binary.LittleEndian.AppendUint64(b.data, v)
}

// WriteFloat32 writes a little-endian IEEE 754 float.
func (b *ByteBuffer) WriteFloat32(v float32) {
	b.data = binary.LittleEndian.AppendUint32(b.data, math.Float32bits(v))
}

// WriteCString writes s followed by a null terminator.
func (b *ByteBuffer) WriteCString(s string) {
	b.data = append(b.data, s...)
	b.data = append(b.data, 0)
}

// ReadUint8 reads one byte. Returns false once the buffer is exhausted.
func (b *ByteBuffer) ReadUint8() (uint8, bool) {
	if b.readPos+1 > len(b.data) {
		return 0, false
	}
	v := b.data[b.readPos]
	b.readPos++
	return v, true
}

// ReadUint16 reads a little-endian uint16.
func (b *ByteBuffer) ReadUint16() (uint16, bool) {
	if b.readPos+2 > len(b.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint16(b.data[b.readPos:])
	b.readPos += 2
	return v, true
}

// ReadUint32 reads a little-endian uint32.
func (b *ByteBuffer) ReadUint32() (uint32, bool) {
	if b.readPos+4 > len(b.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint32(b.data[b.readPos:])
	b.readPos += 4
	return v, true
}

// ReadUint64 reads a little-endian uint64.
func (b *ByteBuffer) ReadUint64() (uint64, bool) {
	if b.readPos+8 > len(b.data) {
		return 0, false
	}
	v := binary.LittleEndian.Uint64(b.data[b.readPos:])
	b.readPos += 8
	return v, true
}

// ReadFloat32 reads a little-endian IEEE 754 float.
func (b *ByteBuffer) ReadFloat32() (float32, bool) {
	v, ok := b.ReadUint32()
	return math.Float32frombits(v), ok
}

// ReadCString reads bytes up to the next null terminator.
func (b *ByteBuffer) ReadCString() (string, bool) {
	for i := b.readPos; i < len(b.data); i++ {
		if b.data[i] == 0 {
			s := string(b.data[b.readPos:i])
			b.readPos = i + 1
			return s, true
		}
	}
	return "", false
}

// ReadBytes reads exactly n bytes.
func (b *ByteBuffer) ReadBytes(n int) ([]byte, bool) {
	if b.readPos+n > len(b.data) {
		return nil, false
	}
	out := b.data[b.readPos : b.readPos+n]
	b.readPos += n
	return out, true
}
