package crypto

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"hash"
)

// Sha1Digest is the fixed SHA-1 output size.
const Sha1Digest = sha1.Size

// Sha1Hash is a streaming SHA-1 accumulator that accepts raw bytes, strings
// and BigNumbers. BigNumbers are fed in their little-endian wire form, so
// update order must match the protocol exactly.
type Sha1Hash struct {
	h hash.Hash
}

// NewSha1 returns a fresh SHA-1 accumulator.
func NewSha1() *Sha1Hash {
	return &Sha1Hash{h: sha1.New()}
}

// Reset discards all accumulated data.
func (s *Sha1Hash) Reset() {
	s.h.Reset()
}

// WriteBytes appends raw bytes to the hash input.
func (s *Sha1Hash) WriteBytes(data []byte) {
	s.h.Write(data)
}

// WriteString appends the UTF-8 bytes of str to the hash input.
func (s *Sha1Hash) WriteString(str string) {
	s.h.Write([]byte(str))
}

// WriteBigNumbers appends each number's wire bytes, in argument order.
func (s *Sha1Hash) WriteBigNumbers(nums ...*BigNumber) {
	for _, n := range nums {
		s.h.Write(n.LittleEndianBytes(0))
	}
}

// Sum returns the digest of everything written so far.
func (s *Sha1Hash) Sum() [Sha1Digest]byte {
	var out [Sha1Digest]byte
	copy(out[:], s.h.Sum(nil))
	return out
}

// Md5Digest is the fixed MD5 output size.
const Md5Digest = md5.Size

// Md5Hash is the MD5 counterpart of Sha1Hash.
type Md5Hash struct {
	h hash.Hash
}

// NewMd5 returns a fresh MD5 accumulator.
func NewMd5() *Md5Hash {
	return &Md5Hash{h: md5.New()}
}

// Reset discards all accumulated data.
func (m *Md5Hash) Reset() {
	m.h.Reset()
}

// WriteBytes appends raw bytes to the hash input.
func (m *Md5Hash) WriteBytes(data []byte) {
	m.h.Write(data)
}

// WriteString appends the UTF-8 bytes of str to the hash input.
func (m *Md5Hash) WriteString(str string) {
	m.h.Write([]byte(str))
}

// WriteBigNumbers appends each number's wire bytes, in argument order.
func (m *Md5Hash) WriteBigNumbers(nums ...*BigNumber) {
	for _, n := range nums {
		m.h.Write(n.LittleEndianBytes(0))
	}
}

// Sum returns the digest of everything written so far.
func (m *Md5Hash) Sum() [Md5Digest]byte {
	var out [Md5Digest]byte
	copy(out[:], m.h.Sum(nil))
	return out
}

// HmacSha1 computes a one-shot HMAC-SHA1 over data with the given key.
func HmacSha1(key, data []byte) [Sha1Digest]byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(data)
	var out [Sha1Digest]byte
	copy(out[:], mac.Sum(nil))
	return out
}
