package crypto

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// BigNumber is an arbitrary-precision unsigned integer with the auth
// protocol's wire convention: all byte-level (de)serialization is
// little-endian, while the internal representation (math/big) is big-endian.
type BigNumber struct {
	n big.Int
}

// NewBigNumber returns a BigNumber initialized to zero.
func NewBigNumber() *BigNumber {
	return &BigNumber{}
}

// BigNumberFromUint32 returns a BigNumber holding val.
func BigNumberFromUint32(val uint32) *BigNumber {
	b := &BigNumber{}
	b.n.SetUint64(uint64(val))
	return b
}

// SetHex sets the value from a big-endian hex string, as stored in the
// database. Returns false on an empty, malformed, or negative string; the
// value is left at zero in that case.
func (b *BigNumber) SetHex(hex string) bool {
	hex = strings.TrimSpace(hex)
	if hex == "" {
		return false
	}
	if _, ok := b.n.SetString(hex, 16); !ok || b.n.Sign() < 0 {
		b.n.SetUint64(0)
		return false
	}
	return true
}

// SetLittleEndianBytes sets the value from protocol wire bytes.
// Exact inverse of LittleEndianBytes.
func (b *BigNumber) SetLittleEndianBytes(data []byte) {
	reversed := make([]byte, len(data))
	for i, v := range data {
		reversed[len(data)-1-i] = v
	}
	b.n.SetBytes(reversed)
}

// SetRandom sets the value to a uniformly random number of at most bits bits.
func (b *BigNumber) SetRandom(bits int) {
	buf := make([]byte, (bits+7)/8)
	_, _ = rand.Read(buf)
	if rem := bits % 8; rem != 0 {
		buf[0] &= byte(1<<rem) - 1
	}
	b.n.SetBytes(buf)
}

// IsZero reports whether the value is zero.
func (b *BigNumber) IsZero() bool {
	return b.n.Sign() == 0
}

// NumBytes returns the number of bytes needed to represent the magnitude.
func (b *BigNumber) NumBytes() int {
	return (b.n.BitLen() + 7) / 8
}

// Equal reports whether b and other hold the same value.
func (b *BigNumber) Equal(other *BigNumber) bool {
	return b.n.Cmp(&other.n) == 0
}

// ModExp returns b^exp mod modulus.
func (b *BigNumber) ModExp(exp, modulus *BigNumber) *BigNumber {
	out := &BigNumber{}
	out.n.Exp(&b.n, &exp.n, &modulus.n)
	return out
}

// Add returns b + other.
func (b *BigNumber) Add(other *BigNumber) *BigNumber {
	out := &BigNumber{}
	out.n.Add(&b.n, &other.n)
	return out
}

// Sub returns b - other, clamped at zero.
func (b *BigNumber) Sub(other *BigNumber) *BigNumber {
	out := &BigNumber{}
	if b.n.Cmp(&other.n) < 0 {
		return out
	}
	out.n.Sub(&b.n, &other.n)
	return out
}

// Mul returns b * other.
func (b *BigNumber) Mul(other *BigNumber) *BigNumber {
	out := &BigNumber{}
	out.n.Mul(&b.n, &other.n)
	return out
}

// MulScalar returns b * val.
func (b *BigNumber) MulScalar(val uint32) *BigNumber {
	out := &BigNumber{}
	out.n.Mul(&b.n, new(big.Int).SetUint64(uint64(val)))
	return out
}

// Mod returns b mod modulus.
func (b *BigNumber) Mod(modulus *BigNumber) *BigNumber {
	out := &BigNumber{}
	out.n.Mod(&b.n, &modulus.n)
	return out
}

// LittleEndianBytes returns the value in wire form: the big-endian magnitude
// left-padded with zero bytes to minLen, then reversed. The result is longer
// than minLen when the magnitude does not fit.
func (b *BigNumber) LittleEndianBytes(minLen int) []byte {
	be := b.n.Bytes()
	length := max(len(be), minLen)
	out := make([]byte, length)
	// Leading BE zero padding ends up as LE trailing zeros after the reverse.
	copy(out[length-len(be):], be)
	for i, j := 0, length-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Hex returns the value as an uppercase big-endian hex string.
func (b *BigNumber) Hex() string {
	if b.IsZero() {
		return "0"
	}
	return strings.ToUpper(b.n.Text(16))
}

// Uint32 returns the low 32 bits of the value.
func (b *BigNumber) Uint32() uint32 {
	return uint32(b.n.Uint64())
}
