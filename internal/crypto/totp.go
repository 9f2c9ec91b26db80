package crypto

import (
	"encoding/binary"
	"time"
)

// totpPeriod is the RFC 6238 time step.
const totpPeriod = 30

// GenerateToken returns the current 6-digit TOTP code for a base32 secret,
// or -1 if the secret does not decode.
func GenerateToken(b32Secret string) int32 {
	return GenerateTokenAt(b32Secret, time.Now())
}

// GenerateTokenAt computes the token for an explicit point in time.
// The counter is the Unix time divided by the 30-second period, packed as an
// 8-byte big-endian value, then HMAC-SHA1'd and truncated per RFC 4226.
func GenerateTokenAt(b32Secret string, now time.Time) int32 {
	key, err := Base32Decode(b32Secret)
	if err != nil {
		return -1
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(now.Unix())/totpPeriod)

	mac := HmacSha1(key, counter[:])

	offset := mac[len(mac)-1] & 0x0F
	code := binary.BigEndian.Uint32(mac[offset:offset+4]) & 0x7FFFFFFF
	return int32(code % 1_000_000)
}
