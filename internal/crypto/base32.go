package crypto

import (
	"encoding/base32"
	"strings"
)

// Base32Decode decodes a base32 TOTP secret. Whitespace and hyphens are
// stripped and the common transcription typos 0/1/8 are mapped to O/L/B
// before decoding, since authenticator secrets are typed in by hand.
func Base32Decode(input string) ([]byte, error) {
	var sb strings.Builder
	sb.Grow(len(input))
	for _, r := range input {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '-':
			continue
		case r == '0':
			sb.WriteRune('O')
		case r == '1':
			sb.WriteRune('L')
		case r == '8':
			sb.WriteRune('B')
		case r >= 'a' && r <= 'z':
			sb.WriteRune(r - 'a' + 'A')
		default:
			sb.WriteRune(r)
		}
	}

	cleaned := sb.String()
	if rem := len(cleaned) % 8; rem != 0 {
		cleaned += strings.Repeat("=", 8-rem)
	}
	return base32.StdEncoding.DecodeString(cleaned)
}
