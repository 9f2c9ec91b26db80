package protocol

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildChallengeBody assembles a wire-format logon challenge body the way
// the client sends it: fourcc fields reversed, little-endian integers.
func buildChallengeBody(username string, build uint16) []byte {
	body := make([]byte, 0, LogonChallengeBodyMinSize+len(username))
	body = append(body, 'W', 'o', 'W', 0)
	body = append(body, 3, 3, 5)
	body = binary.LittleEndian.AppendUint16(body, build)
	body = append(body, '6', '8', 'x', 0) // "x86" reversed
	body = append(body, 'n', 'i', 'W', 0) // "Win" reversed
	body = append(body, 'S', 'U', 'n', 'e') // "enUS" reversed
	body = binary.LittleEndian.AppendUint32(body, 0x3C)
	body = binary.LittleEndian.AppendUint32(body, 0x7F000001)
	body = append(body, byte(len(username)))
	body = append(body, username...)
	return body
}

func TestParseLogonChallengeHeader(t *testing.T) {
	hdr, ok := ParseLogonChallengeHeader([]byte{0x08, 0x24, 0x00})
	require.True(t, ok)
	assert.Equal(t, uint8(0x08), hdr.Error)
	assert.Equal(t, uint16(0x24), hdr.Size)

	_, ok = ParseLogonChallengeHeader([]byte{0x08, 0x24})
	assert.False(t, ok)
}

func TestParseLogonChallengeBody(t *testing.T) {
	body, ok := ParseLogonChallengeBody(buildChallengeBody("ALICE", 13930))
	require.True(t, ok)

	assert.Equal(t, "ALICE", body.Username)
	assert.Equal(t, uint16(13930), body.Build)
	assert.Equal(t, uint8(3), body.Version1)
	assert.Equal(t, uint8(5), body.Version3)
	assert.Equal(t, "Win", body.OSString())
	assert.Equal(t, "x86", body.PlatformString())
	assert.Equal(t, "enUS", body.LocaleString())
}

func TestParseLogonChallengeBodyShortInput(t *testing.T) {
	full := buildChallengeBody("ALICE", 13930)
	for size := 0; size < LogonChallengeBodyMinSize; size++ {
		_, ok := ParseLogonChallengeBody(full[:size])
		assert.False(t, ok, "size %d must not parse", size)
	}

	// username length field exceeding the available bytes
	truncated := buildChallengeBody("ALICE", 13930)
	truncated[29] = 200
	_, ok := ParseLogonChallengeBody(truncated)
	assert.False(t, ok)
}

func TestParseLogonProofClient(t *testing.T) {
	data := make([]byte, LogonProofSize)
	for i := range data {
		data[i] = byte(i)
	}

	p, ok := ParseLogonProofClient(data, false)
	require.True(t, ok)
	assert.Equal(t, data[0:32], p.A[:])
	assert.Equal(t, data[32:52], p.M1[:])
	assert.Equal(t, data[52:72], p.CRCHash[:])
	assert.Equal(t, data[72], p.NumberOfKeys)
	assert.Equal(t, data[73], p.SecurityFlags)
	assert.False(t, p.HasPin)

	_, ok = ParseLogonProofClient(data[:LogonProofSize-1], false)
	assert.False(t, ok)

	// the same 74 bytes are short when a PIN payload is expected
	_, ok = ParseLogonProofClient(data, true)
	assert.False(t, ok)
}

func TestParseLogonProofClientWithPin(t *testing.T) {
	data := make([]byte, LogonProofSizeWithPin)
	for i := range data {
		data[i] = byte(i)
	}

	p, ok := ParseLogonProofClient(data, true)
	require.True(t, ok)
	assert.True(t, p.HasPin)
	assert.Equal(t, data[74:90], p.PinSalt[:])
	assert.Equal(t, data[90:110], p.PinHash[:])
}

func TestLogonProofServerSerialize(t *testing.T) {
	var m2 [20]byte
	for i := range m2 {
		m2[i] = byte(i)
	}

	out := LogonProofServer{M2: m2, AccountFlags: AccountFlagProPass}.Serialize()
	require.Len(t, out, LogonProofServerSize)
	assert.Equal(t, byte(OpcodeLogonProof), out[0])
	assert.Equal(t, byte(0), out[1])
	assert.Equal(t, m2[:], out[2:22])
	assert.Equal(t, AccountFlagProPass, binary.LittleEndian.Uint32(out[22:26]))

	legacy := LogonProofServerLegacy{M2: m2}.Serialize()
	require.Len(t, legacy, LogonProofServerLegacySize)
	assert.Equal(t, byte(OpcodeLogonProof), legacy[0])
	assert.Equal(t, m2[:], legacy[2:22])
}

func TestParseReconnectProofClient(t *testing.T) {
	data := make([]byte, ReconnectProofSize)
	for i := range data {
		data[i] = byte(i)
	}

	p, ok := ParseReconnectProofClient(data)
	require.True(t, ok)
	assert.Equal(t, data[0:16], p.R1[:])
	assert.Equal(t, data[16:36], p.R2[:])
	assert.Equal(t, data[36:56], p.R3[:])
	assert.Equal(t, data[56], p.NumberOfKeys)

	_, ok = ParseReconnectProofClient(data[:ReconnectProofSize-1])
	assert.False(t, ok)
}

func TestKnownOpcode(t *testing.T) {
	for _, op := range []byte{0x00, 0x01, 0x02, 0x03, 0x10, 0x30, 0x31, 0x32, 0x33, 0x34} {
		assert.True(t, KnownOpcode(op), "opcode %#x", op)
	}
	assert.False(t, KnownOpcode(0x04))
	assert.False(t, KnownOpcode(0xFF))
}
