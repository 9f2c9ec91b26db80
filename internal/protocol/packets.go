package protocol

import "encoding/binary"

// LogonChallengeHeader follows the opcode byte of a (re)logon challenge.
type LogonChallengeHeader struct {
	Error uint8
	Size  uint16
}

// LogonChallengeHeaderSize is the header width after the opcode byte.
const LogonChallengeHeaderSize = 3

// ParseLogonChallengeHeader decodes the 3-byte challenge header.
func ParseLogonChallengeHeader(data []byte) (LogonChallengeHeader, bool) {
	if len(data) < LogonChallengeHeaderSize {
		return LogonChallengeHeader{}, false
	}
	return LogonChallengeHeader{
		Error: data[0],
		Size:  binary.LittleEndian.Uint16(data[1:3]),
	}, true
}

// LogonChallengeBody carries the client's identity and build information.
// Platform, OS and Country arrive as reversed ASCII fourcc values.
type LogonChallengeBody struct {
	GameName     [4]byte
	Version1     uint8
	Version2     uint8
	Version3     uint8
	Build        uint16
	Platform     [4]byte
	OS           [4]byte
	Country      [4]byte
	TimezoneBias uint32
	IP           uint32
	Username     string
}

// LogonChallengeBodyMinSize is the fixed prefix before the variable-length
// username.
const LogonChallengeBodyMinSize = 30

// ParseLogonChallengeBody decodes the challenge body, including the
// length-prefixed username.
func ParseLogonChallengeBody(data []byte) (LogonChallengeBody, bool) {
	if len(data) < LogonChallengeBodyMinSize {
		return LogonChallengeBody{}, false
	}

	var body LogonChallengeBody
	copy(body.GameName[:], data[0:4])
	body.Version1 = data[4]
	body.Version2 = data[5]
	body.Version3 = data[6]
	body.Build = binary.LittleEndian.Uint16(data[7:9])
	copy(body.Platform[:], data[9:13])
	copy(body.OS[:], data[13:17])
	copy(body.Country[:], data[17:21])
	body.TimezoneBias = binary.LittleEndian.Uint32(data[21:25])
	body.IP = binary.LittleEndian.Uint32(data[25:29])

	nameLen := int(data[29])
	if len(data) < LogonChallengeBodyMinSize+nameLen {
		return LogonChallengeBody{}, false
	}
	body.Username = string(data[30 : 30+nameLen])
	return body, true
}

// reverseFourCC turns a reversed, null-padded fourcc into a readable string.
func reverseFourCC(raw [4]byte) string {
	var out []byte
	for _, b := range raw {
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

// OSString returns the OS fourcc in readable order, e.g. "Win" or "OSX".
func (b LogonChallengeBody) OSString() string {
	raw := b.OS
	raw[3] = 0
	return reverseFourCC(raw)
}

// PlatformString returns the platform fourcc in readable order, e.g. "x86".
func (b LogonChallengeBody) PlatformString() string {
	raw := b.Platform
	raw[3] = 0
	return reverseFourCC(raw)
}

// LocaleString returns the locale in readable order, e.g. "enUS".
func (b LogonChallengeBody) LocaleString() string {
	out := make([]byte, 4)
	for i := range out {
		out[i] = b.Country[3-i]
	}
	return string(out)
}

// LogonProofClient is the client's answer to the SRP6 challenge.
type LogonProofClient struct {
	A             [32]byte // client public ephemeral
	M1            [20]byte // client proof
	CRCHash       [20]byte // client version proof
	NumberOfKeys  uint8
	SecurityFlags uint8
	PinSalt       [16]byte
	PinHash       [20]byte
	HasPin        bool
}

// Wire sizes of the logon proof body.
const (
	LogonProofSize        = 74
	LogonProofPinDataSize = 36
	LogonProofSizeWithPin = LogonProofSize + LogonProofPinDataSize
)

// ParseLogonProofClient decodes the proof body. withPin must reflect whether
// the preceding challenge advertised a PIN step.
func ParseLogonProofClient(data []byte, withPin bool) (LogonProofClient, bool) {
	expected := LogonProofSize
	if withPin {
		expected = LogonProofSizeWithPin
	}
	if len(data) < expected {
		return LogonProofClient{}, false
	}

	var p LogonProofClient
	copy(p.A[:], data[0:32])
	copy(p.M1[:], data[32:52])
	copy(p.CRCHash[:], data[52:72])
	p.NumberOfKeys = data[72]
	p.SecurityFlags = data[73]
	if withPin {
		copy(p.PinSalt[:], data[74:90])
		copy(p.PinHash[:], data[90:110])
		p.HasPin = true
	}
	return p, true
}

// LogonProofServer is the proof confirmation for 2.x+ clients.
type LogonProofServer struct {
	Error        uint8
	M2           [20]byte
	AccountFlags uint32
	SurveyID     uint32
	UnkFlags     uint16
}

// LogonProofServerSize is the serialized width including the opcode byte.
const LogonProofServerSize = 32

// Serialize encodes the packet, opcode included.
func (p LogonProofServer) Serialize() []byte {
	out := make([]byte, LogonProofServerSize)
	out[0] = OpcodeLogonProof
	out[1] = p.Error
	copy(out[2:22], p.M2[:])
	binary.LittleEndian.PutUint32(out[22:26], p.AccountFlags)
	binary.LittleEndian.PutUint32(out[26:30], p.SurveyID)
	binary.LittleEndian.PutUint16(out[30:32], p.UnkFlags)
	return out
}

// LogonProofServerLegacy is the proof confirmation for 1.12.x clients.
type LogonProofServerLegacy struct {
	Error      uint8
	M2         [20]byte
	LoginFlags uint32
}

// LogonProofServerLegacySize is the serialized width including the opcode byte.
const LogonProofServerLegacySize = 26

// Serialize encodes the packet, opcode included.
func (p LogonProofServerLegacy) Serialize() []byte {
	out := make([]byte, LogonProofServerLegacySize)
	out[0] = OpcodeLogonProof
	out[1] = p.Error
	copy(out[2:22], p.M2[:])
	binary.LittleEndian.PutUint32(out[22:26], p.LoginFlags)
	return out
}

// ReconnectProofClient is the client's answer to a reconnect challenge.
type ReconnectProofClient struct {
	R1           [16]byte // client nonce echo
	R2           [20]byte // client proof
	R3           [20]byte // client version proof
	NumberOfKeys uint8
}

// ReconnectProofSize is the body width after the opcode byte.
const ReconnectProofSize = 57

// ParseReconnectProofClient decodes the reconnect proof body.
func ParseReconnectProofClient(data []byte) (ReconnectProofClient, bool) {
	if len(data) < ReconnectProofSize {
		return ReconnectProofClient{}, false
	}
	var p ReconnectProofClient
	copy(p.R1[:], data[0:16])
	copy(p.R2[:], data[16:36])
	copy(p.R3[:], data[36:56])
	p.NumberOfKeys = data[56]
	return p, true
}
