package protocol

// Client opcodes. Each packet starts with a single opcode byte.
const (
	OpcodeLogonChallenge     = 0x00
	OpcodeLogonProof         = 0x01
	OpcodeReconnectChallenge = 0x02
	OpcodeReconnectProof     = 0x03
	OpcodeRealmList          = 0x10
	OpcodeXferInitiate       = 0x30
	OpcodeXferData           = 0x31
	OpcodeXferAccept         = 0x32
	OpcodeXferResume         = 0x33
	OpcodeXferCancel         = 0x34
)

// KnownOpcode reports whether op is a defined client opcode.
func KnownOpcode(op byte) bool {
	switch op {
	case OpcodeLogonChallenge, OpcodeLogonProof,
		OpcodeReconnectChallenge, OpcodeReconnectProof,
		OpcodeRealmList,
		OpcodeXferInitiate, OpcodeXferData,
		OpcodeXferAccept, OpcodeXferResume, OpcodeXferCancel:
		return true
	}
	return false
}

// Authentication result codes sent to the client.
const (
	ResultSuccess              byte = 0x00
	ResultFailedBanned         byte = 0x03
	ResultFailedUnknownAccount byte = 0x04
	ResultFailedIncorrectPass  byte = 0x05
	ResultFailedAlreadyOnline  byte = 0x06
	ResultFailedNoTime         byte = 0x07
	ResultFailedDbBusy         byte = 0x08
	ResultFailedVersionInvalid byte = 0x09
	ResultFailedVersionUpdate  byte = 0x0A
	ResultFailedSuspended      byte = 0x0C
	ResultFailedNoAccess       byte = 0x0D
	ResultFailedParentControl  byte = 0x0F
)

// Security flag bits in the challenge response, signaling an extra
// authentication step.
const (
	SecurityFlagNone          byte = 0x00
	SecurityFlagPin           byte = 0x01
	SecurityFlagMatrix        byte = 0x02
	SecurityFlagAuthenticator byte = 0x04
)

// Account flag bits in the modern proof response.
const (
	AccountFlagGM      uint32 = 0x00000001
	AccountFlagTrial   uint32 = 0x00000008
	AccountFlagProPass uint32 = 0x00800000
)

// MaxUsernameLen is the protocol maximum for the username in a logon
// challenge.
const MaxUsernameLen = 16

// VersionChallenge is the fixed 16-byte value appended to every challenge
// response; the client folds it into its version-check hash.
var VersionChallenge = [16]byte{
	0xBA, 0xA3, 0x1E, 0x99, 0xA0, 0x0B, 0x21, 0x57,
	0xFC, 0x37, 0x3F, 0xB3, 0x69, 0xCD, 0xD2, 0xF1,
}
