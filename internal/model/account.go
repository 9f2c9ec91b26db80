package model

// Account is a player account as stored in the database. The verifier and
// salt are the SRP6 values derived from the password at registration; the
// plaintext password is never stored.
type Account struct {
	ID            uint32
	Username      string
	SecurityLevel uint8
	Locked        bool
	LockedIP      string
	VerifierHex   string
	SaltHex       string
	SessionKeyHex string
	TokenSecret   string // base32 TOTP secret, empty when no authenticator
	FailedLogins  uint32
	Locale        string
	OS            string
	Platform      string
}
