package crypto

// SRP6 protocol constants. N and g are fixed by the game client and must
// match it bit for bit.
const (
	srp6PrimeHex  = "894B645E89E1535BBDAD5B8B290650530801B18EBFBF5E8FAB3C82872A3E9BB7"
	srp6Generator = 7

	// SaltSize is the salt width in bytes.
	SaltSize = 32

	// EphemeralSize is the wire width of the public ephemerals A and B.
	EphemeralSize = 32

	// SessionKeySize is the width of the strong session key K.
	SessionKeySize = 40

	// hostEphemeralBits is the bit length of the host private ephemeral b.
	hostEphemeralBits = 19 * 8
)

// SRP6 holds the server side of one SRP6 authentication handshake.
// An instance is owned by a single connection and never shared.
type SRP6 struct {
	n *BigNumber // safe prime
	g *BigNumber // generator
	s *BigNumber // salt
	v *BigNumber // password verifier

	b    *BigNumber // host private ephemeral
	bigB *BigNumber // host public ephemeral
	bigA *BigNumber // client public ephemeral
	u    *BigNumber // scrambler = SHA1(A || B)
	bigS *BigNumber // raw shared secret

	k *BigNumber // strong session key (interleaved hash of S)
	m *BigNumber // proof of session key knowledge
}

// NewSRP6 returns an engine initialized with the protocol prime and generator.
func NewSRP6() *SRP6 {
	n := NewBigNumber()
	n.SetHex(srp6PrimeHex)
	return &SRP6{
		n:    n,
		g:    BigNumberFromUint32(srp6Generator),
		s:    NewBigNumber(),
		v:    NewBigNumber(),
		b:    NewBigNumber(),
		bigB: NewBigNumber(),
		bigA: NewBigNumber(),
		u:    NewBigNumber(),
		bigS: NewBigNumber(),
		k:    NewBigNumber(),
		m:    NewBigNumber(),
	}
}

// SetVerifier loads the password verifier from its database hex form.
// Returns false on an absent or zero value.
func (s *SRP6) SetVerifier(hex string) bool {
	return s.v.SetHex(hex) && !s.v.IsZero()
}

// SetSalt loads the salt from its database hex form.
// Returns false on an absent or zero value.
func (s *SRP6) SetSalt(hex string) bool {
	return s.s.SetHex(hex) && !s.s.IsZero()
}

// SetStrongSessionKey loads a previously persisted K, used on reconnect.
func (s *SRP6) SetStrongSessionKey(hex string) {
	s.k.SetHex(hex)
}

// GenerateChallenge draws a fresh host private ephemeral b and computes the
// public ephemeral B = (3*v + g^b mod N) mod N.
func (s *SRP6) GenerateChallenge() {
	s.b.SetRandom(hostEphemeralBits)
	gMod := s.g.ModExp(s.b, s.n)
	s.bigB = s.v.MulScalar(3).Add(gMod).Mod(s.n)
}

// AgreeSessionKey parses the client public ephemeral A and computes the raw
// shared secret S = (A * v^u mod N)^b mod N with u = SHA1(A || B).
// Returns false on the degenerate values A == 0 and A mod N == 0, which an
// attacker could use to force a known session key.
func (s *SRP6) AgreeSessionKey(clientA []byte) bool {
	s.bigA.SetLittleEndianBytes(clientA)
	if s.bigA.IsZero() || s.bigA.Mod(s.n).IsZero() {
		return false
	}

	sha := NewSha1()
	sha.WriteBigNumbers(s.bigA, s.bigB)
	digest := sha.Sum()
	s.u.SetLittleEndianBytes(digest[:])

	vMod := s.v.ModExp(s.u, s.n)
	s.bigS = s.bigA.Mul(vMod).ModExp(s.b, s.n)
	return true
}

// DeriveStrongSessionKey derives the 40-byte K from S by hashing the even and
// odd bytes of S separately and re-interleaving the two digests.
// Must only be called after AgreeSessionKey succeeds.
func (s *SRP6) DeriveStrongSessionKey() {
	t := s.bigS.LittleEndianBytes(EphemeralSize)
	var half [16]byte
	var vk [SessionKeySize]byte

	for i := 0; i < 16; i++ {
		half[i] = t[i*2]
	}
	sha := NewSha1()
	sha.WriteBytes(half[:])
	even := sha.Sum()
	for i := 0; i < Sha1Digest; i++ {
		vk[i*2] = even[i]
	}

	for i := 0; i < 16; i++ {
		half[i] = t[i*2+1]
	}
	sha.Reset()
	sha.WriteBytes(half[:])
	odd := sha.Sum()
	for i := 0; i < Sha1Digest; i++ {
		vk[i*2+1] = odd[i]
	}

	s.k.SetLittleEndianBytes(vk[:])
}

// ComputeServerProof computes M = SHA1((H(N) XOR H(g)) || H(username) || s || A || B || K).
// The username is hashed exactly as received from the client.
func (s *SRP6) ComputeServerProof(username string) {
	sha := NewSha1()
	sha.WriteBigNumbers(s.n)
	hN := sha.Sum()

	sha.Reset()
	sha.WriteBigNumbers(s.g)
	hG := sha.Sum()

	for i := range hN {
		hN[i] ^= hG[i]
	}

	sha.Reset()
	sha.WriteString(username)
	hUser := sha.Sum()

	sha.Reset()
	sha.WriteBytes(hN[:])
	sha.WriteBytes(hUser[:])
	sha.WriteBigNumbers(s.s, s.bigA, s.bigB, s.k)
	digest := sha.Sum()
	s.m.SetLittleEndianBytes(digest[:])
}

// VerifyClientProof reports whether the client-supplied M1 matches our M.
// True means both sides derived the same session key, i.e. the password is
// correct.
func (s *SRP6) VerifyClientProof(clientM1 []byte) bool {
	ourM := s.m.LittleEndianBytes(len(clientM1))
	if len(ourM) != len(clientM1) {
		return false
	}
	for i := range clientM1 {
		if ourM[i] != clientM1[i] {
			return false
		}
	}
	return true
}

// FinalizeServerResponse returns the confirmation hash SHA1(A || M || K)
// sent back to the client after a successful proof.
func (s *SRP6) FinalizeServerResponse() [Sha1Digest]byte {
	sha := NewSha1()
	sha.WriteBigNumbers(s.bigA, s.m, s.k)
	return sha.Sum()
}

// CalculateVerifierRandom derives v from the identity hash with a freshly
// randomized 32-byte salt. Used when auto-provisioning accounts.
func (s *SRP6) CalculateVerifierRandom(identityHashHex string) bool {
	salt := NewBigNumber()
	salt.SetRandom(SaltSize * 8)
	return s.CalculateVerifier(identityHashHex, salt.Hex())
}

// CalculateVerifier derives v = g^x mod N with x = SHA1(s || rI), where rI is
// the 20-byte identity hash. Leading zeros lost in the hex form are restored
// before the digest is reversed into hash input order.
func (s *SRP6) CalculateVerifier(identityHashHex, saltHex string) bool {
	if !s.s.SetHex(saltHex) || s.s.IsZero() {
		return false
	}

	ri := NewBigNumber()
	ri.SetHex(identityHashHex)

	var digest [Sha1Digest]byte
	if ri.NumBytes() <= Sha1Digest {
		copy(digest[:], ri.LittleEndianBytes(0))
	}
	for i, j := 0, len(digest)-1; i < j; i, j = i+1, j-1 {
		digest[i], digest[j] = digest[j], digest[i]
	}

	sha := NewSha1()
	sha.WriteBytes(s.s.LittleEndianBytes(0))
	sha.WriteBytes(digest[:])
	xDigest := sha.Sum()

	x := NewBigNumber()
	x.SetLittleEndianBytes(xDigest[:])
	s.v = s.g.ModExp(x, s.n)
	return true
}

// VerifierMatches reports whether the stored verifier equals the hex value vc.
func (s *SRP6) VerifierMatches(vc string) bool {
	return s.v.Hex() == vc
}

// HostPublicEphemeral returns B.
func (s *SRP6) HostPublicEphemeral() *BigNumber { return s.bigB }

// Generator returns g.
func (s *SRP6) Generator() *BigNumber { return s.g }

// Prime returns N.
func (s *SRP6) Prime() *BigNumber { return s.n }

// Salt returns s.
func (s *SRP6) Salt() *BigNumber { return s.s }

// Verifier returns v.
func (s *SRP6) Verifier() *BigNumber { return s.v }

// Proof returns M.
func (s *SRP6) Proof() *BigNumber { return s.m }

// StrongSessionKey returns K.
func (s *SRP6) StrongSessionKey() *BigNumber { return s.k }
