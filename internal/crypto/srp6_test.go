package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identityHash mimics the client: SHA1("USER:PASSWORD") over the uppercased
// credentials.
func identityHash(username, password string) [Sha1Digest]byte {
	sha := NewSha1()
	sha.WriteString(strings.ToUpper(username) + ":" + strings.ToUpper(password))
	return sha.Sum()
}

// clientSessionKey runs the client side of the exchange: given the server
// challenge (B, s) and the password-derived x, computes the client's 40-byte
// strong session key and its proof M1.
func clientSessionKey(t *testing.T, username string, identity [Sha1Digest]byte, a, bigA, bigB, salt *BigNumber) (*BigNumber, [Sha1Digest]byte) {
	t.Helper()

	n := NewBigNumber()
	require.True(t, n.SetHex(srp6PrimeHex))
	g := BigNumberFromUint32(srp6Generator)

	// x = SHA1(s || identity)
	sha := NewSha1()
	sha.WriteBytes(salt.LittleEndianBytes(0))
	sha.WriteBytes(identity[:])
	xDigest := sha.Sum()
	x := NewBigNumber()
	x.SetLittleEndianBytes(xDigest[:])

	// u = SHA1(A || B)
	sha.Reset()
	sha.WriteBigNumbers(bigA, bigB)
	uDigest := sha.Sum()
	u := NewBigNumber()
	u.SetLittleEndianBytes(uDigest[:])

	// S = (B + N - 3*g^x mod N)^(a + u*x) mod N
	gx := g.ModExp(x, n)
	base := bigB.Add(n).Sub(gx.MulScalar(3).Mod(n)).Mod(n)
	exp := a.Add(u.Mul(x))
	bigS := base.ModExp(exp, n)

	// interleaved strong session key
	raw := bigS.LittleEndianBytes(EphemeralSize)
	var half [16]byte
	var vk [SessionKeySize]byte
	for i := 0; i < 16; i++ {
		half[i] = raw[i*2]
	}
	sha.Reset()
	sha.WriteBytes(half[:])
	even := sha.Sum()
	for i := 0; i < Sha1Digest; i++ {
		vk[i*2] = even[i]
	}
	for i := 0; i < 16; i++ {
		half[i] = raw[i*2+1]
	}
	sha.Reset()
	sha.WriteBytes(half[:])
	odd := sha.Sum()
	for i := 0; i < Sha1Digest; i++ {
		vk[i*2+1] = odd[i]
	}
	k := NewBigNumber()
	k.SetLittleEndianBytes(vk[:])

	// M1 = SHA1((H(N) XOR H(g)) || H(username) || s || A || B || K)
	sha.Reset()
	sha.WriteBigNumbers(n)
	hN := sha.Sum()
	sha.Reset()
	sha.WriteBigNumbers(g)
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
	sha.WriteBigNumbers(salt, bigA, bigB, k)
	return k, sha.Sum()
}

func TestSRP6FullExchange(t *testing.T) {
	const username = "ALICE"
	identity := identityHash(username, "SECRET")

	// registration
	reg := NewSRP6()
	require.True(t, reg.CalculateVerifierRandom(strings.ToUpper(hex.EncodeToString(identity[:]))))
	verifierHex := reg.Verifier().Hex()
	saltHex := reg.Salt().Hex()

	// logon challenge
	server := NewSRP6()
	require.True(t, server.SetVerifier(verifierHex))
	require.True(t, server.SetSalt(saltHex))
	server.GenerateChallenge()
	require.False(t, server.HostPublicEphemeral().IsZero())

	// client ephemeral
	n := NewBigNumber()
	require.True(t, n.SetHex(srp6PrimeHex))
	g := BigNumberFromUint32(srp6Generator)
	a := NewBigNumber()
	a.SetRandom(hostEphemeralBits)
	bigA := g.ModExp(a, n)

	clientK, m1 := clientSessionKey(t, username, identity, a, bigA, server.HostPublicEphemeral(), server.Salt())

	// logon proof
	require.True(t, server.AgreeSessionKey(bigA.LittleEndianBytes(EphemeralSize)))
	server.DeriveStrongSessionKey()
	server.ComputeServerProof(username)

	assert.True(t, server.VerifyClientProof(m1[:]), "client proof must verify with the correct password")
	assert.Equal(t, clientK.Hex(), server.StrongSessionKey().Hex(), "both sides must derive the same session key")
	assert.Equal(t, SessionKeySize, len(server.StrongSessionKey().LittleEndianBytes(SessionKeySize)))

	// server confirmation M2 = SHA1(A || M || K), reproducible client-side
	sha := NewSha1()
	sha.WriteBigNumbers(bigA, server.Proof(), clientK)
	assert.Equal(t, sha.Sum(), server.FinalizeServerResponse())
}

func TestSRP6WrongPassword(t *testing.T) {
	const username = "ALICE"

	reg := NewSRP6()
	identity := identityHash(username, "SECRET")
	require.True(t, reg.CalculateVerifierRandom(strings.ToUpper(hex.EncodeToString(identity[:]))))

	server := NewSRP6()
	require.True(t, server.SetVerifier(reg.Verifier().Hex()))
	require.True(t, server.SetSalt(reg.Salt().Hex()))
	server.GenerateChallenge()

	n := NewBigNumber()
	require.True(t, n.SetHex(srp6PrimeHex))
	g := BigNumberFromUint32(srp6Generator)
	a := NewBigNumber()
	a.SetRandom(hostEphemeralBits)
	bigA := g.ModExp(a, n)

	wrongIdentity := identityHash(username, "WRONG")
	_, m1 := clientSessionKey(t, username, wrongIdentity, a, bigA, server.HostPublicEphemeral(), server.Salt())

	require.True(t, server.AgreeSessionKey(bigA.LittleEndianBytes(EphemeralSize)))
	server.DeriveStrongSessionKey()
	server.ComputeServerProof(username)

	assert.False(t, server.VerifyClientProof(m1[:]))
}

func TestAgreeSessionKeyRejectsDegenerateEphemerals(t *testing.T) {
	server := NewSRP6()
	require.True(t, server.CalculateVerifierRandom("DEADBEEF"))
	server.GenerateChallenge()

	// A == 0
	assert.False(t, server.AgreeSessionKey(make([]byte, EphemeralSize)))

	// A == N, so A mod N == 0
	assert.False(t, server.AgreeSessionKey(server.Prime().LittleEndianBytes(EphemeralSize)))
}

func TestSetVerifierAndSaltRejectEmptyOrZero(t *testing.T) {
	s := NewSRP6()
	assert.False(t, s.SetVerifier(""))
	assert.False(t, s.SetVerifier("0"))
	assert.False(t, s.SetSalt(""))
	assert.False(t, s.SetSalt("0"))
	assert.True(t, s.SetVerifier("AB"))
	assert.True(t, s.SetSalt("CD"))
}

func TestDeriveStrongSessionKeyDeterministic(t *testing.T) {
	first := NewSRP6()
	second := NewSRP6()
	first.bigS.SetLittleEndianBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	second.bigS.SetLittleEndianBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8})

	first.DeriveStrongSessionKey()
	second.DeriveStrongSessionKey()

	assert.Equal(t, first.k.Hex(), second.k.Hex())
	assert.Equal(t, SessionKeySize, len(first.k.LittleEndianBytes(SessionKeySize)))
}

func TestCalculateVerifierIsSaltDependent(t *testing.T) {
	identity := strings.ToUpper(hex.EncodeToString(bytesOfLen(Sha1Digest)))

	a := NewSRP6()
	b := NewSRP6()
	require.True(t, a.CalculateVerifier(identity, "AA"))
	require.True(t, b.CalculateVerifier(identity, "BB"))

	assert.False(t, a.VerifierMatches(b.Verifier().Hex()))

	// same salt reproduces the same verifier
	c := NewSRP6()
	require.True(t, c.CalculateVerifier(identity, "AA"))
	assert.True(t, a.VerifierMatches(c.Verifier().Hex()))
}

func bytesOfLen(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i + 1)
	}
	return out
}
