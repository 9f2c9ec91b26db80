package crypto

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSha1KnownVector(t *testing.T) {
	sha := NewSha1()
	sha.WriteString("abc")
	digest := sha.Sum()

	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", hex.EncodeToString(digest[:]))
}

func TestSha1Reset(t *testing.T) {
	sha := NewSha1()
	sha.WriteString("garbage")
	sha.Reset()
	sha.WriteString("abc")
	digest := sha.Sum()

	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", hex.EncodeToString(digest[:]))
}

func TestMd5KnownVector(t *testing.T) {
	md := NewMd5()
	md.WriteString("abc")
	digest := md.Sum()

	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", hex.EncodeToString(digest[:]))
}

func TestHmacSha1RFC2202(t *testing.T) {
	// RFC 2202 test case 1
	key := bytes.Repeat([]byte{0x0b}, 20)
	mac := HmacSha1(key, []byte("Hi There"))

	assert.Equal(t, "b617318655057264e28bc0b6fb378c8ef146be00", hex.EncodeToString(mac[:]))
}

func TestWriteBigNumbersUsesWireOrder(t *testing.T) {
	b := NewBigNumber()
	require.True(t, b.SetHex("0102030405"))

	sha := NewSha1()
	sha.WriteBigNumbers(b)
	viaBigNumber := sha.Sum()

	sha.Reset()
	sha.WriteBytes(b.LittleEndianBytes(0))
	viaBytes := sha.Sum()

	assert.Equal(t, viaBytes, viaBigNumber)
}
