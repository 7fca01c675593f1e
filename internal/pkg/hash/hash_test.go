package hash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_RoundTrip(t *testing.T) {
	h := New(DefaultIterations)
	for _, secret := range []string{"Secret1!", "4821", "päsphilosophy", ""} {
		tagged, err := h.Hash(secret)
		require.NoError(t, err)
		assert.True(t, h.Verify(secret, tagged))
		assert.False(t, h.Verify(secret+"x", tagged))
	}
}

func TestHash_MintsTaggedPBKDF2(t *testing.T) {
	h := New(DefaultIterations)
	tagged, err := h.Hash("hunter22")
	require.NoError(t, err)

	parts := strings.Split(tagged, "$")
	require.Len(t, parts, 4)
	assert.Equal(t, "pbkdf2", parts[0])
	assert.Equal(t, "100000", parts[1])
	// salt must be random per secret
	again, err := h.Hash("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, tagged, again)
}

func TestVerify_LegacySHA256(t *testing.T) {
	h := New(DefaultIterations)
	sum := sha256.Sum256([]byte("oldpassword"))
	legacy := "sha256$" + hex.EncodeToString(sum[:])

	assert.True(t, h.Verify("oldpassword", legacy))
	assert.False(t, h.Verify("oldpasswordx", legacy))
}

func TestVerify_UnknownOrMalformedTag(t *testing.T) {
	h := New(DefaultIterations)
	for _, tagged := range []string{
		"",
		"plain",
		"md5$abcdef",
		"pbkdf2$notanumber$aa$bb",
		"pbkdf2$100000$zz$bb",
		"pbkdf2$100000$aa",
		"sha256$nothex",
	} {
		assert.False(t, h.Verify("anything", tagged), "tag %q must not verify", tagged)
	}
}

func TestNew_RaisesWeakIterationCount(t *testing.T) {
	h := New(1)
	tagged, err := h.Hash("s")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(tagged, "pbkdf2$100000$"))
}
