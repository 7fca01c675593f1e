package otp

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^\d{6}$`)

func TestIssue_CodeFormatAndExpiry(t *testing.T) {
	before := time.Now()
	ch, err := Issue(60 * time.Second)
	require.NoError(t, err)

	assert.Regexp(t, sixDigits, ch.Code)
	assert.True(t, ch.ExpiresAt.After(before.Add(59*time.Second)))
	assert.True(t, ch.ExpiresAt.Before(before.Add(61*time.Second)))
}

func TestIssue_CodesVary(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		ch, err := Issue(time.Minute)
		require.NoError(t, err)
		seen[ch.Code] = true
	}
	// 20 draws from a million-code space colliding down to 1 would mean a
	// broken random source.
	assert.Greater(t, len(seen), 1)
}

func TestResolve(t *testing.T) {
	issued := time.Now()
	expiry := issued.Add(60 * time.Second)

	assert.Equal(t, Valid, Resolve("482913", expiry, "482913", issued.Add(30*time.Second)))
	assert.Equal(t, Mismatch, Resolve("482913", expiry, "000000", issued.Add(30*time.Second)))
	assert.Equal(t, Expired, Resolve("482913", expiry, "482913", issued.Add(61*time.Second)))
	// expiry wins over mismatch
	assert.Equal(t, Expired, Resolve("482913", expiry, "000000", issued.Add(61*time.Second)))
}
