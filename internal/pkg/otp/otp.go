package otp

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"math/big"
	"time"
)

// CodeLength is the number of digits in an issued code.
const CodeLength = 6

var codeSpace = big.NewInt(1000000)

// Challenge is an issued one-time code with its absolute deadline.
type Challenge struct {
	Code      string
	ExpiresAt time.Time
}

// Outcome is the result of resolving a submitted code against a stored one.
type Outcome int

const (
	// Valid means the codes match inside the window. The stored code must be
	// cleared by the caller: codes are single use.
	Valid Outcome = iota
	// Expired means the deadline passed. The stored code must be cleared.
	Expired
	// Mismatch means the codes differ inside the window. The stored code is
	// left intact so the caller may retry until expiry.
	Mismatch
)

// Issue mints a 6-digit numeric code from crypto/rand with an absolute
// expiry of now + ttl. The code is the sole proof of address ownership, so a
// cryptographically strong source is required even on a trusted channel.
func Issue(ttl time.Duration) (Challenge, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return Challenge{}, fmt.Errorf("generate otp: %w", err)
	}
	return Challenge{
		Code:      fmt.Sprintf("%06d", n.Int64()),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// Resolve checks a submitted code against the stored one. Expiry wins over
// mismatch: a stale code is Expired regardless of what was submitted.
func Resolve(stored string, expiresAt time.Time, submitted string, now time.Time) Outcome {
	if now.After(expiresAt) {
		return Expired
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1 {
		return Valid
	}
	return Mismatch
}
