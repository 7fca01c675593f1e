package hash

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Scheme tags carried in the first segment of a stored hash.
const (
	schemePBKDF2 = "pbkdf2"
	schemeSHA256 = "sha256"
)

const (
	// DefaultIterations is the PBKDF2-SHA256 work factor for newly minted
	// credentials.
	DefaultIterations = 100000
	minIterations     = 10000
	saltBytes         = 12
	keyBytes          = 32
)

// Hasher mints and verifies tagged credential digests.
//
// New credentials are always minted as pbkdf2$<iterations>$<saltHex>$<digestHex>
// with a random per-secret salt. Verify additionally recognises the legacy
// sha256$<digestHex> scheme carried over from early installs; it is never
// minted. Unknown or malformed tags verify false.
type Hasher struct {
	iterations int
}

// New returns a Hasher with the given PBKDF2 iteration count. Counts below
// the floor are raised to it so a misconfigured deployment cannot weaken
// newly minted hashes.
func New(iterations int) *Hasher {
	if iterations < minIterations {
		iterations = DefaultIterations
	}
	return &Hasher{iterations: iterations}
}

// Hash derives a tagged digest for the secret.
func (h *Hasher) Hash(secret string) (string, error) {
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(secret), salt, h.iterations, keyBytes, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s",
		schemePBKDF2, h.iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

// Verify reports whether the secret matches the tagged digest. It dispatches
// on the scheme tag and never returns an error: anything unparseable is a
// mismatch.
func (h *Hasher) Verify(secret, tagged string) bool {
	parts := strings.Split(tagged, "$")
	switch parts[0] {
	case schemePBKDF2:
		if len(parts) != 4 {
			return false
		}
		iterations, err := strconv.Atoi(parts[1])
		if err != nil || iterations < 1 {
			return false
		}
		salt, err := hex.DecodeString(parts[2])
		if err != nil {
			return false
		}
		want, err := hex.DecodeString(parts[3])
		if err != nil {
			return false
		}
		got := pbkdf2.Key([]byte(secret), salt, iterations, len(want), sha256.New)
		return subtle.ConstantTimeCompare(got, want) == 1
	case schemeSHA256:
		if len(parts) != 2 {
			return false
		}
		want, err := hex.DecodeString(parts[1])
		if err != nil {
			return false
		}
		got := sha256.Sum256([]byte(secret))
		return subtle.ConstantTimeCompare(got[:], want) == 1
	default:
		return false
	}
}
