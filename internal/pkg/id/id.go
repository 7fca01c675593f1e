package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a public account identifier: an "FW-" prefixed ULID.
// ULIDs are lexicographically sortable by creation time and safe to expose;
// the prefix matches the identifier shape the desktop client displays.
func New() string {
	return "FW-" + ulid.MustNew(ulid.Now(), rand.Reader).String()
}
