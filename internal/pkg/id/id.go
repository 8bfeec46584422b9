package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. Passcode records are tagged with one so a
// store can delete exactly the record that was read and verified.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
