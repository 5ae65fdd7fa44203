package testutil

import (
	"crypto/sha256"

	"github.com/roach88/userstats/internal/ir"
)

// identityDomain separates test identities from every other digest.
const identityDomain = "userstats/test-identity/v1"

// ProgramID is the program identity used by tests and scenarios.
var ProgramID = ir.MustParseIdentity("7AwuU7HNHrE2GgS4tRdZLdnJmG4Pz5HjgDkd7fDVtoLK")

// Identity derives a stable wallet identity from a human label, so tests can
// say "brian" and "alice" instead of pasting base58 keys.
//
//	Identity(label) = SHA256("userstats/test-identity/v1" || 0x00 || label)
func Identity(label string) ir.Identity {
	h := sha256.New()
	h.Write([]byte(identityDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(label))

	var id ir.Identity
	copy(id[:], h.Sum(nil))
	return id
}
