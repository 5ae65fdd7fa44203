package derive

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"filippo.io/edwards25519"

	"github.com/roach88/userstats/internal/ir"
)

// Seed limits match the host runtime's program-address rules.
const (
	MaxSeedLen = 32
	MaxSeeds   = 16
)

// pdaMarker is appended after the program id so derived digests live in
// their own domain.
const pdaMarker = "ProgramDerivedAddress"

var (
	// ErrMaxSeedLength is returned when a single seed exceeds MaxSeedLen bytes.
	ErrMaxSeedLength = errors.New("seed exceeds maximum length")

	// ErrMaxSeeds is returned when more than MaxSeeds seeds (bump included) are supplied.
	ErrMaxSeeds = errors.New("too many seeds")

	// ErrOnCurve is returned when a candidate digest is a valid ed25519 point.
	ErrOnCurve = errors.New("derived address is on the ed25519 curve")

	// ErrDerivationExhausted is returned when no bump in [0,255] yields an
	// off-curve address.
	ErrDerivationExhausted = errors.New("no viable bump seed")
)

// IsOnCurve reports whether b decodes as an ed25519 point, i.e. whether b
// could be a signable public key.
func IsOnCurve(b []byte) bool {
	_, err := new(edwards25519.Point).SetBytes(b)
	return err == nil
}

// deriver holds the curve predicate so tests can force exhaustion.
type deriver struct {
	onCurve func([]byte) bool
}

var defaultDeriver = deriver{onCurve: IsOnCurve}

// CreateProgramAddress hashes seeds with the program id into an address.
// Fails with ErrOnCurve when the result is a valid public key.
func CreateProgramAddress(seeds [][]byte, program ir.Identity) (ir.Address, error) {
	return defaultDeriver.create(seeds, program)
}

// FindProgramAddress appends a bump seed to seeds, scanning from 255 down to 0,
// and returns the first off-curve address with the bump that produced it.
func FindProgramAddress(seeds [][]byte, program ir.Identity) (ir.Address, uint8, error) {
	return defaultDeriver.find(seeds, program)
}

func (d deriver) create(seeds [][]byte, program ir.Identity) (ir.Address, error) {
	if len(seeds) > MaxSeeds {
		return ir.Address{}, fmt.Errorf("%w: %d > %d", ErrMaxSeeds, len(seeds), MaxSeeds)
	}

	h := sha256.New()
	for i, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return ir.Address{}, fmt.Errorf("%w: seed %d is %d bytes", ErrMaxSeedLength, i, len(seed))
		}
		h.Write(seed)
	}
	h.Write(program[:])
	h.Write([]byte(pdaMarker))

	var addr ir.Address
	copy(addr[:], h.Sum(nil))
	if d.onCurve(addr[:]) {
		return ir.Address{}, ErrOnCurve
	}
	return addr, nil
}

func (d deriver) find(seeds [][]byte, program ir.Identity) (ir.Address, uint8, error) {
	// One slot is reserved for the bump.
	if len(seeds) >= MaxSeeds {
		return ir.Address{}, 0, fmt.Errorf("%w: %d seeds leave no room for the bump", ErrMaxSeeds, len(seeds))
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)
	bump := []byte{0}
	withBump[len(seeds)] = bump

	for b := 255; b >= 0; b-- {
		bump[0] = uint8(b)
		addr, err := d.create(withBump, program)
		if err == nil {
			return addr, uint8(b), nil
		}
		if !errors.Is(err, ErrOnCurve) {
			return ir.Address{}, 0, err
		}
	}
	return ir.Address{}, 0, ErrDerivationExhausted
}
