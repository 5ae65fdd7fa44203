package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/userstats/internal/ir"
)

var (
	// ErrNotFound is returned when no record exists at an address.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists is returned by Insert when the address is occupied.
	ErrAlreadyExists = errors.New("record already exists")

	// ErrCorrupt is returned when persisted account data fails validation.
	ErrCorrupt = errors.New("record data corrupt")
)

// Store is keyed record storage addressed by derived addresses.
type Store interface {
	// Get returns the record at addr or ErrNotFound.
	Get(ctx context.Context, addr ir.Address) (ir.UserStats, error)

	// Insert stores rec at addr if and only if addr is empty.
	Insert(ctx context.Context, addr ir.Address, rec ir.UserStats) error

	// Update replaces the record at addr or returns ErrNotFound.
	Update(ctx context.Context, addr ir.Address, rec ir.UserStats) error

	// Close releases backend resources.
	Close() error
}

// Backend names accepted by configuration.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
)

// Backends lists every supported backend name.
var Backends = []string{BackendMemory, BackendSQLite, BackendBolt, BackendPostgres}

// EncodeRow returns the persisted account data and its digest.
func EncodeRow(rec ir.UserStats) (data []byte, digest string, err error) {
	data, err = rec.MarshalBinary()
	if err != nil {
		return nil, "", err
	}
	digest, err = ir.RecordDigest(rec)
	if err != nil {
		return nil, "", err
	}
	return data, digest, nil
}

// DecodeRow decodes account data and, when digest is non-empty, verifies it.
func DecodeRow(data []byte, digest string) (ir.UserStats, error) {
	var rec ir.UserStats
	if err := rec.UnmarshalBinary(data); err != nil {
		return ir.UserStats{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if digest == "" {
		return rec, nil
	}
	got, err := ir.RecordDigest(rec)
	if err != nil {
		return ir.UserStats{}, err
	}
	if got != digest {
		return ir.UserStats{}, fmt.Errorf("%w: digest mismatch", ErrCorrupt)
	}
	return rec, nil
}
