// Package memory provides an in-process Store backed by a map.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps records in a map guarded by a RWMutex.
// The zero value is not usable; call New.
type Store struct {
	mu      sync.RWMutex
	records map[ir.Address]ir.UserStats
}

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[ir.Address]ir.UserStats)}
}

// Get returns the record at addr.
func (s *Store) Get(_ context.Context, addr ir.Address) (ir.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[addr]
	if !ok {
		return ir.UserStats{}, fmt.Errorf("get %s: %w", addr, store.ErrNotFound)
	}
	return rec, nil
}

// Insert stores rec at addr if the slot is empty.
func (s *Store) Insert(_ context.Context, addr ir.Address, rec ir.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[addr]; ok {
		return fmt.Errorf("insert %s: %w", addr, store.ErrAlreadyExists)
	}
	s.records[addr] = rec
	return nil
}

// Update replaces the record at addr.
func (s *Store) Update(_ context.Context, addr ir.Address, rec ir.UserStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[addr]; !ok {
		return fmt.Errorf("update %s: %w", addr, store.ErrNotFound)
	}
	s.records[addr] = rec
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }
