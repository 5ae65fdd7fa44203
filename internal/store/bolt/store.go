// Package bolt stores UserStats accounts in a bbolt database file.
package bolt

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
)

var (
	bucketAccounts = []byte("accounts")
	bucketDigests  = []byte("digests")
)

var _ store.Store = (*Store)(nil)

// Store persists accounts in bbolt. Keys are raw 32-byte addresses.
// bbolt serializes write transactions, so insert-if-absent is atomic.
type Store struct {
	db      *bbolt.DB
	logger  *slog.Logger
	timeout time.Duration
	noSync  bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithTimeout sets how long Open waits for the file lock.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

// WithNoSync disables fsync per transaction.
// Use only for tests; a crash may lose committed writes.
func WithNoSync(noSync bool) Option {
	return func(s *Store) {
		s.noSync = noSync
	}
}

// Open opens or creates the database at path.
func Open(path string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	s := &Store{
		logger:  slog.Default(),
		timeout: time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{
		Timeout: s.timeout,
		NoSync:  s.noSync,
	})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	s.db = db

	if err := s.createBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.logger.Debug("opened bolt store", "path", path, "noSync", s.noSync)
	return s, nil
}

func (s *Store) createBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketAccounts, bucketDigests} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("creating bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.logger.Debug("closing bolt store")
	return s.db.Close()
}

// Get returns the account stored at addr.
func (s *Store) Get(ctx context.Context, addr ir.Address) (ir.UserStats, error) {
	if err := ctx.Err(); err != nil {
		return ir.UserStats{}, err
	}

	var rec ir.UserStats
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketAccounts).Get(addr[:])
		if data == nil {
			return store.ErrNotFound
		}
		digest := tx.Bucket(bucketDigests).Get(addr[:])

		// Values are only valid for the life of the transaction;
		// DecodeRow copies what it keeps.
		var err error
		rec, err = store.DecodeRow(data, string(digest))
		return err
	})
	if err != nil {
		return ir.UserStats{}, fmt.Errorf("get %s: %w", addr, err)
	}
	return rec, nil
}

// Insert writes rec at addr unless the address is occupied.
func (s *Store) Insert(ctx context.Context, addr ir.Address, rec ir.UserStats) error {
	return s.put(ctx, "insert", addr, rec, false)
}

// Update overwrites the account at addr.
func (s *Store) Update(ctx context.Context, addr ir.Address, rec ir.UserStats) error {
	return s.put(ctx, "update", addr, rec, true)
}

func (s *Store) put(ctx context.Context, op string, addr ir.Address, rec ir.UserStats, mustExist bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, digest, err := store.EncodeRow(rec)
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, addr, err)
	}

	err = s.db.Update(func(tx *bbolt.Tx) error {
		accounts := tx.Bucket(bucketAccounts)
		exists := accounts.Get(addr[:]) != nil
		switch {
		case mustExist && !exists:
			return store.ErrNotFound
		case !mustExist && exists:
			return store.ErrAlreadyExists
		}
		if err := accounts.Put(addr[:], data); err != nil {
			return err
		}
		return tx.Bucket(bucketDigests).Put(addr[:], []byte(digest))
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, addr, err)
	}
	return nil
}
