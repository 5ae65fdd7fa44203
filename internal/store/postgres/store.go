// Package postgres stores UserStats accounts in Postgres through the pgx
// database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
)

var _ store.Store = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/userstats?sslmode=disable"
)

//go:embed schema.sql
var schemaSQL string

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Store persists accounts in a Postgres table.
type Store struct {
	db *sql.DB
}

// Open connects to dsn (defaultDSN when empty) and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying sql.DB for integration tests.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the account stored at addr.
func (s *Store) Get(ctx context.Context, addr ir.Address) (ir.UserStats, error) {
	var (
		data   []byte
		digest string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, digest FROM user_stats_accounts WHERE address = $1`,
		addr.String(),
	).Scan(&data, &digest)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.UserStats{}, fmt.Errorf("get %s: %w", addr, store.ErrNotFound)
	}
	if err != nil {
		return ir.UserStats{}, fmt.Errorf("get %s: %w", addr, err)
	}

	rec, err := store.DecodeRow(data, digest)
	if err != nil {
		return ir.UserStats{}, fmt.Errorf("get %s: %w", addr, err)
	}
	return rec, nil
}

// Insert writes rec at addr unless the address is occupied.
func (s *Store) Insert(ctx context.Context, addr ir.Address, rec ir.UserStats) error {
	data, digest, err := store.EncodeRow(rec)
	if err != nil {
		return fmt.Errorf("insert %s: %w", addr, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO user_stats_accounts (address, owner, data, digest)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (address) DO NOTHING
	`, addr.String(), rec.Owner.String(), data, digest)
	if err != nil {
		return fmt.Errorf("insert %s: %w", addr, err)
	}
	return checkAffected("insert", addr, res, store.ErrAlreadyExists)
}

// Update overwrites the account at addr.
func (s *Store) Update(ctx context.Context, addr ir.Address, rec ir.UserStats) error {
	data, digest, err := store.EncodeRow(rec)
	if err != nil {
		return fmt.Errorf("update %s: %w", addr, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE user_stats_accounts SET owner = $1, data = $2, digest = $3
		WHERE address = $4
	`, rec.Owner.String(), data, digest, addr.String())
	if err != nil {
		return fmt.Errorf("update %s: %w", addr, err)
	}
	return checkAffected("update", addr, res, store.ErrNotFound)
}

func checkAffected(op string, addr ir.Address, res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: rows affected: %w", op, addr, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", op, addr, none)
	}
	return nil
}
