// Package sqlite stores UserStats accounts in a SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
)

//go:embed schema.sql
var schemaSQL string

var _ store.Store = (*Store)(nil)

// Store persists accounts in SQLite.
// Uses WAL mode and a single connection so writes are serialized.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - 5-second busy timeout for lock contention
//
// Open is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection also makes
	// insert-if-absent free of SQLITE_BUSY races.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
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
		`SELECT data, digest FROM accounts WHERE address = ?`,
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

// Insert writes rec at addr unless the address is already occupied.
// Uses ON CONFLICT(address) DO NOTHING; zero rows affected means the slot was taken.
func (s *Store) Insert(ctx context.Context, addr ir.Address, rec ir.UserStats) error {
	data, digest, err := store.EncodeRow(rec)
	if err != nil {
		return fmt.Errorf("insert %s: %w", addr, err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (address, owner, data, digest)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(address) DO NOTHING
	`, addr.String(), rec.Owner.String(), data, digest)
	if err != nil {
		return fmt.Errorf("insert %s: %w", addr, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert %s: rows affected: %w", addr, err)
	}
	if n == 0 {
		return fmt.Errorf("insert %s: %w", addr, store.ErrAlreadyExists)
	}
	return nil
}

// Update overwrites the account at addr.
func (s *Store) Update(ctx context.Context, addr ir.Address, rec ir.UserStats) error {
	data, digest, err := store.EncodeRow(rec)
	if err != nil {
		return fmt.Errorf("update %s: %w", addr, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET owner = ?, data = ?, digest = ?
		WHERE address = ?
	`, rec.Owner.String(), data, digest, addr.String())
	if err != nil {
		return fmt.Errorf("update %s: %w", addr, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s: rows affected: %w", addr, err)
	}
	if n == 0 {
		return fmt.Errorf("update %s: %w", addr, store.ErrNotFound)
	}
	return nil
}

// Count returns the number of stored accounts.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count accounts: %w", err)
	}
	return n, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > ir.SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, ir.SchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", ir.SchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

func (s *Store) pragma(name string) (string, error) {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return "", fmt.Errorf("failed to query %s: %w", name, err)
	}
	return value, nil
}
