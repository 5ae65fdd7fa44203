// Package store defines durable keyed storage for UserStats records.
//
// A Store maps a derived Address to a UserStats record. Backends live in
// subpackages and share one contract:
//
//   - memory:   sync.RWMutex-guarded map, used by tests and the scenario harness
//   - sqlite:   SQLite file (WAL) via mattn/go-sqlite3
//   - bolt:     bbolt single-file B+tree
//   - postgres: Postgres via the pgx database/sql driver
//
// # Contract
//
// Insert is insert-if-absent and atomic: of two racing inserts at the same
// address exactly one succeeds and the other returns ErrAlreadyExists. No
// partially written record is ever observable.
//
// Update overwrites an existing record and returns ErrNotFound when the
// address is empty. Get returns ErrNotFound for an empty address.
//
// Backends serialize operations per address; callers hold no locks. The store
// performs no authorization: it trusts that the engine already checked the
// address against the caller.
//
// Durable backends persist the record's binary account layout
// (ir.UserStats.MarshalBinary). SQL backends additionally store
// ir.RecordDigest and verify it on read, surfacing ErrCorrupt on mismatch.
package store
