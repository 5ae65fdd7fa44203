package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
	"github.com/roach88/userstats/internal/store/storetest"
)

func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.bolt"), WithNoSync(true))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBoltStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return createTestStore(t) })
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.ErrorContains(t, err, "path is required")
}

func TestOpen_LockedFileTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bolt")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = Open(path, WithTimeout(50*time.Millisecond))
	assert.Error(t, err)
}

func TestRecordsSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.bolt")
	rec := ir.UserStats{Owner: ir.Identity{7}, Name: "brian"}

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Insert(ctx, ir.Address{1}, rec))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.Get(ctx, ir.Address{1})
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestGet_DetectsTamperedDigest(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	addr := ir.Address{1}
	require.NoError(t, s.Insert(ctx, addr, ir.UserStats{Owner: ir.Identity{7}, Name: "brian"}))

	require.NoError(t, s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDigests).Put(addr[:], []byte("deadbeef"))
	}))

	_, err := s.Get(ctx, addr)
	assert.ErrorIs(t, err, store.ErrCorrupt)
}

func TestCanceledContext(t *testing.T) {
	s := createTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.Insert(ctx, ir.Address{1}, ir.UserStats{Name: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}
