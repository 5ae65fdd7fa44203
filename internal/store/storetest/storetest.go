// Package storetest is the conformance suite every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
)

// Factory opens a fresh, empty store. Cleanup is the factory's job.
type Factory func(t *testing.T) store.Store

// Run executes the contract tests against stores produced by open.
func Run(t *testing.T, open Factory) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, open(t)) })
	t.Run("InsertThenGet", func(t *testing.T) { testInsertThenGet(t, open(t)) })
	t.Run("InsertOccupied", func(t *testing.T) { testInsertOccupied(t, open(t)) })
	t.Run("UpdateMissing", func(t *testing.T) { testUpdateMissing(t, open(t)) })
	t.Run("UpdateOverwrites", func(t *testing.T) { testUpdateOverwrites(t, open(t)) })
	t.Run("AddressIsolation", func(t *testing.T) { testAddressIsolation(t, open(t)) })
	t.Run("MaxLengthName", func(t *testing.T) { testMaxLengthName(t, open(t)) })
	t.Run("ConcurrentInsert", func(t *testing.T) { testConcurrentInsert(t, open(t)) })
}

func addr(b byte) ir.Address { return ir.Address{b, 0xAA} }

func owner(b byte) ir.Identity { return ir.Identity{b, 0x55} }

func testGetMissing(t *testing.T, s store.Store) {
	_, err := s.Get(context.Background(), addr(1))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testInsertThenGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec := ir.UserStats{Owner: owner(1), Name: "brian"}

	require.NoError(t, s.Insert(ctx, addr(1), rec))

	got, err := s.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func testInsertOccupied(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, addr(1), ir.UserStats{Owner: owner(1), Name: "first"}))

	err := s.Insert(ctx, addr(1), ir.UserStats{Owner: owner(1), Name: "second"})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)
}

func testUpdateMissing(t *testing.T, s store.Store) {
	ctx := context.Background()
	err := s.Update(ctx, addr(1), ir.UserStats{Owner: owner(1), Name: "tom"})
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Get(ctx, addr(1))
	assert.ErrorIs(t, err, store.ErrNotFound, "update must not create")
}

func testUpdateOverwrites(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, addr(1), ir.UserStats{Owner: owner(1), Name: "brian"}))
	require.NoError(t, s.Update(ctx, addr(1), ir.UserStats{Owner: owner(1), Name: "tom"}))

	got, err := s.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, ir.UserStats{Owner: owner(1), Name: "tom"}, got)
}

func testAddressIsolation(t *testing.T, s store.Store) {
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, addr(1), ir.UserStats{Owner: owner(1), Name: "brian"}))
	require.NoError(t, s.Insert(ctx, addr(2), ir.UserStats{Owner: owner(2), Name: "alice"}))
	require.NoError(t, s.Update(ctx, addr(2), ir.UserStats{Owner: owner(2), Name: "carol"}))

	got, err := s.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, "brian", got.Name)

	got, err = s.Get(ctx, addr(2))
	require.NoError(t, err)
	assert.Equal(t, "carol", got.Name)
}

func testMaxLengthName(t *testing.T, s store.Store) {
	ctx := context.Background()
	rec := ir.UserStats{Owner: owner(1), Name: strings.Repeat("x", ir.MaxNameLen)}
	require.NoError(t, s.Insert(ctx, addr(1), rec))

	got, err := s.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func testConcurrentInsert(t *testing.T, s store.Store) {
	const racers = 8
	ctx := context.Background()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		losses int
		other  []error
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Insert(ctx, addr(1), ir.UserStats{Owner: owner(1), Name: string(rune('a' + i))})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case errors.Is(err, store.ErrAlreadyExists):
				losses++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()

	require.Empty(t, other)
	assert.Equal(t, 1, wins)
	assert.Equal(t, racers-1, losses)

	got, err := s.Get(ctx, addr(1))
	require.NoError(t, err)
	assert.Len(t, got.Name, 1)
}
