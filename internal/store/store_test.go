package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/userstats/internal/ir"
)

func TestEncodeDecodeRow(t *testing.T) {
	rec := ir.UserStats{Owner: ir.Identity{4}, Name: "brian"}

	data, digest, err := EncodeRow(rec)
	require.NoError(t, err)
	assert.Equal(t, ir.MustRecordDigest(rec), digest)

	got, err := DecodeRow(data, digest)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	// Digest verification is optional.
	got, err = DecodeRow(data, "")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestDecodeRowDetectsCorruption(t *testing.T) {
	rec := ir.UserStats{Owner: ir.Identity{4}, Name: "brian"}
	data, digest, err := EncodeRow(rec)
	require.NoError(t, err)

	_, err = DecodeRow(data[:5], digest)
	assert.ErrorIs(t, err, ErrCorrupt)

	tampered := append([]byte(nil), data...)
	tampered[len(tampered)-1] = 'x'
	_, err = DecodeRow(tampered, digest)
	assert.ErrorIs(t, err, ErrCorrupt)
	assert.ErrorContains(t, err, "digest mismatch")
}

func TestEncodeRowRejectsLongName(t *testing.T) {
	long := make([]byte, ir.MaxNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, _, err := EncodeRow(ir.UserStats{Name: string(long)})
	assert.Error(t, err)
}
