package derive

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/testutil"
)

func TestFindProgramAddressKnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		owner   ir.Identity
		address string
		bump    uint8
	}{
		{"zero owner", ir.Identity{}, "AXmi7Wm5beiQq9psNBaSW2TkNE5FdH9fBHnMrLQaK9eN", 255},
		{"brian", testutil.Identity("brian"), "4hBkye4yuX5SeTg3zDcco7dALGnVX2qVVWRaYxTn9frT", 252},
		{"alice", testutil.Identity("alice"), "3dK2tUsayNjMatkKJz75RQgMfi3t9tFwctTh6h2qy2PD", 254},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, bump, err := FindProgramAddress(
				[][]byte{[]byte(ir.NamespaceTag), tt.owner[:]},
				testutil.ProgramID,
			)
			require.NoError(t, err)
			assert.Equal(t, tt.address, addr.String())
			assert.Equal(t, tt.bump, bump)
		})
	}
}

func TestFindProgramAddressSkipsOnCurveBumps(t *testing.T) {
	owner := testutil.Identity("brian")
	seeds := [][]byte{[]byte(ir.NamespaceTag), owner[:]}

	// brian's first viable bump is 252, so 255..253 must all be on the curve.
	for _, bump := range []byte{255, 254, 253} {
		_, err := CreateProgramAddress(append(seeds, []byte{bump}), testutil.ProgramID)
		assert.ErrorIs(t, err, ErrOnCurve, "bump %d", bump)
	}

	addr, err := CreateProgramAddress(append(seeds, []byte{252}), testutil.ProgramID)
	require.NoError(t, err)
	assert.Equal(t, "4hBkye4yuX5SeTg3zDcco7dALGnVX2qVVWRaYxTn9frT", addr.String())
}

func TestFindProgramAddressResultIsOffCurve(t *testing.T) {
	for _, label := range []string{"a", "b", "c", "d", "e"} {
		owner := testutil.Identity(label)
		addr, bump, err := FindProgramAddress([][]byte{[]byte(ir.NamespaceTag), owner[:]}, testutil.ProgramID)
		require.NoError(t, err)
		assert.False(t, IsOnCurve(addr[:]), "owner %s bump %d", label, bump)

		again, err := CreateProgramAddress([][]byte{[]byte(ir.NamespaceTag), owner[:], {bump}}, testutil.ProgramID)
		require.NoError(t, err)
		assert.Equal(t, addr, again)
	}
}

func TestIsOnCurve(t *testing.T) {
	// ed25519 base point and the RFC 8032 test 1 public key.
	basepoint := append([]byte{0x58}, bytes.Repeat([]byte{0x66}, 31)...)
	assert.True(t, IsOnCurve(basepoint))

	rfc8032 := []byte{
		0xd7, 0x5a, 0x98, 0x01, 0x82, 0xb1, 0x0a, 0xb7, 0xd5, 0x4b, 0xfe, 0xd3, 0xc9, 0x64, 0x07, 0x3a,
		0x0e, 0xe1, 0x72, 0xf3, 0xda, 0xa6, 0x23, 0x25, 0xaf, 0x02, 0x1a, 0x68, 0xf7, 0x07, 0x51, 0x1a,
	}
	assert.True(t, IsOnCurve(rfc8032))

	assert.False(t, IsOnCurve([]byte{1, 2, 3}))
}

func TestCreateProgramAddressSeedLimits(t *testing.T) {
	_, err := CreateProgramAddress([][]byte{make([]byte, MaxSeedLen+1)}, testutil.ProgramID)
	assert.ErrorIs(t, err, ErrMaxSeedLength)

	tooMany := make([][]byte, MaxSeeds+1)
	_, err = CreateProgramAddress(tooMany, testutil.ProgramID)
	assert.ErrorIs(t, err, ErrMaxSeeds)

	_, _, err = FindProgramAddress(make([][]byte, MaxSeeds), testutil.ProgramID)
	assert.ErrorIs(t, err, ErrMaxSeeds)
}

func TestFindProgramAddressExhausted(t *testing.T) {
	alwaysOnCurve := deriver{onCurve: func([]byte) bool { return true }}

	_, _, err := alwaysOnCurve.find([][]byte{[]byte("x")}, testutil.ProgramID)
	assert.ErrorIs(t, err, ErrDerivationExhausted)
}

func TestFindProgramAddressTriesEveryBump(t *testing.T) {
	var calls int
	onlyZero := deriver{onCurve: func([]byte) bool {
		calls++
		return calls < 256
	}}

	_, bump, err := onlyZero.find([][]byte{[]byte("x")}, testutil.ProgramID)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), bump)
	assert.Equal(t, 256, calls)
}
