package ir

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordDigestKnownValue(t *testing.T) {
	// SHA256("userstats/record/v1" || 0x00 || `{"name":"brian","owner":"111…1"}`)
	digest, err := RecordDigest(UserStats{Name: "brian"})
	require.NoError(t, err)
	assert.Equal(t, "04cf624da7bb64d3aeee410a31f6d55b5ddb0c00a33dc5b0a6579019ec18a2e0", digest)
}

func TestRecordDigestDeterminism(t *testing.T) {
	rec := UserStats{Owner: Identity{1, 2, 3}, Name: "tom"}
	assert.Equal(t, MustRecordDigest(rec), MustRecordDigest(rec))
}

func TestRecordDigestChangesWithContent(t *testing.T) {
	base := UserStats{Owner: Identity{1}, Name: "brian"}
	renamed := UserStats{Owner: Identity{1}, Name: "tom"}
	otherOwner := UserStats{Owner: Identity{2}, Name: "brian"}

	assert.NotEqual(t, MustRecordDigest(base), MustRecordDigest(renamed))
	assert.NotEqual(t, MustRecordDigest(base), MustRecordDigest(otherOwner))
}

func TestHashWithDomainSeparation(t *testing.T) {
	// Moving a byte across the domain/data boundary must change the hash.
	a := hashWithDomain("abc", []byte("def"))
	b := hashWithDomain("abcd", []byte("ef"))
	assert.NotEqual(t, a, b)

	raw, err := hex.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
}

func TestAccountDiscriminator(t *testing.T) {
	// First eight bytes of SHA256("account:UserStats").
	want := [DiscriminatorLen]byte{176, 223, 136, 27, 122, 79, 32, 227}
	assert.Equal(t, want, AccountDiscriminator(UserStatsAccount))
	assert.NotEqual(t, want, AccountDiscriminator("Other"))
}
