package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed digests.
// Version suffix enables future algorithm migration.
const (
	DomainRecord = "userstats/record/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RecordDigest computes the content digest of a record.
// Backends that persist raw account data store it alongside and compare on read.
func RecordDigest(r UserStats) (string, error) {
	canonical, err := MarshalCanonical(map[string]any{
		"owner": r.Owner.String(),
		"name":  r.Name,
	})
	if err != nil {
		return "", fmt.Errorf("RecordDigest: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRecord, canonical), nil
}

// MustRecordDigest is like RecordDigest but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRecordDigest(r UserStats) string {
	d, err := RecordDigest(r)
	if err != nil {
		panic(err)
	}
	return d
}

// AccountDiscriminator returns the 8-byte account type tag:
// the first eight bytes of SHA256("account:" + name).
func AccountDiscriminator(name string) [DiscriminatorLen]byte {
	sum := sha256.Sum256([]byte("account:" + name))
	var d [DiscriminatorLen]byte
	copy(d[:], sum[:DiscriminatorLen])
	return d
}
