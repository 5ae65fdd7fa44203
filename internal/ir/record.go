package ir

import (
	"encoding/binary"
	"fmt"
)

// NamespaceTag is the seed that scopes every UserStats address.
const NamespaceTag = "user-stats"

// MaxNameLen bounds UserStats.Name in UTF-8 code units (bytes).
const MaxNameLen = 200

// Account layout sizes.
const (
	DiscriminatorLen = 8
	nameLenPrefix    = 4

	// AccountSpace is the fixed allocation for a UserStats account:
	// discriminator + owner + name length prefix + max name bytes.
	AccountSpace = DiscriminatorLen + KeyLen + nameLenPrefix + MaxNameLen
)

// UserStatsAccount is the account type name hashed into the discriminator.
const UserStatsAccount = "UserStats"

// UserStats is the record stored at an owner's derived address.
// Owner is set once at creation and never rewritten.
type UserStats struct {
	Owner Identity `json:"owner"`
	Name  string   `json:"name"`
}

// NameTooLong reports whether name exceeds MaxNameLen.
func NameTooLong(name string) bool {
	return len(name) > MaxNameLen
}

// MarshalBinary encodes the record in its persisted account layout:
//
//	discriminator[8] | owner[32] | u32 little-endian name length | name bytes
func (r UserStats) MarshalBinary() ([]byte, error) {
	if NameTooLong(r.Name) {
		return nil, fmt.Errorf("encode user stats: name is %d bytes, max %d", len(r.Name), MaxNameLen)
	}
	disc := AccountDiscriminator(UserStatsAccount)

	buf := make([]byte, 0, DiscriminatorLen+KeyLen+nameLenPrefix+len(r.Name))
	buf = append(buf, disc[:]...)
	buf = append(buf, r.Owner[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.Name)))
	buf = append(buf, r.Name...)
	return buf, nil
}

// UnmarshalBinary decodes a record written by MarshalBinary.
func (r *UserStats) UnmarshalBinary(data []byte) error {
	const header = DiscriminatorLen + KeyLen + nameLenPrefix
	if len(data) < header {
		return fmt.Errorf("decode user stats: short account data (%d bytes)", len(data))
	}
	disc := AccountDiscriminator(UserStatsAccount)
	if [DiscriminatorLen]byte(data[:DiscriminatorLen]) != disc {
		return fmt.Errorf("decode user stats: discriminator mismatch")
	}

	n := binary.LittleEndian.Uint32(data[DiscriminatorLen+KeyLen : header])
	if n > MaxNameLen {
		return fmt.Errorf("decode user stats: name length %d exceeds %d", n, MaxNameLen)
	}
	if len(data) != header+int(n) {
		return fmt.Errorf("decode user stats: expected %d bytes, got %d", header+int(n), len(data))
	}

	var owner Identity
	copy(owner[:], data[DiscriminatorLen:DiscriminatorLen+KeyLen])
	r.Owner = owner
	r.Name = string(data[header:])
	return nil
}
