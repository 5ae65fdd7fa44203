package ir

import (
	"bytes"
	"fmt"

	"github.com/mr-tron/base58"
)

// KeyLen is the byte length of identities and addresses.
const KeyLen = 32

// Identity is an opaque 32-byte public key identifying a caller or owner.
// No signing semantics are implied at this layer.
type Identity [KeyLen]byte

// Address is a 32-byte storage address produced by address derivation.
type Address [KeyLen]byte

// ParseIdentity decodes a base58 identity.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if err := decodeKey(s, id[:]); err != nil {
		return Identity{}, fmt.Errorf("parse identity %q: %w", s, err)
	}
	return id, nil
}

// MustParseIdentity is like ParseIdentity but panics on error.
// Use only in tests or for compile-time constants.
func MustParseIdentity(s string) Identity {
	id, err := ParseIdentity(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IdentityFromBytes copies a 32-byte slice into an Identity.
func IdentityFromBytes(b []byte) (Identity, error) {
	var id Identity
	if len(b) != KeyLen {
		return Identity{}, fmt.Errorf("identity must be %d bytes, got %d", KeyLen, len(b))
	}
	copy(id[:], b)
	return id, nil
}

// String returns the base58 rendering.
func (id Identity) String() string { return base58.Encode(id[:]) }

// Bytes returns a copy of the raw key bytes.
func (id Identity) Bytes() []byte { return bytes.Clone(id[:]) }

// IsZero reports whether id is the all-zero key.
func (id Identity) IsZero() bool { return id == Identity{} }

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseAddress decodes a base58 address.
func ParseAddress(s string) (Address, error) {
	var addr Address
	if err := decodeKey(s, addr[:]); err != nil {
		return Address{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	return addr, nil
}

// String returns the base58 rendering.
func (a Address) String() string { return base58.Encode(a[:]) }

// Bytes returns a copy of the raw address bytes.
func (a Address) Bytes() []byte { return bytes.Clone(a[:]) }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func decodeKey(s string, dst []byte) error {
	if s == "" {
		return fmt.Errorf("empty key")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("decoded %d bytes, want %d", len(raw), len(dst))
	}
	copy(dst, raw)
	return nil
}
