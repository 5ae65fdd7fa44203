// Package derive maps owner identities to storage addresses.
//
// An address is SHA256(seed_0 || ... || seed_n || bump || program || "ProgramDerivedAddress"),
// where bump is the first value scanning 255 down to 0 whose digest is NOT a
// valid ed25519 point. An off-curve address has no private key, so nobody can
// sign for it; the only way to act on it is to present the identity it was
// derived from.
//
// The Deriver interface is the capability object the engine is built on: the
// engine never compares stored owners, it re-derives the address from the
// caller and checks equality. Any scheme that maps an owner to exactly one
// address (PDA, Func, Cached) can be substituted.
//
// Derivation is pure. Identical inputs always yield the identical address and
// bump; distinct owners yield distinct addresses with overwhelming probability
// because the owner is one of the seeds.
package derive
