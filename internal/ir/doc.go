// Package ir provides the canonical data types shared by every userstats package.
//
// This package contains value types and their encodings only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Identity and Address are fixed 32-byte values rendered as base58
//   - A UserStats name is bounded at MaxNameLen UTF-8 bytes, on create and on every update
//   - The binary account layout (MarshalBinary) is the only persisted form of a record
//   - Digests use RFC 8785 canonical JSON and SHA-256 with domain separation
//   - All JSON tags use snake_case
package ir
