// Package engine implements the ownership-gated UserStats record engine.
//
// The engine exposes three operations over a store.Store:
//
//   - CreateUserStats: create the caller's record at its derived address
//   - ChangeUserName: overwrite the name of the caller's record
//   - Fetch: read the record at an address
//
// AUTHORIZATION:
//
// A caller may only act on the address derived from its own identity.
// Every mutating call re-derives that address with the injected
// derive.Deriver and compares it with the supplied address. A mismatch is
// rejected with AddressMismatch. For create this happens before storage is
// touched; for rename the existence check runs first, so a rename of an
// empty slot reports NotFound regardless of caller.
//
// ORDERING:
//
// Every attempt, successful or not, is stamped with a sequence number from a
// Sequencer and an ID from an IDGenerator, then delivered to Observers as an
// Event. With a deterministic Sequencer and IDGenerator the event stream is
// reproducible, which the scenario harness relies on.
//
// FAILURES:
//
// Every failure is an *Error carrying a Code. State is unchanged when an
// error is returned.
package engine
