// Package harness runs conformance scenarios against the UserStats engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: owner_rename
//	description: "The owner can rename its own record"
//	steps:
//	  - op: create
//	    caller: brian
//	    name: brian
//	  - op: rename
//	    caller: brian
//	    name: tom
//	  - op: rename
//	    caller: alice
//	    target: brian
//	    name: alice
//	    expect: AddressMismatch
//	assertions:
//	  - type: record
//	    owner: brian
//	    name: tom
//	  - type: outcome_count
//	    outcome: AddressMismatch
//	    count: 1
//
// Identities are labels. A label maps to a stable test identity
// (testutil.Identity) and its derived address. A step supplies the address
// of Target, defaulting to Caller, unless Address is given explicitly.
//
// Files are decoded strictly (unknown fields are errors) and can be checked
// against the embedded CUE schema with Schema.Validate.
//
// # Assertion Types
//
//   - record: the record at the owner's address exists (or not), with an
//     optional expected name or name length
//   - outcome_count: the trace contains exactly N events with an outcome,
//     optionally restricted to one op
//
// # Deterministic Testing
//
// Every scenario runs against a fresh in-memory store, a
// testutil.DeterministicClock and a testutil.SequentialIDGenerator, so
// the trace is byte-identical across runs and can be compared with golden
// files (see RunWithGolden).
package harness
