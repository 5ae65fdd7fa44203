package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/userstats/internal/engine"
	"github.com/roach88/userstats/internal/ir"
)

// Scenario defines a conformance scenario: a sequence of engine operations
// with expected outcomes, followed by assertions on final state and trace.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Program is the base58 program identity. Defaults to testutil.ProgramID.
	Program string `yaml:"program,omitempty"`

	// Steps run in order against a fresh in-memory store.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final state and trace.
	// Supported types: record, outcome_count
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one engine operation.
//
// Identities are given as labels ("brian", "alice"); the harness maps a
// label to a stable test identity. The target address is the derived
// address of Target (default Caller) unless Address is set explicitly.
type Step struct {
	// Op is "create", "rename" or "fetch".
	Op string `yaml:"op"`

	// Caller is the label of the identity performing the operation.
	// Required for create and rename.
	Caller string `yaml:"caller,omitempty"`

	// Target is the label whose derived address the step supplies.
	Target string `yaml:"target,omitempty"`

	// Address is an explicit base58 address, overriding Target.
	Address string `yaml:"address,omitempty"`

	// Name is the name to write. For fetch it is the expected name.
	Name string `yaml:"name,omitempty"`

	// NameLength generates a name of that many 'a' bytes instead of Name.
	NameLength int `yaml:"name_length,omitempty"`

	// Expect is "ok" (default) or an engine error code.
	Expect string `yaml:"expect,omitempty"`
}

// Assertion validates final state or the trace.
type Assertion struct {
	// Type is "record" or "outcome_count".
	Type string `yaml:"type"`

	// Owner is the label whose record is checked (record).
	Owner string `yaml:"owner,omitempty"`

	// Exists is whether the record must exist (record). Defaults to true.
	Exists *bool `yaml:"exists,omitempty"`

	// Name is the expected stored name (record). An explicit "" checks
	// for an empty name.
	Name *string `yaml:"name,omitempty"`

	// NameLength is the expected stored name length in bytes (record).
	NameLength *int `yaml:"name_length,omitempty"`

	// Op restricts outcome_count to one operation.
	Op string `yaml:"op,omitempty"`

	// Outcome is the outcome to count (outcome_count).
	Outcome string `yaml:"outcome,omitempty"`

	// Count is the expected number of matching trace events (outcome_count).
	Count int `yaml:"count"`
}

// Assertion type constants.
const (
	AssertRecord       = "record"
	AssertOutcomeCount = "outcome_count"
)

var validOps = map[string]bool{
	string(engine.OpCreate): true,
	string(engine.OpRename): true,
	string(engine.OpFetch):  true,
}

var validOutcomes = map[string]bool{
	engine.OutcomeOK:                       true,
	string(engine.CodeAddressMismatch):     true,
	string(engine.CodeNameTooLong):         true,
	string(engine.CodeAlreadyExists):       true,
	string(engine.CodeNotFound):            true,
	string(engine.CodeDerivationExhausted): true,
	string(engine.CodeStorageFailure):      true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields, or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ExpectedOutcome returns the step's expected outcome, defaulting to "ok".
func (s Step) ExpectedOutcome() string {
	if s.Expect == "" {
		return engine.OutcomeOK
	}
	return s.Expect
}

// ResolvedName returns the name the step writes or expects.
func (s Step) ResolvedName() string {
	if s.NameLength > 0 {
		return generatedName(s.NameLength)
	}
	return s.Name
}

// ShouldExist reports whether a record assertion expects the record to exist.
func (a Assertion) ShouldExist() bool {
	return a.Exists == nil || *a.Exists
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Program != "" {
		if _, err := ir.ParseIdentity(s.Program); err != nil {
			return fmt.Errorf("program: %w", err)
		}
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s Step) error {
	if !validOps[s.Op] {
		return fmt.Errorf("steps[%d]: unknown op %q", index, s.Op)
	}
	if s.Op != string(engine.OpFetch) && s.Caller == "" {
		return fmt.Errorf("steps[%d]: caller is required for %s", index, s.Op)
	}
	if s.Caller == "" && s.Target == "" && s.Address == "" {
		return fmt.Errorf("steps[%d]: one of caller, target or address is required", index)
	}
	if s.Target != "" && s.Address != "" {
		return fmt.Errorf("steps[%d]: target and address are mutually exclusive", index)
	}
	if s.Address != "" {
		if _, err := ir.ParseAddress(s.Address); err != nil {
			return fmt.Errorf("steps[%d]: address: %w", index, err)
		}
	}
	if s.NameLength < 0 {
		return fmt.Errorf("steps[%d]: name_length must be non-negative", index)
	}
	if s.NameLength > 0 && s.Name != "" {
		return fmt.Errorf("steps[%d]: name and name_length are mutually exclusive", index)
	}
	if !validOutcomes[s.ExpectedOutcome()] {
		return fmt.Errorf("steps[%d]: unknown expect %q", index, s.Expect)
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRecord:
		if a.Owner == "" {
			return fmt.Errorf("assertions[%d]: owner is required for record", index)
		}
		if a.NameLength != nil && *a.NameLength < 0 {
			return fmt.Errorf("assertions[%d]: name_length must be non-negative", index)
		}
	case AssertOutcomeCount:
		if !validOutcomes[a.Outcome] {
			return fmt.Errorf("assertions[%d]: unknown outcome %q", index, a.Outcome)
		}
		if a.Op != "" && !validOps[a.Op] {
			return fmt.Errorf("assertions[%d]: unknown op %q", index, a.Op)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for outcome_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
