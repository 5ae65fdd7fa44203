package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/userstats/internal/ir"
)

// GoldenDir is the golden directory relative to a scenarios directory.
const GoldenDir = "golden"

// TraceSnapshot captures the trace of a scenario execution.
// Snapshots serialize to canonical JSON for byte-exact comparison.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Trace        []TraceEvent `json:"trace"`
}

// NewSnapshot builds the snapshot for a scenario result.
func NewSnapshot(scenarioName string, result *Result) TraceSnapshot {
	return TraceSnapshot{ScenarioName: scenarioName, Trace: result.Trace}
}

// toCanonicalMap converts the snapshot for ir.MarshalCanonical, which only
// handles primitives, slices and maps.
func (s TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, ev := range s.Trace {
		m := map[string]any{
			"seq":         ev.Seq,
			"op":          ev.Op,
			"target":      ev.Target,
			"name_length": ev.NameLength,
			"outcome":     ev.Outcome,
		}
		if ev.Caller != "" {
			m["caller"] = ev.Caller
		}
		if ev.Name != "" {
			m["name"] = ev.Name
		}
		trace[i] = m
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
	}
}

// Marshal returns the canonical JSON form of the snapshot.
func (s TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// RunWithGolden executes a scenario, fails t on any step or assertion
// mismatch, and compares the trace against fixtureDir/{scenario.Name}.golden.
//
// To regenerate golden files, run the tests with -update.
func RunWithGolden(t *testing.T, fixtureDir string, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("run scenario %s: %v", scenario.Name, err)
	}
	for _, msg := range result.Errors {
		t.Errorf("%s: %s", scenario.Name, msg)
	}

	AssertGolden(t, fixtureDir, scenario.Name, result)
	return result
}

// AssertGolden compares an existing result's trace against a golden file.
func AssertGolden(t *testing.T, fixtureDir, scenarioName string, result *Result) {
	t.Helper()

	data, err := NewSnapshot(scenarioName, result).Marshal()
	if err != nil {
		t.Fatalf("marshal trace: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(fixtureDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
}
