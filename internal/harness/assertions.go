package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/userstats/internal/derive"
	"github.com/roach88/userstats/internal/store"
	"github.com/roach88/userstats/internal/testutil"
)

// AssertionContext provides what state assertions need.
type AssertionContext struct {
	Ctx     context.Context
	Store   store.Store
	Deriver derive.Deriver
}

// AssertionError is returned when an assertion fails.
// It includes the full trace to help debug the failure.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		caller := ev.Caller
		if caller == "" {
			caller = "-"
		}
		fmt.Fprintf(&buf, "  [%d] %s caller=%s target=%s -> %s\n", ev.Seq, ev.Op, caller, ev.Target, ev.Outcome)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertRecord:
			err = assertRecord(result.Trace, a, actx)
		case AssertOutcomeCount:
			err = assertOutcomeCount(result.Trace, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertRecord checks the record stored at the owner's derived address.
func assertRecord(trace []TraceEvent, a Assertion, actx *AssertionContext) error {
	owner := testutil.Identity(a.Owner)
	d, err := actx.Deriver.Derive(owner)
	if err != nil {
		return fmt.Errorf("derive %q: %w", a.Owner, err)
	}

	rec, err := actx.Store.Get(actx.Ctx, d.Address)
	switch {
	case errors.Is(err, store.ErrNotFound):
		if a.ShouldExist() {
			return &AssertionError{
				Type:     AssertRecord,
				Expected: fmt.Sprintf("record for %s", a.Owner),
				Actual:   "no record",
				Trace:    trace,
			}
		}
		return nil
	case err != nil:
		return fmt.Errorf("read record for %q: %w", a.Owner, err)
	}

	if !a.ShouldExist() {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("no record for %s", a.Owner),
			Actual:   fmt.Sprintf("record with name %s", describeName(rec.Name)),
			Trace:    trace,
		}
	}
	if rec.Owner != owner {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("owner %s", a.Owner),
			Actual:   fmt.Sprintf("owner %s", rec.Owner),
			Trace:    trace,
		}
	}
	if a.Name != nil && rec.Name != *a.Name {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("name %s", describeName(*a.Name)),
			Actual:   fmt.Sprintf("name %s", describeName(rec.Name)),
			Trace:    trace,
		}
	}
	if a.NameLength != nil && len(rec.Name) != *a.NameLength {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("name of %d bytes", *a.NameLength),
			Actual:   fmt.Sprintf("name of %d bytes", len(rec.Name)),
			Trace:    trace,
		}
	}
	return nil
}

// assertOutcomeCount counts trace events with the given outcome,
// optionally restricted to one op.
func assertOutcomeCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if ev.Outcome != a.Outcome {
			continue
		}
		if a.Op != "" && ev.Op != a.Op {
			continue
		}
		count++
	}

	if count != a.Count {
		what := a.Outcome
		if a.Op != "" {
			what = a.Op + ":" + a.Outcome
		}
		return &AssertionError{
			Type:     AssertOutcomeCount,
			Expected: fmt.Sprintf("%s exactly %d time(s)", what, a.Count),
			Actual:   fmt.Sprintf("%d time(s)", count),
			Trace:    trace,
		}
	}
	return nil
}
