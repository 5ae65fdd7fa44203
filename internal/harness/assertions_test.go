package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/userstats/internal/derive"
	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store/memory"
	"github.com/roach88/userstats/internal/testutil"
)

func newAssertionContext(t *testing.T, records map[string]string) *AssertionContext {
	t.Helper()
	d := derive.NewUserStats(testutil.ProgramID)
	s := memory.New()
	for label, name := range records {
		owner := testutil.Identity(label)
		der, err := d.Derive(owner)
		require.NoError(t, err)
		require.NoError(t, s.Insert(context.Background(), der.Address, ir.UserStats{Owner: owner, Name: name}))
	}
	return &AssertionContext{Ctx: context.Background(), Store: s, Deriver: d}
}

func TestAssertRecord(t *testing.T) {
	actx := newAssertionContext(t, map[string]string{"brian": "tom", "carol": ""})

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"exists", Assertion{Type: AssertRecord, Owner: "brian"}, ""},
		{"name matches", Assertion{Type: AssertRecord, Owner: "brian", Name: strPtr("tom")}, ""},
		{"empty name matches", Assertion{Type: AssertRecord, Owner: "carol", Name: strPtr("")}, ""},
		{"empty name expected", Assertion{Type: AssertRecord, Owner: "brian", Name: strPtr("")}, `Expected: name ""`},
		{"name unchecked", Assertion{Type: AssertRecord, Owner: "carol"}, ""},
		{"length matches", Assertion{Type: AssertRecord, Owner: "brian", NameLength: intPtr(3)}, ""},
		{"absent as expected", Assertion{Type: AssertRecord, Owner: "alice", Exists: boolPtr(false)}, ""},
		{"missing", Assertion{Type: AssertRecord, Owner: "alice"}, "Actual: no record"},
		{"unexpected", Assertion{Type: AssertRecord, Owner: "brian", Exists: boolPtr(false)}, `Actual: record with name "tom"`},
		{"wrong name", Assertion{Type: AssertRecord, Owner: "brian", Name: strPtr("brian")}, `Expected: name "brian"`},
		{"wrong length", Assertion{Type: AssertRecord, Owner: "brian", NameLength: intPtr(5)}, "Expected: name of 5 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.assertion}, actx)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertRecord_WrongOwner(t *testing.T) {
	actx := newAssertionContext(t, nil)
	brian := testutil.Identity("brian")
	der, err := actx.Deriver.Derive(brian)
	require.NoError(t, err)
	require.NoError(t, actx.Store.Insert(actx.Ctx, der.Address, ir.UserStats{Owner: testutil.Identity("mallory"), Name: "x"}))

	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: AssertRecord, Owner: "brian"}}, actx)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Expected: owner brian")
}

func TestAssertOutcomeCount(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Seq: 1, Op: "create", Caller: "brian", Target: "brian", Outcome: "ok"})
	result.AddTrace(TraceEvent{Seq: 2, Op: "create", Caller: "brian", Target: "brian", Outcome: "AlreadyExists"})
	result.AddTrace(TraceEvent{Seq: 3, Op: "fetch", Target: "brian", Outcome: "ok"})

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"all ok", Assertion{Type: AssertOutcomeCount, Outcome: "ok", Count: 2}, ""},
		{"op filter", Assertion{Type: AssertOutcomeCount, Op: "create", Outcome: "ok", Count: 1}, ""},
		{"zero", Assertion{Type: AssertOutcomeCount, Outcome: "NotFound", Count: 0}, ""},
		{"wrong count", Assertion{Type: AssertOutcomeCount, Op: "fetch", Outcome: "ok", Count: 2}, "Expected: fetch:ok exactly 2 time(s)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(result, []Assertion{tt.assertion}, newAssertionContext(t, nil))
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
			assert.Contains(t, errs[0], "[3] fetch caller=- target=brian -> ok")
		})
	}
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(NewResult(), []Assertion{{Type: "final_state"}}, newAssertionContext(t, nil))
	assert.Equal(t, []string{`assertions[0]: unknown assertion type "final_state"`}, errs)
}
