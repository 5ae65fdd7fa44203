package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/roach88/userstats/internal/derive"
	"github.com/roach88/userstats/internal/engine"
	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store/memory"
	"github.com/roach88/userstats/internal/testutil"
)

// Harness executes one scenario against a real engine.
type Harness struct {
	engine  *engine.Engine
	store   *memory.Store
	deriver derive.Deriver
	clock   *testutil.DeterministicClock
	logger  *slog.Logger

	// callers and targets map identities and addresses back to labels.
	callers map[ir.Identity]string
	targets map[ir.Address]string

	result *Result
}

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store with a deterministic
// clock and ID generator, so the trace is identical across runs.
//
// Execution flow:
//  1. Resolve every label to an identity and derived address
//  2. Execute steps, comparing each outcome with its expectation
//  3. Evaluate assertions against the final store and trace
func Run(scenario *Scenario) (*Result, error) {
	program := testutil.ProgramID
	if scenario.Program != "" {
		p, err := ir.ParseIdentity(scenario.Program)
		if err != nil {
			return nil, fmt.Errorf("invalid program: %w", err)
		}
		program = p
	}

	h := &Harness{
		store:   memory.New(),
		deriver: derive.NewUserStats(program),
		clock:   testutil.NewDeterministicClock(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		callers: make(map[ir.Identity]string),
		targets: make(map[ir.Address]string),
		result:  NewResult(),
	}
	h.engine = engine.New(h.store, h.deriver,
		engine.WithClock(h.clock),
		engine.WithIDGenerator(testutil.NewSequentialIDGenerator("op")),
		engine.WithLogger(h.logger),
		engine.WithObserver(engine.ObserverFunc(h.observe)),
	)

	if err := h.resolveLabels(scenario); err != nil {
		return nil, err
	}

	ctx := context.Background()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step); err != nil {
			return nil, fmt.Errorf("failed to execute steps: %w", err)
		}
	}

	actx := &AssertionContext{
		Ctx:     ctx,
		Store:   h.store,
		Deriver: h.deriver,
	}
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions, actx) {
		h.result.AddError(msg)
	}

	return h.result, nil
}

func (h *Harness) resolveLabels(scenario *Scenario) error {
	register := func(label string) error {
		if label == "" {
			return nil
		}
		id := testutil.Identity(label)
		h.callers[id] = label
		d, err := h.deriver.Derive(id)
		if err != nil {
			return fmt.Errorf("derive %q: %w", label, err)
		}
		h.targets[d.Address] = label
		return nil
	}

	for _, step := range scenario.Steps {
		if err := register(step.Caller); err != nil {
			return err
		}
		if err := register(step.Target); err != nil {
			return err
		}
	}
	for _, a := range scenario.Assertions {
		if err := register(a.Owner); err != nil {
			return err
		}
	}
	return nil
}

// address resolves the address a step supplies.
func (h *Harness) address(step Step) (ir.Address, error) {
	if step.Address != "" {
		return ir.ParseAddress(step.Address)
	}
	label := step.Target
	if label == "" {
		label = step.Caller
	}
	d, err := h.deriver.Derive(testutil.Identity(label))
	if err != nil {
		return ir.Address{}, err
	}
	return d.Address, nil
}

func (h *Harness) executeStep(ctx context.Context, i int, step Step) error {
	addr, err := h.address(step)
	if err != nil {
		return fmt.Errorf("step %d: %w", i, err)
	}

	var caller ir.Identity
	if step.Caller != "" {
		caller = testutil.Identity(step.Caller)
	}
	name := step.ResolvedName()

	var opErr error
	switch engine.Op(step.Op) {
	case engine.OpCreate:
		opErr = h.engine.CreateUserStats(ctx, caller, addr, name)
	case engine.OpRename:
		opErr = h.engine.ChangeUserName(ctx, caller, addr, name)
	case engine.OpFetch:
		var rec ir.UserStats
		rec, opErr = h.engine.Fetch(ctx, addr)
		if opErr == nil && (step.Name != "" || step.NameLength > 0) && rec.Name != name {
			h.result.AddError(fmt.Sprintf("steps[%d]: fetched name %s, expected %s",
				i, describeName(rec.Name), describeName(name)))
		}
	default:
		return fmt.Errorf("step %d: unknown op %q", i, step.Op)
	}

	got := outcomeOf(opErr)
	if want := step.ExpectedOutcome(); got != want {
		h.result.AddError(fmt.Sprintf("steps[%d]: %s expected %s, got %s", i, step.Op, want, got))
	}

	h.logger.Debug("step completed", "step", i, "op", step.Op, "outcome", got)
	return nil
}

// observe converts engine events into trace events.
func (h *Harness) observe(ev engine.Event) {
	te := TraceEvent{
		Seq:        ev.Seq,
		Op:         string(ev.Op),
		Caller:     h.callers[ev.Caller],
		Target:     h.targets[ev.Address],
		NameLength: len(ev.Name),
		Outcome:    ev.Outcome,
	}
	if te.Target == "" {
		te.Target = ev.Address.String()
	}
	if len(ev.Name) <= maxTraceName {
		te.Name = ev.Name
	}
	h.result.AddTrace(te)
}

func outcomeOf(err error) string {
	if err == nil {
		return engine.OutcomeOK
	}
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return string(engine.CodeStorageFailure)
}

func generatedName(n int) string {
	return strings.Repeat("a", n)
}

func describeName(name string) string {
	if len(name) <= maxTraceName {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("<%d bytes>", len(name))
}
