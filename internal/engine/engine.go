package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/userstats/internal/derive"
	"github.com/roach88/userstats/internal/ir"
	"github.com/roach88/userstats/internal/store"
)

const tracerName = "github.com/roach88/userstats/internal/engine"

// Engine enforces ownership and field constraints over a Store.
//
// Every mutating operation re-derives the caller's address with the
// injected Deriver and rejects the call when the supplied address differs.
// Authorization is therefore address equality; no access-control list is
// stored.
//
// Engine holds no locks. Atomicity of create comes from store.Insert.
// Engine is safe for concurrent use when its Store, Deriver, Sequencer and
// IDGenerator are.
type Engine struct {
	store     store.Store
	deriver   derive.Deriver
	clock     Sequencer
	ids       IDGenerator
	logger    *slog.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	observers []Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the sequencer used to stamp events.
func WithClock(c Sequencer) Option {
	return func(e *Engine) {
		e.clock = c
	}
}

// WithIDGenerator sets the operation ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithMetrics enables prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithTracer sets the tracer. Defaults to the global otel provider.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithObserver registers an observer. May be given more than once;
// observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observers = append(e.observers, o)
	}
}

// New creates an Engine over s that authorizes callers with d.
func New(s store.Store, d derive.Deriver, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		deriver: d,
		clock:   NewClock(),
		ids:     UUIDv7Generator{},
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DeriveAddress returns the address caller must supply to act on its record.
func (e *Engine) DeriveAddress(owner ir.Identity) (derive.Derivation, error) {
	start := time.Now()
	d, err := Derive(e.deriver, owner)
	e.metrics.ObserveDerive(start)
	return d, err
}

// Derive runs d for owner. Every derivation failure is reported as
// DerivationExhausted wrapping the cause; no storage is involved.
func Derive(d derive.Deriver, owner ir.Identity) (derive.Derivation, error) {
	res, err := d.Derive(owner)
	if err != nil {
		return derive.Derivation{}, newError(CodeDerivationExhausted, ir.Address{}, err, "cannot derive address for %s", owner)
	}
	return res, nil
}

// CreateUserStats creates the caller's record at supplied.
//
// Checks, in order: supplied is the caller's derived address
// (AddressMismatch, storage untouched); name fits (NameTooLong); the slot
// is empty (AlreadyExists).
func (e *Engine) CreateUserStats(ctx context.Context, caller ir.Identity, supplied ir.Address, name string) (err error) {
	ctx, span := e.startSpan(ctx, OpCreate, caller, supplied)
	defer func() { e.finish(span, OpCreate, caller, supplied, name, err) }()

	if err := e.authorize(caller, supplied); err != nil {
		return err
	}
	if ir.NameTooLong(name) {
		return nameTooLong(supplied, name)
	}

	rec := ir.UserStats{Owner: caller, Name: name}
	if err := e.store.Insert(ctx, supplied, rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return newError(CodeAlreadyExists, supplied, nil, "account already exists")
		}
		return newError(CodeStorageFailure, supplied, err, "insert failed")
	}
	return nil
}

// ChangeUserName overwrites the name of the record at supplied.
//
// Checks, in order: a record exists (NotFound); supplied is the caller's
// derived address (AddressMismatch); newName fits (NameTooLong). The
// stored owner is never rewritten.
func (e *Engine) ChangeUserName(ctx context.Context, caller ir.Identity, supplied ir.Address, newName string) (err error) {
	ctx, span := e.startSpan(ctx, OpRename, caller, supplied)
	defer func() { e.finish(span, OpRename, caller, supplied, newName, err) }()

	rec, err := e.get(ctx, supplied)
	if err != nil {
		return err
	}
	if err := e.authorize(caller, supplied); err != nil {
		return err
	}
	if ir.NameTooLong(newName) {
		return nameTooLong(supplied, newName)
	}

	rec.Name = newName
	if err := e.store.Update(ctx, supplied, rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(CodeNotFound, supplied, nil, "account does not exist")
		}
		return newError(CodeStorageFailure, supplied, err, "update failed")
	}
	return nil
}

// Fetch returns the record stored at addr. Read-only.
func (e *Engine) Fetch(ctx context.Context, addr ir.Address) (rec ir.UserStats, err error) {
	ctx, span := e.startSpan(ctx, OpFetch, ir.Identity{}, addr)
	defer func() { e.finish(span, OpFetch, ir.Identity{}, addr, rec.Name, err) }()

	return e.get(ctx, addr)
}

// FetchOwner derives owner's address and returns the record stored there.
func (e *Engine) FetchOwner(ctx context.Context, owner ir.Identity) (ir.UserStats, ir.Address, error) {
	d, err := e.DeriveAddress(owner)
	if err != nil {
		return ir.UserStats{}, ir.Address{}, err
	}
	rec, err := e.Fetch(ctx, d.Address)
	return rec, d.Address, err
}

func (e *Engine) authorize(caller ir.Identity, supplied ir.Address) error {
	d, err := e.DeriveAddress(caller)
	if err != nil {
		var ee *Error
		if errors.As(err, &ee) {
			ee.Address = supplied
		}
		return err
	}
	if d.Address != supplied {
		return newError(CodeAddressMismatch, supplied, nil, "expected %s for caller %s", d.Address, caller)
	}
	return nil
}

func (e *Engine) get(ctx context.Context, addr ir.Address) (ir.UserStats, error) {
	rec, err := e.store.Get(ctx, addr)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ir.UserStats{}, newError(CodeNotFound, addr, nil, "account does not exist")
		}
		return ir.UserStats{}, newError(CodeStorageFailure, addr, err, "read failed")
	}
	return rec, nil
}

func nameTooLong(addr ir.Address, name string) error {
	return newError(CodeNameTooLong, addr, nil, "name is %d bytes, max %d", len(name), ir.MaxNameLen)
}

func (e *Engine) startSpan(ctx context.Context, op Op, caller ir.Identity, addr ir.Address) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("userstats.op", string(op)),
		attribute.String("userstats.address", addr.String()),
	}
	if !caller.IsZero() {
		attrs = append(attrs, attribute.String("userstats.caller", caller.String()))
	}
	return e.tracer.Start(ctx, "userstats."+string(op), trace.WithAttributes(attrs...))
}

// finish stamps the attempt, records it on the span, metrics and log, and
// notifies observers.
func (e *Engine) finish(span trace.Span, op Op, caller ir.Identity, addr ir.Address, name string, err error) {
	defer span.End()

	ev := Event{
		ID:      e.ids.Generate(),
		Seq:     e.clock.Next(),
		Op:      op,
		Caller:  caller,
		Address: addr,
		Name:    name,
		Outcome: OutcomeOK,
		Err:     err,
	}
	if err != nil {
		ev.Outcome = string(CodeOf(err))
		if ev.Outcome == "" {
			ev.Outcome = string(CodeStorageFailure)
		}
	}

	span.SetAttributes(
		attribute.String("userstats.op_id", ev.ID),
		attribute.Int64("userstats.seq", ev.Seq),
		attribute.String("userstats.outcome", ev.Outcome),
	)
	e.metrics.ObserveOperation(op, ev.Outcome)

	attrs := []any{"op", op, "op_id", ev.ID, "seq", ev.Seq, "address", addr}
	if !caller.IsZero() {
		attrs = append(attrs, "owner", caller)
	}
	switch {
	case !ev.OK():
		span.RecordError(err)
		span.SetStatus(codes.Error, ev.Outcome)
		e.logger.Debug("operation rejected", append(attrs, "code", ev.Outcome, "error", err)...)
	case op == OpFetch:
		e.logger.Debug("record fetched", attrs...)
	default:
		e.logger.Info("record written", append(attrs, "name", name)...)
	}

	for _, o := range e.observers {
		o.Observe(ev)
	}
}
