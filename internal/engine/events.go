package engine

import "github.com/roach88/userstats/internal/ir"

// Op names an engine operation.
type Op string

const (
	OpCreate Op = "create"
	OpRename Op = "rename"
	OpFetch  Op = "fetch"
)

// OutcomeOK is the outcome of a successful operation. Failed operations
// report their error Code.
const OutcomeOK = "ok"

// Event describes one operation attempt, successful or not.
type Event struct {
	ID      string
	Seq     int64
	Op      Op
	Caller  ir.Identity // zero for fetch by address
	Address ir.Address
	Name    string
	Outcome string
	Err     error
}

// OK reports whether the operation succeeded.
func (e Event) OK() bool { return e.Outcome == OutcomeOK }

// Observer receives an Event after every operation attempt.
// Observers run synchronously on the caller's goroutine and must not
// call back into the engine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }
