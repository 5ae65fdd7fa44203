package harness

// maxTraceName is the longest name copied verbatim into a trace event.
// Longer names are represented by their length only.
const maxTraceName = 32

// TraceEvent is one engine operation as recorded by the harness.
// Identities and addresses are rendered as scenario labels.
type TraceEvent struct {
	Seq        int64  `json:"seq"`
	Op         string `json:"op"`
	Caller     string `json:"caller,omitempty"`
	Target     string `json:"target"`
	Name       string `json:"name,omitempty"`
	NameLength int    `json:"name_length"`
	Outcome    string `json:"outcome"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step outcome and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains every operation attempt in sequence order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event to the trace.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
