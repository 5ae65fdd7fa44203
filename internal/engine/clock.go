package engine

import "sync/atomic"

// Sequencer stamps operations with strictly increasing sequence numbers.
type Sequencer interface {
	Next() int64
}

// Clock is a monotonic logical clock. Sequence numbers order operation
// attempts; wall-clock time is never used for ordering.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

var _ Sequencer = (*Clock)(nil)

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock whose next value is start+1.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next increments the clock and returns the new value.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last value handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
