package tree

import "sync/atomic"

// Clock is the monotonic logical clock that stamps Changes.
//
// Sequence numbers are strictly increasing and never derived from wall
// time, so replaying a log yields the same order. A Clock may be shared
// with a journal that persists the log; it is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock resuming after start, typically the last
// sequence number found in a persisted log.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last sequence number handed out.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
