package ledger

import "sync/atomic"

// Clock is the ledger's monotonic logical clock.
//
// Every outcome is stamped with a strictly increasing seq. Listings order
// by seq, never by wall time, so two runs of the same suite list their
// outcomes in the same order.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClockAt creates a clock whose next value is start+1.
// Used on reopen to resume after the highest stored seq.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
