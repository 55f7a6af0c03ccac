package measure

import "sync/atomic"

// Clock is a monotonic logical clock used to order pre captures.
//
// Each Pre call is stamped with Next(); PostLatest pairs with the unmatched
// record carrying the highest seq for an identity.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number and increments the clock.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}
