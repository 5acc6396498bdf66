package versions

import "sync/atomic"

// revisionClock is a monotonic mutation counter.
//
// Every committed mutation takes the next value. Projections key their caches
// on it, so any change to the collection invalidates them.
//
// Thread-safety: safe for concurrent use (atomic operations).
type revisionClock struct {
	seq atomic.Int64
}

// Next returns the next revision and advances the clock.
func (c *revisionClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the current revision without advancing.
func (c *revisionClock) Current() int64 {
	return c.seq.Load()
}
