package graph

import "sync/atomic"

const (
	unlocked = 0
	locked   = 1
)

// Locks is the per-point mutual-exclusion table. It is the only mutable state
// shared across concurrent insertion requests.
//
// Acquisition is single-attempt and non-blocking: a failed TryLock is not
// retried within a pass, the caller simply skips the corresponding edge.
type Locks struct {
	flags []atomic.Uint32
}

// NewLocks allocates an unlocked table covering numPoints points.
func NewLocks(numPoints int) *Locks {
	return &Locks{flags: make([]atomic.Uint32, numPoints)}
}

// TryLock attempts to acquire p's flag and reports whether it succeeded.
func (l *Locks) TryLock(p uint32) bool {
	return l.flags[p].CompareAndSwap(unlocked, locked)
}

// Unlock resets p's flag. Must only be called by the holder.
func (l *Locks) Unlock(p uint32) {
	l.flags[p].Store(unlocked)
}

// Len returns the number of points the table covers.
func (l *Locks) Len() int { return len(l.flags) }

// Reset forces every flag back to unlocked. Called once at the start of each
// build pass, never while requests are in flight.
func (l *Locks) Reset() {
	for i := range l.flags {
		l.flags[i].Store(unlocked)
	}
}
