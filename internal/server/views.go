package server

import "sync/atomic"

// ViewCounter counts every message successfully written to a client socket,
// across all rooms. Lock-free; safe for concurrent use by every session.
type ViewCounter struct {
	n atomic.Uint64
}

// NewViewCounter returns a counter starting at zero.
func NewViewCounter() *ViewCounter {
	return &ViewCounter{}
}

// Increment atomically adds one.
func (v *ViewCounter) Increment() {
	v.n.Add(1)
}

// Reset atomically sets the counter back to zero.
func (v *ViewCounter) Reset() {
	v.n.Store(0)
}

// Value atomically returns the current count.
func (v *ViewCounter) Value() uint64 {
	return v.n.Load()
}
