package plotting

import "sync/atomic"

// AbortEarly is a single cooperative cancellation flag shared by all
// in-flight jobs and by the encoder. It is set once, on engine teardown,
// and polled by the encoder; writes use release ordering and reads use
// acquire ordering, which is exactly what atomic.Bool gives us on top of
// the Go memory model.
type AbortEarly struct {
	flag atomic.Bool
}

// NewAbortEarly returns a flag that is initially clear.
func NewAbortEarly() *AbortEarly {
	return &AbortEarly{}
}

// Set marks the flag permanently. Idempotent.
func (a *AbortEarly) Set() {
	a.flag.Store(true)
}

// IsSet reports whether the flag has been set. Safe to poll from any
// goroutine at any frequency.
func (a *AbortEarly) IsSet() bool {
	return a.flag.Load()
}
