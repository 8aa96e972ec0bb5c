// Package clock provides the monotonic time source the source scheduler
// uses for deadline computation, kept behind an interface so scheduler
// tests can run on a fake clock instead of racing real time.
package clock

import "time"

// Clock abstracts monotonic time so tests can control scheduling deadlines
// deterministically. Production code uses Real, which defers to the
// standard library's monotonic clock reading (time.Now never loses the
// monotonic component as long as the Time value isn't serialized).
type Clock interface {
	Now() time.Time
	// After returns a channel that fires once after d has elapsed.
	After(d time.Duration) <-chan time.Time
	// NewTimer behaves like time.NewTimer, exposed so callers can Stop/Reset it.
	NewTimer(d time.Duration) Timer
}

// Timer mirrors the subset of *time.Timer the scheduler needs.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// Real is the production Clock backed by the standard library.
var Real Clock = realClock{}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time  { return time.After(d) }
func (realClock) NewTimer(d time.Duration) Timer          { return &realTimer{t: time.NewTimer(d)} }

type realTimer struct{ t *time.Timer }

func (r *realTimer) C() <-chan time.Time      { return r.t.C }
func (r *realTimer) Stop() bool               { return r.t.Stop() }
func (r *realTimer) Reset(d time.Duration) bool { return r.t.Reset(d) }
