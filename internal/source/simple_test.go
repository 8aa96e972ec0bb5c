package source

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestSimpleSource_DedicatedThreadDriftCompensation exercises the
// drift-compensation rule documented on SimpleSource.tick/dedicatedLoop:
// the next deadline is computed by adding frequency to the previous
// deadline, not to the time the callback actually finished, so a slow
// callback does not push every later tick later by the same amount.
func TestSimpleSource_DedicatedThreadDriftCompensation(t *testing.T) {
	const freq = 20 * time.Millisecond

	var mu sync.Mutex
	var ticks []time.Time

	start := time.Now()
	s := NewSimple(Config{
		Frequency:          freq,
		UseDedicatedThread: true,
		Callback: func(*SimpleSource) {
			// Simulate callback work that would, without drift
			// compensation, push every subsequent deadline later.
			time.Sleep(8 * time.Millisecond)
			mu.Lock()
			ticks = append(ticks, time.Now())
			mu.Unlock()
		},
	})
	require.NoError(t, s.Start())
	t.Cleanup(func() { s.Stop() })

	deadline := time.Now().Add(300 * time.Millisecond)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(ticks)
		mu.Unlock()
		if n >= 5 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(ticks), 5, "expected at least 5 ticks")

	// Each tick's offset from start should track k*freq (plus the fixed
	// per-tick callback cost), not accumulate an ever-growing lag: the
	// 5th tick should land well under 5*(freq+callback-cost)+drift, i.e.
	// close to the scheduled 5*freq rather than 5*(freq+8ms actual skew
	// that uncompensated accumulation would produce.
	fifth := ticks[4].Sub(start)
	// Without compensation, a 20ms period with an 8ms callback would
	// drift toward ~28ms/tick; 5 ticks would land near 140ms. With
	// compensation it should stay close to 5*20ms=100ms plus one
	// callback's worth of overshoot, well under the uncompensated bound.
	require.Less(t, fifth, 130*time.Millisecond, "5th tick at %s suggests deadlines are drifting with callback runtime", fifth)
}

// TestSimpleSource_StopJoinsDedicatedGoroutine confirms Stop blocks until
// the dedicated loop has actually exited, so no tick fires after Stop
// returns.
func TestSimpleSource_StopJoinsDedicatedGoroutine(t *testing.T) {
	var mu sync.Mutex
	count := 0
	s := NewSimple(Config{
		Frequency:          5 * time.Millisecond,
		UseDedicatedThread: true,
		Callback: func(*SimpleSource) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})
	require.NoError(t, s.Start())
	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Stop())

	mu.Lock()
	afterStop := count
	mu.Unlock()

	time.Sleep(30 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, afterStop, count, "no tick should fire once Stop has returned")
}
