package source

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perfkit/agent/internal/clock"
)

// S6 — Shared scheduler ordering: sources with different frequencies,
// all registered on one SharedScheduler, fire in deadline order: the
// first tick of each source arrives in order of its frequency.
func TestSharedScheduler_OrdersByDeadline(t *testing.T) {
	sch := NewSharedScheduler(clock.Real, nil)
	t.Cleanup(sch.Close)

	var mu sync.Mutex
	var order []string

	record := func(name string) Callback {
		return func(s *SimpleSource) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}

	fast := NewSimple(Config{Frequency: 15 * time.Millisecond, SharedScheduler: sch, Callback: record("fast")})
	mid := NewSimple(Config{Frequency: 30 * time.Millisecond, SharedScheduler: sch, Callback: record("mid")})
	slow := NewSimple(Config{Frequency: 60 * time.Millisecond, SharedScheduler: sch, Callback: record("slow")})

	require.NoError(t, fast.Start())
	require.NoError(t, mid.Start())
	require.NoError(t, slow.Start())
	t.Cleanup(func() {
		fast.Stop()
		mid.Stop()
		slow.Stop()
	})

	deadline := time.Now().Add(250 * time.Millisecond)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(order)
		mu.Unlock()
		if n >= 6 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(order), 6, "expected at least 6 ticks across all three sources, got %v", order)

	firstFast := indexOf(order, "fast")
	firstMid := indexOf(order, "mid")
	firstSlow := indexOf(order, "slow")
	require.True(t, firstFast >= 0 && firstMid >= 0 && firstSlow >= 0, "every source must tick at least once: %v", order)
	require.Less(t, firstFast, firstMid, "the 15ms source must tick before the 30ms source: %v", order)
	require.Less(t, firstMid, firstSlow, "the 30ms source must tick before the 60ms source: %v", order)
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// TestSharedScheduler_RemoveStopsFurtherTicks confirms Stop (which calls
// remove) actually pulls a source out of the heap rather than merely
// pausing it.
func TestSharedScheduler_RemoveStopsFurtherTicks(t *testing.T) {
	sch := NewSharedScheduler(clock.Real, nil)
	t.Cleanup(sch.Close)

	var mu sync.Mutex
	count := 0
	s := NewSimple(Config{
		Frequency:       10 * time.Millisecond,
		SharedScheduler: sch,
		Callback: func(*SimpleSource) {
			mu.Lock()
			count++
			mu.Unlock()
		},
	})
	require.NoError(t, s.Start())
	time.Sleep(55 * time.Millisecond)
	require.NoError(t, s.Stop())

	mu.Lock()
	afterStop := count
	mu.Unlock()

	time.Sleep(55 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, afterStop, count, "no further ticks should be delivered after Stop removes the source from the heap")
}
