package source

import (
	"container/heap"
	"sync"
	"time"

	"github.com/perfkit/agent/internal/clock"
	"github.com/perfkit/agent/internal/log"
)

// schedulable is the subset of *SimpleSource the shared scheduler needs;
// kept as an interface so the heap and the worker loop don't reach into
// SimpleSource's private fields from a different file in a racy way — all
// access still goes through SimpleSource's own lock via these methods.
type schedulable interface {
	deadline() time.Time
	tick(now time.Time)
	heapIndex() int
	setHeapIndex(i int)
}

// schedulerHeap implements container/heap.Interface ordered by deadline.
type schedulerHeap []schedulable

func (h schedulerHeap) Len() int            { return len(h) }
func (h schedulerHeap) Less(i, j int) bool  { return h[i].deadline().Before(h[j].deadline()) }
func (h schedulerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].setHeapIndex(i)
	h[j].setHeapIndex(j)
}
func (h *schedulerHeap) Push(x any) {
	s := x.(schedulable)
	s.setHeapIndex(len(*h))
	*h = append(*h, s)
}
func (h *schedulerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.setHeapIndex(-1)
	*h = old[:n-1]
	return item
}

// SharedScheduler is the single, process-wide worker that drives every
// SimpleSource configured for shared (non-dedicated) scheduling. It keeps a
// min-heap of sources keyed by next deadline; on each wake it invokes every
// source whose deadline has passed — serially, on this one goroutine — then
// re-heapifies and sleeps until the new head deadline.
type SharedScheduler struct {
	clk  clock.Clock
	log  log.Logger
	mu   sync.Mutex
	heap schedulerHeap

	wake     chan struct{}
	stopCh   chan struct{}
	doneCh   chan struct{}
	startOne sync.Once
}

// NewSharedScheduler constructs a scheduler and starts its worker goroutine.
func NewSharedScheduler(clk clock.Clock, logger log.Logger) *SharedScheduler {
	if clk == nil {
		clk = clock.Real
	}
	sch := &SharedScheduler{
		clk:    clk,
		log:    logger,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go sch.run()
	return sch
}

// Close stops the worker goroutine. Safe to call once; further Add/Remove
// calls after Close are no-ops on a best-effort basis.
func (sch *SharedScheduler) Close() {
	sch.startOne.Do(func() { close(sch.stopCh) })
	<-sch.doneCh
}

func (sch *SharedScheduler) add(s schedulable) {
	sch.mu.Lock()
	heap.Push(&sch.heap, s)
	sch.mu.Unlock()
	sch.signal()
}

func (sch *SharedScheduler) remove(s schedulable) {
	sch.mu.Lock()
	idx := s.heapIndex()
	if idx >= 0 && idx < len(sch.heap) && sch.heap[idx] == s {
		heap.Remove(&sch.heap, idx)
	}
	sch.mu.Unlock()
	sch.signal()
}

func (sch *SharedScheduler) signal() {
	select {
	case sch.wake <- struct{}{}:
	default:
	}
}

func (sch *SharedScheduler) run() {
	defer close(sch.doneCh)
	for {
		sch.mu.Lock()
		var waitCh <-chan time.Time
		if sch.heap.Len() > 0 {
			d := sch.heap[0].deadline().Sub(sch.clk.Now())
			if d < 0 {
				d = 0
			}
			waitCh = sch.clk.After(d)
		}
		sch.mu.Unlock()

		select {
		case <-sch.stopCh:
			return
		case <-sch.wake:
			// heap mutated; loop around and recompute the wait.
		case <-waitCh:
			sch.runDue()
		}
	}
}

// runDue pops every source whose deadline has passed, advances each one's
// deadline before invoking its callback (so callback runtime never
// accumulates as drift), invokes the callbacks serially on this goroutine,
// then pushes the sources back onto the heap.
func (sch *SharedScheduler) runDue() {
	now := sch.clk.Now()

	sch.mu.Lock()
	var due []schedulable
	for sch.heap.Len() > 0 && !sch.heap[0].deadline().After(now) {
		due = append(due, heap.Pop(&sch.heap).(schedulable))
	}
	sch.mu.Unlock()

	for _, s := range due {
		s.tick(now)
	}

	if len(due) == 0 {
		return
	}
	sch.mu.Lock()
	for _, s := range due {
		heap.Push(&sch.heap, s)
	}
	sch.mu.Unlock()
}
