package source

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/perfkit/agent/internal/clock"
	"github.com/perfkit/agent/internal/log"
	"github.com/perfkit/agent/internal/procinfo"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

var nextSourceID int64

// allocID returns a process-lifetime-unique, monotonically increasing id.
func allocID() int {
	return int(atomic.AddInt64(&nextSourceID, 1))
}

// Callback is invoked once per tick of a SimpleSource; it typically ends by
// calling EmitSample. The callback must not block — the shared scheduler
// serializes every source sharing it on this one goroutine, and a blocking
// callback delays every other shared source.
type Callback func(*SimpleSource)

// SpawnCallback lets a SimpleSource act as a channel's spawner (NeedsSpawn
// == true), wrapping the child process however the source's kind requires
// (e.g. attaching a tracer) before reporting the resulting PID.
type SpawnCallback func(*SimpleSource, *procinfo.SpawnInfo) error

// startDedicatedThread is a seam over "start a dedicated goroutine for this
// source". Goroutine creation does not fail in practice the way an OS
// thread's clone(2) can, so there is no naturally occurring error path here;
// the seam exists so tests can force the fallback-to-shared-scheduler path
// spec'd for dedicated-thread creation failure.
var startDedicatedThread = func(fn func()) error {
	go fn()
	return nil
}

// Config configures a SimpleSource at construction time.
type Config struct {
	Frequency          time.Duration
	UseDedicatedThread  bool
	Callback            Callback
	SpawnCallback       SpawnCallback
	Clock               clock.Clock
	Logger              log.Logger
	SharedScheduler     *SharedScheduler // required unless UseDedicatedThread
}

// SimpleSource is a periodic, callback-driven source: on a fixed
// frequency it either wakes on the process-wide shared scheduler or on its
// own dedicated goroutine, and invokes a user callback that typically emits
// a sample.
type SimpleSource struct {
	id        int
	clk       clock.Clock
	log       log.Logger
	frequency time.Duration
	dedicated bool
	callback  Callback
	spawnCB   SpawnCallback
	scheduler *SharedScheduler

	mu        sync.Mutex
	channelID int
	deliverer Deliverer
	bound     bool
	current   *manifest.Manifest
	nextDl    time.Time
	heapIdx   int
	running   bool

	// dedicated-thread-only state
	timer  clock.Timer
	stopCh chan struct{}
	doneCh chan struct{}
}

var _ Source = (*SimpleSource)(nil)

// NewSimple constructs a SimpleSource. If cfg.UseDedicatedThread is false,
// cfg.SharedScheduler must be non-nil.
func NewSimple(cfg Config) *SimpleSource {
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real
	}
	return &SimpleSource{
		id:        allocID(),
		clk:       clk,
		log:       cfg.Logger,
		frequency: cfg.Frequency,
		dedicated: cfg.UseDedicatedThread,
		callback:  cfg.Callback,
		spawnCB:   cfg.SpawnCallback,
		scheduler: cfg.SharedScheduler,
		heapIdx:   -1,
	}
}

func (s *SimpleSource) ID() int { return s.id }

func (s *SimpleSource) Bind(channelID int, d Deliverer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound {
		return // back-reference assigned at most once
	}
	s.channelID = channelID
	s.deliverer = d
	s.bound = true
}

func (s *SimpleSource) NeedsSpawn() bool { return s.spawnCB != nil }

func (s *SimpleSource) Spawn(info *procinfo.SpawnInfo) error {
	if s.spawnCB == nil {
		return fmt.Errorf("source %d: does not spawn", s.id)
	}
	return s.spawnCB(s, info)
}

// Start begins the periodic schedule. If configured for a dedicated
// thread, it attempts to start one; on failure (see startDedicatedThread)
// it falls back to the shared scheduler once, logging the fallback.
func (s *SimpleSource) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.nextDl = s.clk.Now().Add(s.frequency)
	dedicated := s.dedicated
	s.mu.Unlock()

	if dedicated {
		s.stopCh = make(chan struct{})
		s.doneCh = make(chan struct{})
		if err := startDedicatedThread(s.dedicatedLoop); err == nil {
			return nil
		}
		if s.log != nil {
			s.log.WithField("source_id", s.id).Warn("dedicated thread creation failed, falling back to shared scheduler")
		}
		s.mu.Lock()
		s.dedicated = false
		s.mu.Unlock()
	}

	if s.scheduler == nil {
		return fmt.Errorf("source %d: no shared scheduler configured", s.id)
	}
	s.scheduler.add(s)
	return nil
}

// Stop cancels any pending deadline wait and joins the dedicated goroutine,
// if one was started.
func (s *SimpleSource) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	dedicated := s.dedicated
	s.mu.Unlock()

	if dedicated {
		close(s.stopCh)
		<-s.doneCh
		return nil
	}
	if s.scheduler != nil {
		s.scheduler.remove(s)
	}
	return nil
}

func (s *SimpleSource) Mute() {
	// SimpleSource itself keeps producing while muted; gating happens at
	// the subscription. Nothing to do here, present for interface symmetry
	// with a future source kind that might pause its own production.
}

func (s *SimpleSource) Unmute() {}

func (s *SimpleSource) Manifest() *manifest.Manifest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// PublishManifest routes a freshly built manifest to the owning channel and
// remembers it as the source's current manifest.
func (s *SimpleSource) PublishManifest(m *manifest.Manifest) {
	s.mu.Lock()
	s.current = m
	d := s.deliverer
	cid := s.channelID
	s.mu.Unlock()
	if d != nil {
		d.PublishManifest(cid, m)
	}
}

// EmitSample routes an encoded sample to the owning channel.
func (s *SimpleSource) EmitSample(data []byte) {
	s.mu.Lock()
	d := s.deliverer
	cid := s.channelID
	s.mu.Unlock()
	if d == nil {
		return
	}
	d.DeliverSample(cid, sample.New(data))
}

func (s *SimpleSource) invokeCallback() {
	if s.callback != nil {
		s.callback(s)
	}
}

// --- schedulable interface, used only by SharedScheduler ---

func (s *SimpleSource) deadline() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextDl
}

func (s *SimpleSource) heapIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heapIdx
}

func (s *SimpleSource) setHeapIndex(i int) {
	s.mu.Lock()
	s.heapIdx = i
	s.mu.Unlock()
}

// tick is called by the shared scheduler once this source's deadline has
// passed. The deadline is advanced by the scheduler's caller pattern: here
// we advance first, then invoke, matching the drift-compensation rule.
func (s *SimpleSource) tick(now time.Time) {
	s.mu.Lock()
	s.nextDl = s.nextDl.Add(s.frequency)
	s.mu.Unlock()
	s.invokeCallback()
}

// dedicatedLoop is the per-source goroutine used when UseDedicatedThread is
// set: a private timer substituting for the original's condition variable,
// woken either by the timer firing or by Stop closing stopCh.
func (s *SimpleSource) dedicatedLoop() {
	defer close(s.doneCh)

	s.mu.Lock()
	wait := s.nextDl.Sub(s.clk.Now())
	s.mu.Unlock()
	if wait < 0 {
		wait = 0
	}
	timer := s.clk.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-timer.C():
			s.mu.Lock()
			s.nextDl = s.nextDl.Add(s.frequency)
			next := s.nextDl
			s.mu.Unlock()

			s.invokeCallback()

			d := next.Sub(s.clk.Now())
			if d < 0 {
				d = 0
			}
			timer.Reset(d)
		}
	}
}
