// Package subscription implements the buffered fan-out target a Channel
// delivers samples and manifests to: a size- and time-triggered flush
// policy in front of an Encoder, with mute/unmute gating and a guarantee
// that a manifest always precedes the samples encoded against it.
package subscription

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/perfkit/agent/internal/clock"
	"github.com/perfkit/agent/internal/log"
	"github.com/perfkit/agent/internal/perrors"
	"github.com/perfkit/agent/pkg/encoder"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

// SampleHandler receives an encoded batch of samples.
type SampleHandler func(buf []byte)

// ManifestHandler receives an encoded manifest.
type ManifestHandler func(buf []byte)

var subSeq int64

func allocID() int { return int(atomic.AddInt64(&subSeq, 1)) }

// Config configures a Subscription at construction.
type Config struct {
	Encoder         encoder.Encoder
	SampleHandler   SampleHandler
	ManifestHandler ManifestHandler
	BufferMax       int           // 0 means flush every sample
	BufferTimeout   time.Duration // 0 disables the time-based flush
	Clock           clock.Clock   // nil defaults to clock.Real
}

// Subscription is the buffered delivery target described in spec.md §4.7.
type Subscription struct {
	mu sync.Mutex

	id        int
	uuid      uuid.UUID
	createdAt time.Time

	clock           clock.Clock
	encoder         encoder.Encoder
	sampleHandler   SampleHandler
	manifestHandler ManifestHandler
	bufferMax       int
	bufferTimeout   time.Duration

	queue         []*sample.Sample
	bufferedBytes int
	muted         bool
	disabled      bool

	currentManifest  *manifest.Manifest
	manifestDelivered bool

	timer      clock.Timer
	timerArmed bool
	closed     bool
	done       chan struct{}
}

// New constructs a Subscription with an empty queue. It starts muted; the
// subscriber must call Unmute explicitly before samples are forwarded.
func New(cfg Config) *Subscription {
	c := cfg.Clock
	if c == nil {
		c = clock.Real
	}
	return &Subscription{
		id:              allocID(),
		uuid:            uuid.New(),
		createdAt:       time.Now(),
		clock:           c,
		encoder:         cfg.Encoder,
		sampleHandler:   cfg.SampleHandler,
		manifestHandler: cfg.ManifestHandler,
		bufferMax:       cfg.BufferMax,
		bufferTimeout:   cfg.BufferTimeout,
		muted:           true,
		done:            make(chan struct{}),
	}
}

// Close stops the subscription's flush timer goroutine. The Manager calls
// this when a subscription is removed from its channel.
func (s *Subscription) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

// ID returns the subscription's process-unique identifier.
func (s *Subscription) ID() int { return s.id }

// CreatedAt returns the wall-clock instant the subscription was created,
// surfaced over RPC as a stable external correlation point (get_created_at).
func (s *Subscription) CreatedAt() time.Time { return s.createdAt }

// ExternalID returns the subscription's stable UUID for cross-process
// correlation, distinct from the monotonic in-process id.
func (s *Subscription) ExternalID() uuid.UUID { return s.uuid }

// SetBuffer updates the size/time flush policy.
func (s *Subscription) SetBuffer(bufferMax int, bufferTimeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bufferMax = bufferMax
	s.bufferTimeout = bufferTimeout
}

// Buffer returns the current size/time flush policy.
func (s *Subscription) Buffer() (bufferMax int, bufferTimeout time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferMax, s.bufferTimeout
}

// SetEncoder swaps the encoder used for future flushes.
func (s *Subscription) SetEncoder(e encoder.Encoder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encoder = e
}

// SetHandlers swaps the sample/manifest delivery callbacks.
func (s *Subscription) SetHandlers(sampleHandler SampleHandler, manifestHandler ManifestHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleHandler = sampleHandler
	s.manifestHandler = manifestHandler
}

// Disabled reports whether an encoder failure has permanently broken this
// subscription. A disabled subscription stays attached to its channel and
// discards every sample and manifest it is handed.
func (s *Subscription) Disabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabled
}

// DeliverSample implements the channel.subscriber surface.
func (s *Subscription) DeliverSample(sm *sample.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disabled || s.muted {
		return
	}

	s.queue = append(s.queue, sm)
	s.bufferedBytes += sm.Len()

	if len(s.queue) == 1 && s.bufferTimeout > 0 {
		s.armTimerLocked()
	}

	if s.needsFlushLocked() {
		s.flushLocked()
	}
}

// DeliverManifest implements the channel.subscriber surface.
func (s *Subscription) DeliverManifest(m *manifest.Manifest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.muted {
		// Invariant: a muted subscription's queue is empty. The new
		// manifest is staged and delivered on unmute.
		s.currentManifest = m
		s.manifestDelivered = false
		return
	}

	if len(s.queue) > 0 {
		s.flushLocked()
	}
	s.currentManifest = m
	s.deliverManifestLocked()
}

func (s *Subscription) deliverManifestLocked() {
	if s.disabled || s.currentManifest == nil || s.encoder == nil {
		return
	}
	buf, err := s.encoder.EncodeManifest(s.currentManifest)
	if err != nil {
		s.disableLocked(err)
		return
	}
	s.manifestDelivered = true
	if s.manifestHandler != nil {
		s.manifestHandler(buf)
	}
}

// needsFlushLocked reports whether the queue should flush now: non-empty
// and either buffer_max==0 (flush-every-sample) or the byte threshold met.
func (s *Subscription) needsFlushLocked() bool {
	if len(s.queue) == 0 {
		return false
	}
	return s.bufferMax == 0 || s.bufferedBytes >= s.bufferMax
}

// flushLocked drains the queue, encodes the batch, and invokes the sample
// handler. An encoder failure permanently disables the subscription.
func (s *Subscription) flushLocked() {
	if s.disableTimerLocked(); len(s.queue) == 0 {
		return
	}

	batch := s.queue
	s.queue = nil
	s.bufferedBytes = 0

	if s.disabled || s.encoder == nil {
		return
	}

	buf, err := s.encoder.EncodeSamples(batch)
	if err != nil {
		s.disableLocked(err)
		return
	}
	if s.sampleHandler != nil {
		s.sampleHandler(buf)
	}
}

func (s *Subscription) disableLocked(err error) {
	s.disabled = true
	log.GetLogger().WithError(err).Errorf("subscription %d: encoder failure, disabling: %v", s.id, perrors.ErrEncoderFailure)
}

// armTimerLocked starts or restarts the time-based flush timer. The first
// call starts a single long-lived goroutine that watches the timer channel
// for the life of the subscription; later calls just Reset it.
func (s *Subscription) armTimerLocked() {
	if s.timer == nil {
		s.timer = s.clock.NewTimer(s.bufferTimeout)
		go s.timerLoop(s.timer.C())
	} else {
		s.timer.Reset(s.bufferTimeout)
	}
	s.timerArmed = true
}

func (s *Subscription) timerLoop(c <-chan time.Time) {
	for {
		select {
		case <-s.done:
			return
		case _, ok := <-c:
			if !ok {
				return
			}
			s.mu.Lock()
			if s.timerArmed {
				s.timerArmed = false
				s.flushLocked()
			}
			s.mu.Unlock()
		}
	}
}

// disableTimerLocked cancels a pending flush timer; called whenever the
// queue is about to be drained so a stale fire doesn't double-flush.
func (s *Subscription) disableTimerLocked() {
	if s.timer != nil && s.timerArmed {
		s.timer.Stop()
	}
	s.timerArmed = false
}

// Mute stops forwarding samples. If drain is true and the subscription was
// previously unmuted, the queue is flushed first.
func (s *Subscription) Mute(drain bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if drain && !s.muted {
		s.flushLocked()
	}
	s.muted = true
}

// Unmute resumes forwarding samples. If a manifest is staged and hasn't
// been delivered since its last set, it is delivered now.
func (s *Subscription) Unmute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.muted = false
	if s.currentManifest != nil && !s.manifestDelivered {
		s.deliverManifestLocked()
	}
}

// Muted reports whether the subscription is currently muted.
func (s *Subscription) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// QueueLen returns the number of queued, unflushed samples. Exposed for the
// property test asserting a muted subscription's queue length is always 0.
func (s *Subscription) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// BufferedBytes returns the running sum of queued payload lengths.
func (s *Subscription) BufferedBytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bufferedBytes
}
