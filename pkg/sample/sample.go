// Package sample implements the opaque, immutable binary payload a source
// emits between manifest publications.
package sample

import "time"

// Sample is an opaque, pre-encoded payload produced by a source. It is
// immutable after construction and shared by reference across every
// subscription in a channel's fan-out; Go's garbage collector takes the
// place of the reference counting the original implementation needed.
type Sample struct {
	sourceID  int
	data      []byte
	createdAt time.Time
}

// New constructs a Sample from an already-encoded payload. The caller must
// not mutate data after this call; Sample never copies it.
func New(data []byte) *Sample {
	return &Sample{data: data, createdAt: time.Now()}
}

// SourceID returns the id the owning channel stamped on delivery. Zero
// until the channel's deliver path has run.
func (s *Sample) SourceID() int { return s.sourceID }

// SetSourceID stamps the sample with its source id. Called exactly once,
// by the channel, before fan-out to subscriptions.
func (s *Sample) SetSourceID(id int) { s.sourceID = id }

// Data returns the sample's encoded payload. Callers must treat the
// returned slice as read-only.
func (s *Sample) Data() []byte { return s.data }

// Len returns the payload length in bytes.
func (s *Sample) Len() int { return len(s.data) }

// CreatedAt returns the time the sample was constructed. The subscription's
// time-triggered flush does not read it; that timer starts at the first
// enqueue.
func (s *Sample) CreatedAt() time.Time { return s.createdAt }
