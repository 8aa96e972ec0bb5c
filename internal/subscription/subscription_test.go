package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perfkit/agent/pkg/encoder"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

func newTestSubscription(bufferMax int, bufferTimeout time.Duration) (*Subscription, *int, *[][]byte) {
	calls := 0
	var batches [][]byte
	s := New(Config{
		Encoder:       encoder.DefaultEncoder{},
		BufferMax:     bufferMax,
		BufferTimeout: bufferTimeout,
		SampleHandler: func(buf []byte) {
			calls++
			batches = append(batches, buf)
		},
	})
	return s, &calls, &batches
}

func testSample(n int) *sample.Sample {
	return sample.New(make([]byte, n))
}

// S1 — Buffered flush by size: buffer_max=256 (four 64-byte payloads),
// 64-byte samples, flush every 4, each flush 4*(4+1+64)=276 encoded bytes.
func TestDeliverSample_FlushBySize(t *testing.T) {
	s, calls, batches := newTestSubscription(256, 0)
	s.Unmute()

	for i := 0; i < 12; i++ {
		s.DeliverSample(testSample(64))
	}

	require.Equal(t, 3, *calls)
	for _, b := range *batches {
		require.Len(t, b, 4*(4+1+64))
	}
	require.Equal(t, 0, s.QueueLen())
}

// S3 — Muted subscription: no flush while muted, queue stays empty,
// unmute triggers immediate flush with buffer_max=0.
func TestDeliverSample_MutedThenUnmute(t *testing.T) {
	s, calls, _ := newTestSubscription(0, 0)
	s.Mute(false)

	for i := 0; i < 10; i++ {
		s.DeliverSample(testSample(64))
	}
	require.Equal(t, 0, *calls)
	require.Equal(t, 0, s.QueueLen())

	s.Unmute()
	s.DeliverSample(testSample(64))
	require.Equal(t, 1, *calls)
}

// S4 — Manifest flush-before-advance: queued samples flush before a new
// manifest replaces the current one.
func TestDeliverManifest_FlushesQueueBeforeAdvancing(t *testing.T) {
	s, _, _ := newTestSubscription(0, 0)
	s.Unmute()
	manifestCalls := 0
	sampleCalls := 0
	s.SetHandlers(func(buf []byte) { sampleCalls++ }, func(buf []byte) { manifestCalls++ })

	m1 := manifest.NewBuilder()
	_, err := m1.Append("a", manifest.TypeI32)
	require.NoError(t, err)
	m1.Publish()

	s.DeliverManifest(m1)
	require.Equal(t, 1, manifestCalls)

	// buffer_max=0 means every DeliverSample flushes immediately, so drive
	// the invariant through SetBuffer to accumulate first.
	s.SetBuffer(1<<20, 0)
	s.DeliverSample(testSample(10))
	s.DeliverSample(testSample(10))
	s.DeliverSample(testSample(10))
	require.Equal(t, 3, s.QueueLen())

	m2 := manifest.NewBuilder()
	_, err = m2.Append("b", manifest.TypeI32)
	require.NoError(t, err)
	m2.Publish()

	s.DeliverManifest(m2)
	require.Equal(t, 0, s.QueueLen())
	require.Equal(t, 1, sampleCalls, "queued samples flushed before the new manifest took effect")
	require.Equal(t, 2, manifestCalls)
}

func TestDeliverManifest_StagedWhileMuted(t *testing.T) {
	s := New(Config{Encoder: encoder.DefaultEncoder{}})
	manifestCalls := 0
	s.SetHandlers(nil, func(buf []byte) { manifestCalls++ })

	s.Mute(false)
	m := manifest.NewBuilder()
	_, err := m.Append("a", manifest.TypeI32)
	require.NoError(t, err)
	m.Publish()

	s.DeliverManifest(m)
	require.Equal(t, 0, manifestCalls, "manifest delivery deferred while muted")

	s.Unmute()
	require.Equal(t, 1, manifestCalls, "staged manifest delivered on unmute")
}

func TestDeliverSample_EncoderFailureDisablesSubscription(t *testing.T) {
	s := New(Config{
		Encoder: failingEncoder{},
	})
	s.Unmute()
	s.DeliverSample(testSample(8))
	require.True(t, s.Disabled())
}

var errEncodeFailed = errors.New("encode failed")

type failingEncoder struct{}

func (failingEncoder) EncodeManifest(*manifest.Manifest) ([]byte, error) {
	return nil, errEncodeFailed
}
func (failingEncoder) EncodeSamples([]*sample.Sample) ([]byte, error) {
	return nil, errEncodeFailed
}
