// Package encoder converts manifests and sample batches into byte buffers
// for delivery to subscribers, and ships the default wire codec that makes
// those buffers byte-exact across implementations.
package encoder

import (
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

// Encoder converts a manifest or a batch of samples into a byte buffer.
// Implementations may substitute alternative framings (compression,
// encryption) as long as they ship a matching decoder; the pipeline never
// inspects the bytes itself.
type Encoder interface {
	EncodeManifest(m *manifest.Manifest) ([]byte, error)
	EncodeSamples(samples []*sample.Sample) ([]byte, error)
}

// Decoder is the counterpart a receiver uses to read DefaultEncoder's
// output back into structured values. It is not part of the Listener-facing
// pipeline API; it exists so the wire format's round-trip property (see
// spec invariant 6) is checkable in-process.
type Decoder interface {
	DecodeManifest(buf []byte) (*manifest.Manifest, error)
	DecodeSamples(buf []byte) ([]DecodedSample, error)
}

// DecodedSample is the result of decoding one sample out of a batch buffer.
type DecodedSample struct {
	SourceID int
	Payload  []byte
}
