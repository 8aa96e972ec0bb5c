package rpcapi

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(Codec{})
}

// Codec implements encoding.Codec (the legacy, non-protobuf codec interface
// grpc-go still dispatches on via content-subtype negotiation), carrying
// every message in this package as plain JSON instead of protobuf wire
// bytes. Registered once via init() above and selected per-call with
// grpc.CallContentSubtype(Name).
type Codec struct{}

// Name is the gRPC content-subtype this codec answers to: requests arrive
// as "application/grpc+json".
const Name = "json"

func (Codec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (Codec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func (Codec) Name() string { return Name }
