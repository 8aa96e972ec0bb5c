package encoder

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

// DefaultEncoder is the identity wire format described in the pipeline's
// external interface spec: native-endian integers, a single manifest buffer
// per call, and a headerless concatenation of length-prefixed samples.
//
// Native-endian is a known limitation carried forward deliberately: the
// format assumes producer and consumer are co-hosted. A transport that
// bridges mixed-endian peers must translate; this encoder does not.
type DefaultEncoder struct{}

var _ Encoder = DefaultEncoder{}
var _ Decoder = DefaultEncoder{}

// EncodeManifest writes:
//
//	byte 0            source_id (low 8 bits)
//	byte 1            compact_ids_flag (1 if row_count <= 255, else 0)
//	per row:
//	  row id (1 byte if compact, else 4-byte native-endian i32)
//	  type tag (1 byte)
//	  name, UTF-8, NUL-terminated
func (DefaultEncoder) EncodeManifest(m *manifest.Manifest) ([]byte, error) {
	rows := m.Rows()
	compact := m.CompactIDs()

	var buf bytes.Buffer
	buf.WriteByte(byte(m.SourceID()))
	if compact {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}

	for _, row := range rows {
		if compact {
			buf.WriteByte(byte(row.ID))
		} else {
			var idBytes [4]byte
			binary.NativeEndian.PutUint32(idBytes[:], uint32(int32(row.ID)))
			buf.Write(idBytes[:])
		}
		buf.WriteByte(byte(row.Type))
		buf.WriteString(row.Name)
		buf.WriteByte(0)
	}

	return buf.Bytes(), nil
}

// EncodeSamples concatenates, per sample:
//
//	4 bytes   length = payload_len + 1, native-endian i32
//	1 byte    source_id (low 8 bits)
//	N bytes   payload verbatim
//
// The total buffer carries no outer framing header; receivers read each
// sample's length to find the next one.
func (DefaultEncoder) EncodeSamples(samples []*sample.Sample) ([]byte, error) {
	var buf bytes.Buffer
	for _, s := range samples {
		length := int32(s.Len() + 1)
		var lenBytes [4]byte
		binary.NativeEndian.PutUint32(lenBytes[:], uint32(length))
		buf.Write(lenBytes[:])
		buf.WriteByte(byte(s.SourceID()))
		buf.Write(s.Data())
	}
	return buf.Bytes(), nil
}

// DecodeManifest is the counterpart to EncodeManifest, used to verify the
// round-trip property in tests.
func (DefaultEncoder) DecodeManifest(buf []byte) (*manifest.Manifest, error) {
	if len(buf) < 2 {
		return nil, fmt.Errorf("encoder: manifest buffer too short: %d bytes", len(buf))
	}
	sourceID := int(buf[0])
	compact := buf[1] == 1
	pos := 2

	m := manifest.NewBuilder()
	m.SetSourceID(sourceID)

	for pos < len(buf) {
		var rowID int
		if compact {
			if pos >= len(buf) {
				return nil, fmt.Errorf("encoder: truncated compact row id at offset %d", pos)
			}
			rowID = int(buf[pos])
			pos++
		} else {
			if pos+4 > len(buf) {
				return nil, fmt.Errorf("encoder: truncated row id at offset %d", pos)
			}
			rowID = int(int32(binary.NativeEndian.Uint32(buf[pos : pos+4])))
			pos += 4
		}
		if pos >= len(buf) {
			return nil, fmt.Errorf("encoder: truncated type tag at offset %d", pos)
		}
		typ := manifest.RowType(buf[pos])
		pos++

		nul := bytes.IndexByte(buf[pos:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("encoder: unterminated row name at offset %d", pos)
		}
		name := string(buf[pos : pos+nul])
		pos += nul + 1

		gotID, err := m.Append(name, typ)
		if err != nil {
			return nil, err
		}
		if gotID != rowID {
			return nil, fmt.Errorf("encoder: row id mismatch: wire=%d builder=%d", rowID, gotID)
		}
	}

	return m, nil
}

// DecodeSamples is the counterpart to EncodeSamples.
func (DefaultEncoder) DecodeSamples(buf []byte) ([]DecodedSample, error) {
	var out []DecodedSample
	pos := 0
	for pos < len(buf) {
		if pos+4 > len(buf) {
			return nil, fmt.Errorf("encoder: truncated sample length at offset %d", pos)
		}
		length := int32(binary.NativeEndian.Uint32(buf[pos : pos+4]))
		pos += 4
		if length < 1 {
			return nil, fmt.Errorf("encoder: invalid sample length %d at offset %d", length, pos-4)
		}
		if pos+int(length) > len(buf) {
			return nil, fmt.Errorf("encoder: sample payload overruns buffer at offset %d", pos)
		}
		sourceID := int(buf[pos])
		payload := buf[pos+1 : pos+int(length)]
		pos += int(length)
		out = append(out, DecodedSample{SourceID: sourceID, Payload: payload})
	}
	return out, nil
}
