package encoder_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perfkit/agent/pkg/encoder"
	"github.com/perfkit/agent/pkg/manifest"
	"github.com/perfkit/agent/pkg/sample"
)

func buildManifest(t *testing.T, sourceID int) *manifest.Manifest {
	t.Helper()
	m := manifest.NewBuilder()
	m.SetSourceID(sourceID)
	m.SetTimestamp(time.Unix(0, 0))
	m.SetResolution(manifest.Millis)

	_, err := m.Append("cpu_pct", manifest.TypeU32)
	require.NoError(t, err)
	_, err = m.Append("rss_bytes", manifest.TypeU64)
	require.NoError(t, err)
	_, err = m.Append("label", manifest.TypeUtf8)
	require.NoError(t, err)
	m.Publish()
	return m
}

func TestDefaultEncoderManifestRoundTrip(t *testing.T) {
	enc := encoder.DefaultEncoder{}
	m := buildManifest(t, 7)

	buf, err := enc.EncodeManifest(m)
	require.NoError(t, err)

	require.Equal(t, byte(7), buf[0])
	require.Equal(t, byte(1), buf[1], "compact id flag must be set under 255 rows")

	decoded, err := enc.DecodeManifest(buf)
	require.NoError(t, err)
	require.Equal(t, 7, decoded.SourceID())
	require.Equal(t, 3, decoded.RowCount())
	require.Equal(t, "cpu_pct", decoded.RowName(1))
	typ, ok := decoded.RowType(2)
	require.True(t, ok)
	require.Equal(t, manifest.TypeU64, typ)
}

func TestDefaultEncoderManifestNonCompactIDs(t *testing.T) {
	enc := encoder.DefaultEncoder{}
	m := manifest.NewBuilderSized(300)
	for i := 0; i < 300; i++ {
		_, err := m.Append("row", manifest.TypeI8)
		require.NoError(t, err)
	}
	m.Publish()

	buf, err := enc.EncodeManifest(m)
	require.NoError(t, err)
	require.Equal(t, byte(0), buf[1], "compact id flag must be clear above 255 rows")

	decoded, err := enc.DecodeManifest(buf)
	require.NoError(t, err)
	require.Equal(t, 300, decoded.RowCount())
}

func TestDefaultEncoderSampleBatchRoundTrip(t *testing.T) {
	enc := encoder.DefaultEncoder{}

	s1 := sample.New([]byte("abcd"))
	s1.SetSourceID(3)
	s2 := sample.New([]byte("xy"))
	s2.SetSourceID(3)

	buf, err := enc.EncodeSamples([]*sample.Sample{s1, s2})
	require.NoError(t, err)
	require.Equal(t, (4+1+4)+(4+1+2), len(buf))

	decoded, err := enc.DecodeSamples(buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)
	require.Equal(t, 3, decoded[0].SourceID)
	require.Equal(t, []byte("abcd"), decoded[0].Payload)
	require.Equal(t, []byte("xy"), decoded[1].Payload)
}

func TestManifestAppendUnsupportedType(t *testing.T) {
	m := manifest.NewBuilder()
	_, err := m.Append("bad", manifest.RowType(99))
	require.ErrorIs(t, err, manifest.ErrUnsupportedType)
}

func TestManifestAppendAfterPublishFails(t *testing.T) {
	m := manifest.NewBuilder()
	m.Publish()
	_, err := m.Append("late", manifest.TypeI32)
	require.Error(t, err)
}
