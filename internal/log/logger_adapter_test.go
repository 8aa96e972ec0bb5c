package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitByConfigDefaults(t *testing.T) {
	err := initByConfig(nil)
	require.NoError(t, err)
	l := GetLogger()
	require.NotNil(t, l)
	require.IsType(t, &logrusAdapter{}, l)
}

func TestWithFieldReturnsDistinctLogger(t *testing.T) {
	require.NoError(t, initByConfig(DefaultConfig()))
	base := GetLogger()
	withField := base.WithField("k", "v")
	require.NotSame(t, base, withField)
}

func TestDiscardLoggerIsNoOp(t *testing.T) {
	d := newDiscardLogger()
	d.Info("no-op")
	require.False(t, d.IsDebugEnabled())
	require.NotNil(t, d.WithField("k", "v"))
}
