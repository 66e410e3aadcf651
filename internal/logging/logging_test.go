package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	logger, err := New("debug")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = New("warn")
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = New("chatty")
	require.Error(t, err)
}
