package app

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, level := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
		t.Run(level.String(), func(t *testing.T) {
			logger, err := NewLogger(BaseEnvironment{LogLevel: level})
			require.NoError(t, err)
			require.True(t, logger.Core().Enabled(level))
			require.False(t, logger.Core().Enabled(level-1))
		})
	}
}

func TestZapLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.LogResponseError(errors.New("write failed"))
	logger.LogPipelineExhausted("GET", "/missing")

	all := logs.All()
	require.Len(t, all, 2)

	require.Equal(t, zapcore.ErrorLevel, all[0].Level)
	require.Equal(t, "response error", all[0].Message)
	require.Equal(t, "bexpress", all[0].LoggerName)
	require.Equal(t, "write failed", all[0].ContextMap()["error"])

	require.Equal(t, zapcore.DebugLevel, all[1].Level)
	require.Equal(t, "/missing", all[1].ContextMap()["uri"])
}
