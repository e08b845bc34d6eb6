package app

import (
	"github.com/advdv/bexpress"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a zap logger configured from the environment.
// BEX_LOG_LEVEL controls the level (debug, info, warn, error).
func NewLogger(env Environment) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(env.logLevel())
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

type zapLogger struct{ *zap.Logger }

func (l zapLogger) LogResponseError(err error) {
	l.Logger.Error("response error", zap.Error(err))
}

func (l zapLogger) LogPipelineExhausted(method, uri string) {
	l.Logger.Debug("no middleware handled the request",
		zap.String("method", method),
		zap.String("uri", uri))
}

// NewZapLogger adapts a zap logger to the [bexpress.Logger] interface.
func NewZapLogger(l *zap.Logger) bexpress.Logger {
	return zapLogger{l.Named("bexpress")}
}
