package bexpress

import (
	"log"
	"sync/atomic"
	"testing"
)

// Logger can be implemented to get informed about important states.
type Logger interface {
	LogResponseError(err error)
	LogPipelineExhausted(method, uri string)
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) LogResponseError(err error) {
	l.Logger.Printf("bexpress: response error: %s", err)
}

func (l stdLogger) LogPipelineExhausted(method, uri string) {
	l.Logger.Printf("bexpress: no middleware handled %s %s", method, uri)
}

// NewStdLogger returns a [Logger] that prints to l, or to log.Default() if l is nil.
func NewStdLogger(l *log.Logger) Logger {
	if l == nil {
		l = log.Default()
	}

	return stdLogger{l}
}

type TestLogger struct {
	tb testing.TB

	NumLogResponseError     int64
	NumLogPipelineExhausted int64
}

func NewTestLogger(tb testing.TB) *TestLogger {
	return &TestLogger{tb: tb}
}

func (l *TestLogger) LogResponseError(err error) {
	atomic.AddInt64(&l.NumLogResponseError, 1)
	l.tb.Logf("bexpress: response error: %s", err)
}

func (l *TestLogger) LogPipelineExhausted(method, uri string) {
	atomic.AddInt64(&l.NumLogPipelineExhausted, 1)
	l.tb.Logf("bexpress: no middleware handled %s %s", method, uri)
}

var _ Logger = &TestLogger{}
