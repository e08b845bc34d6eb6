package bexpress_test

import (
	"context"
	"testing"
	"time"

	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/reactor"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

var errWriteFailed = errors.New("write failed")

// recordSink keeps every frame it is given.
type recordSink struct {
	frames []bexpress.Frame
	closed int
	failOn bexpress.FrameKind
	done   chan struct{}
}

func newRecordSink() *recordSink {
	return &recordSink{done: make(chan struct{})}
}

func (s *recordSink) WriteFrame(f bexpress.Frame) error {
	if f.Kind == s.failOn {
		return errWriteFailed
	}

	s.frames = append(s.frames, f)

	return nil
}

func (s *recordSink) Close() error {
	s.closed++
	if s.closed == 1 {
		close(s.done)
	}

	return nil
}

func (s *recordSink) kinds() (ks []bexpress.FrameKind) {
	for _, f := range s.frames {
		ks = append(ks, f.Kind)
	}

	return ks
}

func (s *recordSink) head() bexpress.Frame {
	for _, f := range s.frames {
		if f.Kind == bexpress.FrameHead {
			return f
		}
	}

	return bexpress.Frame{}
}

func (s *recordSink) body() (b string) {
	for _, f := range s.frames {
		if f.Kind == bexpress.FrameBody {
			b += string(f.Body)
		}
	}

	return b
}

// serve dispatches one request on a fresh loop that runs on the test goroutine until the response ended.
func serve(
	tb testing.TB, d bexpress.Dispatcher, method, uri string, body []byte,
) (*recordSink, *bexpress.TestLogger) {
	tb.Helper()

	loop := reactor.NewLoop()
	sink := newRecordSink()
	logs := bexpress.NewTestLogger(tb)

	req := bexpress.NewRequest(bexpress.RequestHead{Method: method, URI: uri}, body)
	res := bexpress.NewResponse(sink, loop, logs)

	loop.Execute(func() { d.Handle(req, res, bexpress.NotFound(res)) })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(tb, loop.Run(ctx, sink.done))

	return sink, logs
}
