package bexpress

import (
	"io"
	"net/http"

	"github.com/advdv/bexpress/reactor"
	"github.com/cockroachdb/errors"
)

// Next continues the pipeline with the next middleware. Calling it more than once, or after the pipeline moved on,
// has no effect.
type Next func()

// Middleware inspects the request, writes to the response and either calls next or terminates the pipeline by
// producing a response.
type Middleware interface {
	ServeNext(req *Request, res *Response, next Next)
}

// MiddlewareFunc allow casting a function to implement [Middleware].
type MiddlewareFunc func(req *Request, res *Response, next Next)

// ServeNext implements the [Middleware] interface.
func (f MiddlewareFunc) ServeNext(req *Request, res *Response, next Next) {
	f(req, res, next)
}

// Dispatcher is what a transport calls once per fully assembled request. The fallback runs when nothing produced a
// response.
type Dispatcher interface {
	Handle(req *Request, res *Response, fallback Next)
}

// EventLoop is the reactor context that owns a request. Every completion of background work must re-enter it through
// Execute before touching the request or its response.
type EventLoop interface {
	Execute(task func())
}

// NotFoundBody is the body [NotFound] responds with.
const NotFoundBody = "No middleware handled the request!"

// NotFound returns the reference fallback: a 404 with a fixed plain text body.
func NotFound(res *Response) Next {
	return func() {
		if res.SetStatus(http.StatusNotFound) == nil {
			_ = res.SetHeader("Content-Type", "text/plain; charset=utf-8")
		}

		res.SendString(NotFoundBody)
	}
}

// ToStd converts a dispatcher into a standard library http.Handler. Every request gets its own event loop that runs
// on the handler's goroutine until the response ended or the request context is done.
func ToStd(h Dispatcher, logs Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}

		if len(body) == 0 {
			body = nil
		}

		uri := r.RequestURI
		if uri == "" {
			uri = r.URL.RequestURI()
		}

		req := NewRequest(RequestHead{
			Method:     r.Method,
			URI:        uri,
			ProtoMajor: r.ProtoMajor,
			ProtoMinor: r.ProtoMinor,
			Header:     r.Header,
		}, body)
		req.SetContext(r.Context())

		loop := reactor.NewLoop()
		sink := newStdSink(w)
		res := NewResponse(sink, loop, logs)

		loop.Execute(func() { h.Handle(req, res, NotFound(res)) })

		if err := loop.Run(r.Context(), sink.done); err != nil {
			logs.LogResponseError(errors.Wrap(err, "request abandoned before the response ended"))
		}
	})
}

// stdSink writes frames to a http.ResponseWriter.
type stdSink struct {
	w    http.ResponseWriter
	rc   *http.ResponseController
	done chan struct{}
}

func newStdSink(w http.ResponseWriter) *stdSink {
	return &stdSink{w: w, rc: http.NewResponseController(w), done: make(chan struct{})}
}

func (s *stdSink) WriteFrame(f Frame) error {
	switch f.Kind {
	case FrameHead:
		for k, vs := range f.Header {
			s.w.Header()[k] = vs
		}

		s.w.WriteHeader(f.Status)
	case FrameBody:
		if _, err := s.w.Write(f.Body); err != nil {
			return errors.Wrap(err, "write")
		}
	case FrameEnd:
		if err := s.rc.Flush(); err != nil && !errors.Is(err, http.ErrNotSupported) {
			return errors.Wrap(err, "flush")
		}
	}

	return nil
}

func (s *stdSink) Close() error {
	close(s.done)
	return nil
}
