package bexpress

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/net/http/httpguts"
)

// Encoder turns a model into bytes for [Response.JSON].
type Encoder func(v any) ([]byte, error)

// Response is a write-once response bound to a single request. It moves from unsent to header-sent to ended and
// never back: the head frame is written at most once, and once ended every write is a no-op. A response must only be
// touched from the event loop that owns its request.
type Response struct {
	status int
	header http.Header
	sink   Sink
	loop   EventLoop
	logs   Logger
	encode Encoder

	headerSent bool
	ended      bool
	onEnd      []func()
}

// ResponseOption configures a [Response].
type ResponseOption func(*Response)

// WithEncoder replaces the JSON encoder used by [Response.JSON].
func WithEncoder(enc Encoder) ResponseOption {
	return func(r *Response) { r.encode = enc }
}

// NewResponse creates a response that writes to sink. The loop is the owning reactor context, async work that needs
// to get back to the response (e.g. file reads) delivers its results there.
func NewResponse(sink Sink, loop EventLoop, logs Logger, opts ...ResponseOption) *Response {
	res := &Response{
		status: http.StatusOK,
		header: http.Header{},
		sink:   sink,
		loop:   loop,
		logs:   logs,
		encode: json.Marshal,
	}

	for _, opt := range opts {
		opt(res)
	}

	return res
}

func (r *Response) Status() int          { return r.status }
func (r *Response) HeaderSent() bool     { return r.headerSent }
func (r *Response) Ended() bool          { return r.ended }
func (r *Response) EventLoop() EventLoop { return r.loop }

// SetStatus sets the status code of the head frame.
func (r *Response) SetStatus(code int) error {
	if r.headerSent {
		return ErrHeaderSent
	}

	r.status = code

	return nil
}

// Header returns all values of the named header joined by ", ".
func (r *Response) Header(name string) string {
	return strings.Join(r.header.Values(name), ", ")
}

// SetHeader replaces all values of the named header with value.
func (r *Response) SetHeader(name, value string) error {
	if err := r.checkHeader(name, value); err != nil {
		return err
	}

	r.header.Set(name, value)

	return nil
}

// AddHeader appends value to the named header.
func (r *Response) AddHeader(name, value string) error {
	if err := r.checkHeader(name, value); err != nil {
		return err
	}

	r.header.Add(name, value)

	return nil
}

// DelHeader removes the named header.
func (r *Response) DelHeader(name string) error {
	if r.headerSent {
		return ErrHeaderSent
	}

	r.header.Del(name)

	return nil
}

func (r *Response) checkHeader(name, value string) error {
	if r.headerSent {
		return ErrHeaderSent
	}

	if !httpguts.ValidHeaderFieldName(name) || !httpguts.ValidHeaderFieldValue(value) {
		return errors.Wrapf(ErrInvalidHeader, "%q", name)
	}

	return nil
}

// OnEnd registers fn to run after the response ended and the sink was closed. Hooks run in registration order on
// the response's event loop.
func (r *Response) OnEnd(fn func()) {
	r.onEnd = append(r.onEnd, fn)
}

// FlushHeader writes the head frame if that did not happen yet. A failing write goes through the error handler.
func (r *Response) FlushHeader() {
	if r.headerSent {
		return
	}

	r.headerSent = true

	if err := r.sink.WriteFrame(Frame{
		Kind:   FrameHead,
		Status: r.status,
		Header: r.header.Clone(),
	}); err != nil {
		r.handleError(errors.Wrap(err, "write head"))
	}
}

// Send writes body as the response body and ends the response.
func (r *Response) Send(body []byte) {
	r.FlushHeader()
	if r.ended {
		return
	}

	if err := r.sink.WriteFrame(Frame{Kind: FrameBody, Body: body}); err != nil {
		r.handleError(errors.Wrap(err, "write body"))
		return
	}

	r.End()
}

// SendString is [Response.Send] for text.
func (r *Response) SendString(s string) {
	r.Send([]byte(s))
}

// JSON encodes v and sends it with a JSON content type and an exact content length. Nothing is written before the
// encoding succeeded.
func (r *Response) JSON(v any) {
	if r.ended {
		return
	}

	data, err := r.encode(v)
	if err != nil {
		r.handleError(errors.Wrap(err, "encode json"))
		return
	}

	if !r.headerSent {
		r.header.Set("Content-Type", "application/json")
		r.header.Set("Content-Length", strconv.Itoa(len(data)))
	}

	r.Send(data)
}

// SendError responds with the status carried by err (see [CodeOf], 500 otherwise) and a plain text diagnostic.
func (r *Response) SendError(err error) {
	code := CodeOf(err)
	if code == CodeUnknown {
		code = CodeInternalServerError
	}

	if !r.headerSent {
		r.status = int(code)
		r.header.Set("Content-Type", "text/plain; charset=utf-8")
		r.header.Del("Content-Length")
	}

	r.SendString("Error: " + err.Error())
}

// End writes the end frame and closes the sink. Only the first call has an effect.
func (r *Response) End() {
	if r.ended {
		return
	}

	r.ended = true

	if err := r.sink.WriteFrame(Frame{Kind: FrameEnd}); err != nil {
		r.logs.LogResponseError(errors.Wrap(err, "write end"))
	}

	if err := r.sink.Close(); err != nil {
		r.logs.LogResponseError(errors.Wrap(err, "close"))
	}

	for _, fn := range r.onEnd {
		fn()
	}
}

// handleError is where every write path failure ends up: log it and end the response. There are no retries.
func (r *Response) handleError(err error) {
	r.logs.LogResponseError(err)
	r.End()
}
