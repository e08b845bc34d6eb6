package bexpress

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// RequestHead is the parsed head of an incoming request as delivered by a transport.
type RequestHead struct {
	Method     string
	URI        string
	ProtoMajor int
	ProtoMinor int
	Header     http.Header
}

// Request is the view middleware gets of an incoming request. The head and body are fixed at construction, the
// property bag is free for middleware to use and lives as long as the request.
type Request struct {
	head  RequestHead
	body  []byte
	ctx   context.Context
	props map[string]any
}

// NewRequest builds a request from a transport supplied head and body. A nil body means no body frames arrived.
// Header keys are canonicalized so lookups are case-insensitive.
func NewRequest(head RequestHead, body []byte) *Request {
	hdr := make(http.Header, len(head.Header))
	for k, vs := range head.Header {
		ck := http.CanonicalHeaderKey(k)
		hdr[ck] = append(hdr[ck], vs...)
	}

	head.Header = hdr
	if head.ProtoMajor == 0 && head.ProtoMinor == 0 {
		head.ProtoMajor, head.ProtoMinor = 1, 1
	}

	return &Request{
		head:  head,
		body:  body,
		ctx:   context.Background(),
		props: map[string]any{},
	}
}

func (r *Request) Method() string { return r.head.Method }
func (r *Request) URI() string    { return r.head.URI }

// Proto returns the protocol version in its wire form, e.g. "HTTP/1.1".
func (r *Request) Proto() string {
	return fmt.Sprintf("HTTP/%d.%d", r.head.ProtoMajor, r.head.ProtoMinor)
}

// Header returns all values for name joined by ", ", or "" if there are none.
func (r *Request) Header(name string) string {
	return strings.Join(r.head.Header.Values(name), ", ")
}

// HeaderValues returns the values for name in the order they were received.
func (r *Request) HeaderValues(name string) []string {
	return r.head.Header.Values(name)
}

// HeaderNames returns the canonical names of all headers present on the request.
func (r *Request) HeaderNames() []string {
	return lo.Keys(r.head.Header)
}

// Body returns the accumulated body. It is nil when no body was received.
func (r *Request) Body() []byte { return r.body }

// HasBody reports whether any body bytes were received.
func (r *Request) HasBody() bool { return r.body != nil }

// BodyJSON queries the body as JSON using gjson path syntax. A missing body or path yields a result for which
// Exists() is false.
func (r *Request) BodyJSON(path string) gjson.Result {
	if r.body == nil {
		return gjson.Result{}
	}

	return gjson.GetBytes(r.body, path)
}

// Context returns the request's context. It is never nil.
func (r *Request) Context() context.Context { return r.ctx }

// SetContext replaces the request's context, e.g. to carry a trace span further down the pipeline.
func (r *Request) SetContext(ctx context.Context) {
	if ctx == nil {
		panic("bexpress: nil context")
	}

	r.ctx = ctx
}

// Set stores a value in the request's property bag.
func (r *Request) Set(key string, v any) { r.props[key] = v }

// Get reads a value from the request's property bag.
func (r *Request) Get(key string) (any, bool) {
	v, ok := r.props[key]
	return v, ok
}

// Prop reads a typed value from the request's property bag. It reports false if the key is missing or holds a
// value of another type.
func Prop[T any](r *Request, key string) (T, bool) {
	v, ok := r.props[key].(T)
	return v, ok
}
