package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/middleware"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func tracedRouter(t *testing.T, opts ...middleware.TracingOption) (*bexpress.Router, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	rt := bexpress.NewRouterWith(bexpress.NewTestLogger(t))
	rt.Use(middleware.Tracing(tp, "test", opts...))

	return rt, sr
}

func statusAttr(span sdktrace.ReadOnlySpan) int64 {
	for _, kv := range span.Attributes() {
		if kv.Key == attribute.Key("http.response.status_code") {
			return kv.Value.AsInt64()
		}
	}

	return 0
}

func TestTracing(t *testing.T) {
	rt, sr := tracedRouter(t)

	var inner trace.SpanContext
	rt.GetFunc("/ok", func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
		inner = trace.SpanContextFromContext(req.Context())
		ok(req, res, next)
	})

	do(t, rt, httptest.NewRequest(http.MethodGet, "/ok", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "GET /ok", spans[0].Name())
	require.Equal(t, trace.SpanKindServer, spans[0].SpanKind())
	require.Equal(t, int64(http.StatusOK), statusAttr(spans[0]))
	require.Equal(t, codes.Unset, spans[0].Status().Code)
	require.Equal(t, spans[0].SpanContext().SpanID(), inner.SpanID())
}

func TestTracingServerError(t *testing.T) {
	rt, sr := tracedRouter(t)
	rt.GetFunc("/fail", fail)

	do(t, rt, httptest.NewRequest(http.MethodGet, "/fail", nil))

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	require.Equal(t, int64(http.StatusInternalServerError), statusAttr(spans[0]))
}

func TestTracingPropagation(t *testing.T) {
	rt, sr := tracedRouter(t, middleware.WithPropagator(propagation.TraceContext{}))
	rt.GetFunc("/ok", ok)

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("Traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	do(t, rt, req)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	require.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
}
