package middleware

import (
	"github.com/advdv/bexpress"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TracingOption configures [Tracing].
type TracingOption func(*tracingConfig)

type tracingConfig struct {
	prop propagation.TextMapPropagator
}

// WithPropagator extracts the parent span context from the request headers.
func WithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(c *tracingConfig) { c.prop = p }
}

// Tracing starts a server span per request and ends it when the response ends. The span's context replaces the
// request context so later middleware can start child spans. The provider is injected, no globals are used.
func Tracing(tp trace.TracerProvider, name string, opts ...TracingOption) bexpress.Middleware {
	var cfg tracingConfig
	for _, o := range opts {
		o(&cfg)
	}

	tracer := tp.Tracer(name)

	return bexpress.MiddlewareFunc(func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
		ctx := req.Context()
		if cfg.prop != nil {
			ctx = cfg.prop.Extract(ctx, requestCarrier{req})
		}

		ctx, span := tracer.Start(ctx, req.Method()+" "+req.URI(),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", req.Method()),
				attribute.String("url.path", req.URI()),
			),
		)

		req.SetContext(ctx)

		res.OnEnd(func() {
			status := res.Status()
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if status >= 500 {
				span.SetStatus(codes.Error, "server error")
			}

			span.End()
		})

		next()
	})
}

// requestCarrier is a read-only view of the request headers.
type requestCarrier struct{ req *bexpress.Request }

func (c requestCarrier) Get(key string) string { return c.req.Header(key) }
func (c requestCarrier) Set(string, string)    {}
func (c requestCarrier) Keys() []string        { return c.req.HeaderNames() }
