package bexpress

import (
	"log"
	"net/http"
	"slices"
	"strings"
)

// Router owns an ordered sequence of middleware. Registration order is routing precedence: the first middleware that
// responds without calling next wins. A Router is itself a [Middleware], so routers can be nested.
type Router struct {
	logs       Logger
	middleware []Middleware
}

// NewRouter creates a router that logs to the standard logger.
func NewRouter() *Router {
	return NewRouterWith(NewStdLogger(log.Default()))
}

// NewRouterWith creates a router with a custom logger.
func NewRouterWith(logs Logger) *Router {
	return &Router{logs: logs}
}

// Use appends middleware to the sequence.
func (rt *Router) Use(mw ...Middleware) {
	rt.middleware = append(rt.middleware, mw...)
}

// UseFunc appends middleware functions to the sequence.
func (rt *Router) UseFunc(fns ...MiddlewareFunc) {
	for _, fn := range fns {
		rt.Use(fn)
	}
}

// Method registers mw for requests with the given method whose URI starts with prefix. Other requests pass on to
// the next middleware untouched.
func (rt *Router) Method(method, prefix string, mw Middleware) {
	rt.Use(MiddlewareFunc(func(req *Request, res *Response, next Next) {
		if req.Method() != method || !strings.HasPrefix(req.URI(), prefix) {
			next()
			return
		}

		mw.ServeNext(req, res, next)
	}))
}

// Get registers mw for GET requests whose URI starts with prefix. Matching is by prefix only, there is no parameter
// capture: "/api" matches "/api", "/api/users" and "/apiary".
func (rt *Router) Get(prefix string, mw Middleware) { rt.Method(http.MethodGet, prefix, mw) }

// GetFunc is [Router.Get] for a function.
func (rt *Router) GetFunc(prefix string, fn MiddlewareFunc) { rt.Get(prefix, fn) }

// Post registers mw for POST requests whose URI starts with prefix.
func (rt *Router) Post(prefix string, mw Middleware) { rt.Method(http.MethodPost, prefix, mw) }

// PostFunc is [Router.Post] for a function.
func (rt *Router) PostFunc(prefix string, fn MiddlewareFunc) { rt.Post(prefix, fn) }

// Mount registers mw for requests of any method whose URI starts with prefix. Mounting a [*Router] makes the outer
// pipeline continue when the inner one is exhausted.
func (rt *Router) Mount(prefix string, mw Middleware) {
	rt.Use(MiddlewareFunc(func(req *Request, res *Response, next Next) {
		if !strings.HasPrefix(req.URI(), prefix) {
			next()
			return
		}

		mw.ServeNext(req, res, next)
	}))
}

// Handle dispatches a request through a snapshot of the current middleware sequence. Middleware registered while a
// request is in flight does not affect it. If every middleware calls next, fallback runs exactly once.
func (rt *Router) Handle(req *Request, res *Response, fallback Next) {
	rt.dispatch(req, res, func() {
		rt.logs.LogPipelineExhausted(req.Method(), req.URI())
		if fallback != nil {
			fallback()
		}
	})
}

// ServeNext implements [Middleware]: the router's own sequence runs first and next becomes its fallback.
func (rt *Router) ServeNext(req *Request, res *Response, next Next) {
	rt.dispatch(req, res, next)
}

func (rt *Router) dispatch(req *Request, res *Response, fallback Next) {
	newCursor(slices.Clone(rt.middleware), req, res, fallback).advance(0)
}

// Chain bundles middleware into a single [Middleware] that runs them in order and continues the outer pipeline once
// all of them called next.
func Chain(mw ...Middleware) Middleware {
	return &Router{middleware: slices.Clone(mw)}
}
