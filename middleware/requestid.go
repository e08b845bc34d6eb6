package middleware

import (
	"github.com/advdv/bexpress"
	"github.com/google/uuid"
)

// DefaultRequestIDHeader is used when RequestID is given no header name.
const DefaultRequestIDHeader = "X-Request-Id"

const requestIDKey = "bexpress.middleware.request_id"

// RequestID middleware:
// - propagates an existing request ID header if present
// - otherwise generates a new one
// - stores it in the property bag
// - echoes it back on the response
func RequestID(headerName string) bexpress.Middleware {
	if headerName == "" {
		headerName = DefaultRequestIDHeader
	}

	return bexpress.MiddlewareFunc(func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
		id := req.Header(headerName)
		if id == "" {
			id = uuid.NewString()
		}

		req.Set(requestIDKey, id)

		// an invalid incoming id is not worth failing the request over
		_ = res.SetHeader(headerName, id)

		next()
	})
}

// RequestIDOf returns the id set by [RequestID], or "" if none.
func RequestIDOf(req *bexpress.Request) string {
	id, _ := bexpress.Prop[string](req, requestIDKey)
	return id
}
