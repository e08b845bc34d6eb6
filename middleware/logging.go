package middleware

import (
	"time"

	"github.com/advdv/bexpress"
	"go.uber.org/zap"
)

const logKey = "bexpress.middleware.log"

// AccessLog puts a request scoped logger in the property bag and writes one line per finished response.
func AccessLog(logs *zap.Logger) bexpress.Middleware {
	return bexpress.MiddlewareFunc(func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
		start := time.Now()

		rlogs := logs.With(zap.String("method", req.Method()), zap.String("uri", req.URI()))
		if id := RequestIDOf(req); id != "" {
			rlogs = rlogs.With(zap.String("request_id", id))
		}

		req.Set(logKey, rlogs)

		res.OnEnd(func() {
			rlogs.Info("request",
				zap.Int("status", res.Status()),
				zap.Duration("duration", time.Since(start)),
			)
		})

		next()
	})
}

// Log returns the request scoped logger set by [AccessLog], or a no-op logger.
func Log(req *bexpress.Request) *zap.Logger {
	if l, ok := bexpress.Prop[*zap.Logger](req, logKey); ok {
		return l
	}

	return zap.NewNop()
}
