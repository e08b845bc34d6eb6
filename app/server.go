package app

import (
	"context"

	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/middleware"
	"github.com/advdv/bexpress/reactor"
	"github.com/advdv/bexpress/transport/http1"
	"github.com/advdv/bexpress/workerpool"
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ServerConfig holds optional configuration for the server.
type ServerConfig struct {
	// HealthPath, when set, registers a GET route that answers 200 "ok" ahead of all application routes.
	HealthPath string
}

// ServerParams holds the dependencies for creating the server.
type ServerParams struct {
	fx.In

	Env        Environment
	Router     *bexpress.Router
	Loops      *reactor.Group
	Logger     *zap.Logger
	TracerProv trace.TracerProvider
	Propagator propagation.TextMapPropagator
	Registry   *prometheus.Registry

	// Pool must be started before the server accepts connections.
	Pool *workerpool.Pool
}

// NewServer creates the HTTP/1.1 server with the ambient middleware installed on the router.
func NewServer(params ServerParams, cfg ServerConfig) (*http1.Server, error) {
	metrics, err := middleware.NewMetrics(params.Registry)
	if err != nil {
		return nil, errors.Wrap(err, "metrics middleware")
	}

	params.Router.Use(middleware.RequestID(""))
	params.Router.Use(middleware.AccessLog(params.Logger.Named("access")))
	params.Router.Use(metrics.Middleware())
	params.Router.Use(middleware.Tracing(params.TracerProv, params.Env.serviceName(),
		middleware.WithPropagator(params.Propagator)))

	if cfg.HealthPath != "" {
		params.Router.GetFunc(cfg.HealthPath, func(_ *bexpress.Request, res *bexpress.Response, _ bexpress.Next) {
			res.SendString("ok")
		})
	}

	return http1.New(params.Router, params.Loops, params.Logger.Named("http1"),
		http1.WithMaxBodySize(params.Env.maxBodySize()),
		http1.WithResponseLogger(NewZapLogger(params.Logger)),
	), nil
}

// startServerHook registers lifecycle hooks for the server. Serving runs on its own context that is cancelled on
// stop, the start context only bounds startup.
func startServerHook(lc fx.Lifecycle, env Environment, server *http1.Server, logger *zap.Logger) {
	var cancel context.CancelFunc

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := http1.Listen(env.network(), env.address(), env.maxConns())
			if err != nil {
				return err
			}

			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())

			logger.Info("starting server",
				zap.String("network", env.network()),
				zap.String("addr", ln.Addr().String()))
			go func() {
				if err := server.Serve(ctx, ln); err != nil {
					logger.Error("server error", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping server")
			cancel()
			return server.Shutdown(ctx)
		},
	})
}

// NewLoopGroup creates the event loops and ties them to the lifecycle. A panicking task is logged and the loop
// keeps running.
func NewLoopGroup(lc fx.Lifecycle, env Environment, logger *zap.Logger) *reactor.Group {
	loops := reactor.NewGroup(env.eventLoops(), reactor.WithRecover(func(v any) {
		logger.Error("panic in event loop task", zap.Any("panic", v), zap.Stack("stack"))
	}))

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			loops.Start(context.Background())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return loops.Shutdown(ctx)
		},
	})

	return loops
}

// NewWorkerPool creates the file worker pool and ties it to the lifecycle.
func NewWorkerPool(lc fx.Lifecycle, env Environment) *workerpool.Pool {
	pool := workerpool.New(env.fileWorkers())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return pool.Start()
		},
		OnStop: func(ctx context.Context) error {
			return pool.Shutdown(ctx)
		},
	})

	return pool
}
