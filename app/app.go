package app

import (
	"context"

	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/asyncfs"
	"github.com/advdv/bexpress/reactor"
	"github.com/advdv/bexpress/render"
	"github.com/advdv/bexpress/workerpool"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// App wraps an fx.App for lifecycle management.
type App struct {
	app *fx.App
}

// AppConfig holds configuration for the app.
type AppConfig struct {
	ServerConfig
	FxOptions []fx.Option
}

// Option configures the App.
type Option func(*AppConfig)

// WithFx adds fx options for dependency injection.
func WithFx(fxOpts ...fx.Option) Option {
	return func(c *AppConfig) {
		c.FxOptions = append(c.FxOptions, fxOpts...)
	}
}

// WithHealthPath registers a health check route at path.
func WithHealthPath(path string) Option {
	return func(c *AppConfig) {
		c.HealthPath = path
	}
}

// NewRouter creates the application router, reporting through zap.
func NewRouter(logger *zap.Logger) *bexpress.Router {
	return bexpress.NewRouterWith(NewZapLogger(logger))
}

// NewFileReader creates the async file reader on top of the worker pool. Reads without a loop deliver on one of
// the group's loops.
func NewFileReader(pool *workerpool.Pool, loops *reactor.Group) *asyncfs.Reader {
	return asyncfs.NewReader(pool, asyncfs.WithFallbackLoop(loops.Next()))
}

// NewRenderer creates the template renderer reading from BEX_TEMPLATE_DIR.
func NewRenderer(env Environment, files *asyncfs.Reader) *render.Renderer {
	return render.New(files, render.WithDir(env.templateDir()))
}

// FxOptions returns the DI graph [NewApp] is built from.
func FxOptions[E Environment](routing any, opts ...Option) []fx.Option {
	var cfg AppConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	baseOpts := make([]fx.Option, 0, 18+len(cfg.FxOptions))
	baseOpts = append(baseOpts, []fx.Option{
		fx.NopLogger,
		fx.Provide(ParseEnv[E]()),
		fx.Provide(func(e E) Environment { return e }),
		fx.Provide(func(e E) (*zap.Logger, error) { return NewLogger(e) }),
		fx.Provide(NewRouter),
		fx.Provide(NewTracerProvider),
		fx.Provide(NewPropagator),
		fx.Provide(NewRegistry),
		fx.Provide(NewLoopGroup),
		fx.Provide(NewWorkerPool),
		fx.Provide(NewFileReader),
		fx.Provide(NewRenderer),
		fx.Provide(NewRuntime[E]),
		fx.Supply(cfg.ServerConfig),
		fx.Provide(NewServer),
		fx.Invoke(startServerHook),
		fx.Invoke(startMetricsHook),
		fx.Invoke(routing),
	}...)

	return append(baseOpts, cfg.FxOptions...)
}

// NewApp creates a batteries-included app with dependency injection.
//
// The routing function can request any types that are provided via fx options.
// At minimum, it should accept *bexpress.Router for routing.
//
// Example:
//
//	app.NewApp[Env](func(r *bexpress.Router, rt *app.Runtime[Env]) {
//	    r.GetFunc("/hello", hello)
//	    r.Get("/", rt.Renderer().Middleware("index", nil))
//	}).Run()
func NewApp[E Environment](routing any, opts ...Option) *App {
	return &App{
		app: fx.New(FxOptions[E](routing, opts...)...),
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() {
	a.app.Run()
}

// Start starts the application with the given context and stops it once ctx is done.
func (a *App) Start(ctx context.Context) error {
	if err := a.app.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.app.StopTimeout())
	defer cancel()

	return a.app.Stop(stopCtx)
}
