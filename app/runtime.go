package app

import (
	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/asyncfs"
	"github.com/advdv/bexpress/render"
)

// Runtime provides access to app-scoped dependencies.
// Inject this into handler constructors via fx instead of reaching for globals.
//
// Example:
//
//	type Handlers struct {
//	    rt *app.Runtime[Env]
//	}
//
//	func (h *Handlers) Index(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
//	    h.rt.Render(res, "index", map[string]any{"name": h.rt.Env().ServiceName})
//	}
type Runtime[E Environment] struct {
	env      E
	files    *asyncfs.Reader
	renderer *render.Renderer
}

// NewRuntime creates a new Runtime with the given dependencies.
func NewRuntime[E Environment](env E, files *asyncfs.Reader, renderer *render.Renderer) *Runtime[E] {
	return &Runtime[E]{
		env:      env,
		files:    files,
		renderer: renderer,
	}
}

// Env returns the environment configuration.
func (r *Runtime[E]) Env() E {
	return r.env
}

// Renderer returns the template renderer.
func (r *Runtime[E]) Renderer() *render.Renderer {
	return r.renderer
}

// Render renders the named template into res. See [render.Renderer.Render].
func (r *Runtime[E]) Render(res *bexpress.Response, name string, data any) {
	r.renderer.Render(res, name, data)
}

// ReadFile reads path on the worker pool and calls cb on the response's event loop.
func (r *Runtime[E]) ReadFile(res *bexpress.Response, path string, cb asyncfs.Callback) {
	r.files.ReadFile(path, res.EventLoop(), 0, cb)
}
