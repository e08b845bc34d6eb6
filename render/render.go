// Package render serves mustache templates read through the async file bridge.
package render

import (
	"path/filepath"
	"runtime"

	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/asyncfs"
	"github.com/cbroglie/mustache"
	"github.com/cockroachdb/errors"
)

// Extension is appended to template names.
const Extension = ".mustache"

// Engine parses template source and renders it with data.
type Engine interface {
	Render(src []byte, data any) (string, error)
}

// Mustache is the default [Engine].
type Mustache struct{}

// Render implements [Engine].
func (Mustache) Render(src []byte, data any) (string, error) {
	tmpl, err := mustache.ParseString(string(src))
	if err != nil {
		return "", errors.Wrap(err, "parse template")
	}

	var out string
	if data == nil {
		out, err = tmpl.Render()
	} else {
		out, err = tmpl.Render(data)
	}

	if err != nil {
		return "", errors.Wrap(err, "render template")
	}

	return out, nil
}

// FileReader is the part of the async file bridge the renderer uses.
type FileReader interface {
	ReadFile(path string, loop bexpress.EventLoop, maxSize int, cb asyncfs.Callback)
}

// Renderer resolves template names in a directory and renders them into responses.
type Renderer struct {
	files   FileReader
	engine  Engine
	dir     string
	maxSize int
}

// Option configures a [Renderer].
type Option func(*Renderer)

// WithDir sets the directory templates are looked up in.
func WithDir(dir string) Option {
	return func(r *Renderer) { r.dir = dir }
}

// WithCallerDir looks templates up in the "templates" directory next to the source file that calls WithCallerDir.
func WithCallerDir() Option {
	_, file, _, ok := runtime.Caller(1)

	return func(r *Renderer) {
		if ok {
			r.dir = filepath.Join(filepath.Dir(file), "templates")
		}
	}
}

// WithEngine replaces the mustache engine.
func WithEngine(e Engine) Option {
	return func(r *Renderer) { r.engine = e }
}

// WithMaxSize limits how many bytes of a template are read.
func WithMaxSize(n int) Option {
	return func(r *Renderer) { r.maxSize = n }
}

// New creates a renderer that reads templates through files. Templates live in "templates" unless configured
// otherwise.
func New(files FileReader, opts ...Option) *Renderer {
	r := &Renderer{
		files:   files,
		engine:  Mustache{},
		dir:     "templates",
		maxSize: asyncfs.DefaultMaxSize,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Path returns the file a template name resolves to.
func (r *Renderer) Path(name string) string {
	return filepath.Join(r.dir, name+Extension)
}

// Render reads the named template, renders it with data and sends it as HTML. Failures turn into a 500 response with
// the error as body.
func (r *Renderer) Render(res *bexpress.Response, name string, data any) {
	r.files.ReadFile(r.Path(name), res.EventLoop(), r.maxSize, func(err error, src []byte) {
		if err != nil {
			res.SendError(bexpress.NewError(bexpress.CodeInternalServerError, err))
			return
		}

		out, err := r.engine.Render(src, data)
		if err != nil {
			res.SendError(bexpress.NewError(bexpress.CodeInternalServerError, err))
			return
		}

		if res.SetHeader("Content-Type", "text/html") != nil {
			res.End()
			return
		}

		res.SendString(out)
	})
}

// Middleware returns middleware that renders the named template with whatever data returns for the request.
func (r *Renderer) Middleware(name string, data func(req *bexpress.Request) any) bexpress.Middleware {
	return bexpress.MiddlewareFunc(func(req *bexpress.Request, res *bexpress.Response, _ bexpress.Next) {
		var d any
		if data != nil {
			d = data(req)
		}

		r.Render(res, name, d)
	})
}
