// Command bexpress runs a small demo application.
package main

import (
	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/app"
	"github.com/advdv/bexpress/asyncfs"
	"github.com/advdv/bexpress/middleware"
	"github.com/advdv/bexpress/render"
	"github.com/samber/lo"
	"go.uber.org/fx"
)

// Env is the demo environment.
type Env struct {
	app.BaseEnvironment
	Greeting string `env:"GREETING" envDefault:"Hello, World!"`
}

type todo struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

var todos = []todo{
	{ID: 42, Title: "Buy beer", Completed: false},
	{ID: 1337, Title: "Buy more beer", Completed: false},
	{ID: 88, Title: "Drink beer", Completed: true},
}

func main() {
	app.NewApp[Env](routes, options()...).Run()
}

func options() []app.Option {
	return []app.Option{
		app.WithHealthPath("/healthz"),
		app.WithFx(fx.Decorate(newRenderer)),
	}
}

// newRenderer looks templates up next to this file, so the demo works from any working directory.
func newRenderer(files *asyncfs.Reader) *render.Renderer {
	return render.New(files, render.WithCallerDir())
}

func routes(r *bexpress.Router, rt *app.Runtime[Env]) {
	r.UseFunc(func(req *bexpress.Request, _ *bexpress.Response, next bexpress.Next) {
		middleware.Log(req).Debug("handling request")
		next()
	})

	r.GetFunc("/hello", func(_ *bexpress.Request, res *bexpress.Response, _ bexpress.Next) {
		res.SendString(rt.Env().Greeting)
	})

	r.GetFunc("/json", func(_ *bexpress.Request, res *bexpress.Response, _ bexpress.Next) {
		res.JSON(todos)
	})

	r.Get("/", rt.Renderer().Middleware("index", func(req *bexpress.Request) any {
		return map[string]any{
			"title":      "bexpress",
			"greeting":   rt.Env().Greeting,
			"request_id": middleware.RequestIDOf(req),
			"todos": lo.Map(todos, func(t todo, _ int) map[string]any {
				return map[string]any{"title": t.Title, "completed": t.Completed}
			}),
		}
	}))
}
