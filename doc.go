// Package bexpress provides an express style middleware pipeline on top of event loops.
//
// # Overview
//
// A request is dispatched through an ordered sequence of middleware. Each middleware gets the request, the response
// and a next function. It either produces the response, or calls next to hand the request to the following
// middleware. When every middleware called next, a fallback runs, by default [NotFound].
//
// A minimal example:
//
//	rt := bexpress.NewRouter()
//	rt.UseFunc(func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
//	    log.Printf("%s %s", req.Method(), req.URI())
//	    next()
//	})
//	rt.GetFunc("/hello", func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
//	    res.SendString("Hello, World!")
//	})
//
// # Event Loops
//
// Every request is owned by the [EventLoop] its connection was assigned to. Middleware, the response and next are
// only touched from that loop. Blocking work runs elsewhere and re-enters the loop through [EventLoop.Execute]:
//
//	rt.UseFunc(func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
//	    go func() {
//	        user := lookupUser(req.Header("Authorization"))
//	        res.EventLoop().Execute(func() {
//	            req.Set("user", user)
//	            next()
//	        })
//	    }()
//	})
//
// next may be called synchronously or later from such a task. Either way the pipeline advances on the loop and the
// stack does not grow with the number of middleware. Calling next a second time has no effect.
//
// # Responses
//
// A [Response] is write-once: the head frame goes out at most once, after that status and headers can no longer be
// changed and every mutator returns [ErrHeaderSent]. [Response.Send], [Response.JSON] and [Response.SendError] end
// the response, further writes are no-ops. Write failures are logged through the [Logger] and end the response.
//
// # Routing
//
// [Router.Get], [Router.Post] and [Router.Mount] match on a URI prefix only. A [Router] is itself a [Middleware] so
// routers can be nested, and [Chain] bundles middleware into one.
//
// # Transports
//
// Transports deliver fully assembled requests to a [Dispatcher] together with a [Sink] for the response frames. The
// http1 sub package serves HTTP/1.1 over tcp or unix sockets, [ToStd] adapts a dispatcher to net/http.
package bexpress
