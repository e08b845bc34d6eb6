package bexpress

// cursor walks one request through a snapshot of the middleware sequence. Each middleware gets a continuation bound
// to its position: calling it when the cursor already moved on (a second call, or a call from an older position) does
// nothing. Once the fallback fired the cursor is done and every continuation is inert.
//
// Stepping is a trampoline. A continuation called while a middleware is still running only records that the
// pipeline may advance; the loop in run picks that up once the middleware returned. A continuation called later,
// e.g. from a task the event loop runs after async work, starts a new run. Stack depth therefore does not grow with
// the number of middleware.
type cursor struct {
	stack    []Middleware
	pos      int
	req      *Request
	res      *Response
	fallback Next

	running bool
	pending bool
	done    bool
}

func newCursor(stack []Middleware, req *Request, res *Response, fallback Next) *cursor {
	return &cursor{stack: stack, req: req, res: res, fallback: fallback}
}

// continuation returns the next function for the middleware that runs with the cursor at pos.
func (c *cursor) continuation(pos int) Next {
	return func() { c.advance(pos) }
}

func (c *cursor) advance(at int) {
	if c.done || at != c.pos {
		return
	}

	if c.running {
		c.pending = true
		return
	}

	c.run()
}

func (c *cursor) run() {
	c.running = true
	defer func() { c.running = false }()

	for c.pending = true; c.pending && !c.done; {
		c.pending = false
		c.step()
	}
}

func (c *cursor) step() {
	if c.pos < len(c.stack) {
		mw := c.stack[c.pos]
		c.pos++
		mw.ServeNext(c.req, c.res, c.continuation(c.pos))

		return
	}

	c.done = true
	fallback := c.fallback
	c.fallback = nil

	if fallback != nil {
		fallback()
	}
}
