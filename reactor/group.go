package reactor

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// Group is a fixed set of loops, each running on its own goroutine. Connections are spread over the loops round
// robin.
type Group struct {
	loops  []*Loop
	next   atomic.Uint64
	cancel context.CancelFunc
	eg     *errgroup.Group
}

// NewGroup creates a group of n loops, or one per CPU if n is not positive.
func NewGroup(n int, opts ...LoopOption) *Group {
	if n <= 0 {
		n = runtime.NumCPU()
	}

	g := &Group{loops: make([]*Loop, n)}
	for i := range g.loops {
		g.loops[i] = NewLoop(opts...)
	}

	return g
}

// Len returns the number of loops.
func (g *Group) Len() int { return len(g.loops) }

// Next picks the loop for the next connection.
func (g *Group) Next() *Loop {
	i := g.next.Add(1) - 1
	return g.loops[i%uint64(len(g.loops))]
}

// Start runs every loop on its own goroutine until [Group.Shutdown] is called or ctx is done.
func (g *Group) Start(ctx context.Context) {
	if g.eg != nil {
		panic("reactor: group already started")
	}

	ctx, g.cancel = context.WithCancel(ctx)
	g.eg = &errgroup.Group{}

	for _, l := range g.loops {
		g.eg.Go(func() error {
			if err := l.Run(ctx, nil); err != nil && !errors.Is(err, context.Canceled) {
				return errors.Wrap(err, "run loop")
			}

			return nil
		})
	}
}

// Shutdown stops all loops and waits for them to return, or for ctx to be done. Tasks still queued are dropped.
func (g *Group) Shutdown(ctx context.Context) error {
	if g.eg == nil {
		return nil
	}

	g.cancel()

	done := make(chan error, 1)
	go func() { done <- g.eg.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for loops")
	}
}
