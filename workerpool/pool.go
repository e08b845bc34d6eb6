// Package workerpool runs blocking work on a fixed number of goroutines, away from the event loops.
package workerpool

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"golang.org/x/sync/errgroup"
)

// State tells a task whether the pool is still running it for real.
type State int

const (
	// Active means the task runs on a worker and may do its work.
	Active State = iota + 1
	// Cancelled means the pool is not running (not started or shut down) and the task must only clean up.
	Cancelled
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Task is a unit of blocking work. Every submitted task is called exactly once.
type Task func(state State)

type lifecycle int

const (
	idle lifecycle = iota
	started
	stopped
)

// Pool is a fixed-size worker pool.
type Pool struct {
	size  int
	mu    sync.Mutex
	cond  *sync.Cond
	queue []Task
	state lifecycle
	eg    errgroup.Group
}

// New creates a pool of size workers. Nothing runs until [Pool.Start].
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}

	p := &Pool{size: size}
	p.cond = sync.NewCond(&p.mu)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Start launches the workers. Starting twice, or after a shutdown, is an error.
func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != idle {
		return errors.New("workerpool: pool can only be started once")
	}

	p.state = started
	for range p.size {
		p.eg.Go(func() error {
			p.work()
			return nil
		})
	}

	return nil
}

// Submit queues t. If the pool is not running, t is called right away with [Cancelled] on the calling goroutine.
func (p *Pool) Submit(t Task) {
	p.mu.Lock()
	if p.state != started {
		p.mu.Unlock()
		t(Cancelled)

		return
	}

	p.queue = append(p.queue, t)
	p.mu.Unlock()
	p.cond.Signal()
}

// Shutdown stops accepting work, lets running tasks finish and calls every queued task with [Cancelled]. It returns
// early with an error when ctx is done first.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if p.state != started {
		p.state = stopped
		p.mu.Unlock()

		return nil
	}

	p.state = stopped
	queued := p.queue
	p.queue = nil
	p.mu.Unlock()
	p.cond.Broadcast()

	for _, t := range queued {
		t(Cancelled)
	}

	done := make(chan struct{})
	go func() {
		_ = p.eg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "wait for workers")
	}
}

func (p *Pool) work() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && p.state == started {
			p.cond.Wait()
		}

		if p.state != started {
			p.mu.Unlock()
			return
		}

		t := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		t(Active)
	}
}
