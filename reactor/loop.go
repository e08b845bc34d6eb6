// Package reactor provides the event loops requests are owned by. A loop is a serial executor: tasks run one at a
// time, in submission order, on the goroutine that runs the loop. Request and response state is only touched from
// the loop that owns it, which is what makes it safe without locks.
package reactor

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loop runs submitted tasks one at a time.
type Loop struct {
	mu      sync.Mutex
	tasks   []func()
	wake    chan struct{}
	running atomic.Bool
	onPanic func(v any)
}

// LoopOption configures a [Loop].
type LoopOption func(*Loop)

// WithRecover makes the loop recover panicking tasks and report them to fn instead of crashing the goroutine that
// runs the loop.
func WithRecover(fn func(v any)) LoopOption {
	return func(l *Loop) { l.onPanic = fn }
}

// NewLoop creates a loop. It does nothing until [Loop.Run] is called.
func NewLoop(opts ...LoopOption) *Loop {
	l := &Loop{wake: make(chan struct{}, 1)}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Execute schedules task to run on the loop. It never blocks and may be called from any goroutine.
func (l *Loop) Execute(task func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of tasks waiting to run.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.tasks)
}

// Run executes tasks on the calling goroutine until until is closed or ctx is done. A nil until runs until ctx is
// done. Run returns ctx.Err() when the context ended it. A loop can only be run by one goroutine at a time.
func (l *Loop) Run(ctx context.Context, until <-chan struct{}) error {
	if !l.running.CompareAndSwap(false, true) {
		panic("reactor: loop is already running")
	}
	defer l.running.Store(false)

	for {
		l.drain()

		select {
		case <-until:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		batch := l.tasks
		l.tasks = nil
		l.mu.Unlock()

		if len(batch) == 0 {
			return
		}

		for _, task := range batch {
			l.run(task)
		}
	}
}

func (l *Loop) run(task func()) {
	if l.onPanic != nil {
		defer func() {
			if v := recover(); v != nil {
				l.onPanic(v)
			}
		}()
	}

	task()
}
