// Package asyncfs reads files on a worker pool so the event loops never block on disk, and hands the result back
// on the event loop that asked for it.
package asyncfs

import (
	"io"
	"os"

	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/workerpool"
	"github.com/cockroachdb/errors"
)

// DefaultMaxSize is the read limit used when a non-positive max size is given.
const DefaultMaxSize = 1024 * 1024

// ErrPoolInactive is reported to the callback when the worker pool was not running the read.
var ErrPoolInactive = errors.New("asyncfs: worker pool is not active")

// Callback receives the outcome of a read: either an error and a nil buffer, or a nil error and the bytes read.
type Callback func(err error, buf []byte)

// Submitter is the part of a worker pool the reader needs.
type Submitter interface {
	Submit(t workerpool.Task)
}

// Reader reads files through a worker pool.
type Reader struct {
	pool     Submitter
	fallback bexpress.EventLoop
}

// Option configures a [Reader].
type Option func(*Reader)

// WithFallbackLoop sets the loop results are delivered on when ReadFile is called without one.
func WithFallbackLoop(loop bexpress.EventLoop) Option {
	return func(r *Reader) { r.fallback = loop }
}

// NewReader creates a reader that submits its work to pool.
func NewReader(pool Submitter, opts ...Option) *Reader {
	r := &Reader{pool: pool}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ReadFile reads at most maxSize bytes of the file at path and calls cb on loop. Bytes past maxSize are not read and
// not reported. The file is closed on every path. cb never runs on a worker goroutine.
func (r *Reader) ReadFile(path string, loop bexpress.EventLoop, maxSize int, cb Callback) {
	if loop == nil {
		loop = r.fallback
	}

	if loop == nil {
		panic("asyncfs: no event loop to deliver the result on")
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	emit := func(err error, buf []byte) {
		loop.Execute(func() { cb(err, buf) })
	}

	r.pool.Submit(func(state workerpool.State) {
		if state != workerpool.Active {
			emit(errors.Wrapf(ErrPoolInactive, "read %s", path), nil)
			return
		}

		buf, err := readFile(path, maxSize)
		if err != nil {
			emit(err, nil)
			return
		}

		emit(nil, buf)
	})
}

func readFile(path string, maxSize int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	defer f.Close() //nolint:errcheck // read-only handle, the read result is what counts

	buf, err := io.ReadAll(io.LimitReader(f, int64(maxSize)))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	return buf, nil
}
