// Package http1 is a small HTTP/1.1 transport for bexpress. It accepts connections, parses one request per
// connection with the standard library's parser, and dispatches it on one of a group of event loops. Responses are
// written as frames straight to the connection, which is closed afterwards.
package http1

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/advdv/bexpress"
	"github.com/advdv/bexpress/reactor"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"
)

// DefaultMaxBodySize limits request bodies when no other limit is configured.
const DefaultMaxBodySize = 1024 * 1024

// maxDrainSize bounds how much of an oversized body is read and dropped before the rejection.
const maxDrainSize = 256 << 10

var errBodyTooLarge = errors.New("http1: request body too large")

// Server serves a [bexpress.Dispatcher] over HTTP/1.1.
type Server struct {
	dispatcher  bexpress.Dispatcher
	loops       *reactor.Group
	logs        *zap.Logger
	resLogs     bexpress.Logger
	maxBodySize int64

	mu    sync.Mutex
	conns map[*connSink]bool // value: still reading the request
	wg    sync.WaitGroup
}

// Option configures a [Server].
type Option func(*Server)

// WithMaxBodySize limits how many body bytes are accumulated per request. Larger requests get a 413. A
// non-positive n keeps [DefaultMaxBodySize].
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// WithResponseLogger sets the logger responses report write errors to.
func WithResponseLogger(l bexpress.Logger) Option {
	return func(s *Server) { s.resLogs = l }
}

// New creates a server that dispatches to d on the loops of the group.
func New(d bexpress.Dispatcher, loops *reactor.Group, logs *zap.Logger, opts ...Option) *Server {
	s := &Server{
		dispatcher:  d,
		loops:       loops,
		logs:        logs,
		resLogs:     bexpress.NewStdLogger(nil),
		maxBodySize: DefaultMaxBodySize,
		conns:       map[*connSink]bool{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Listen opens a listener on a tcp address or a unix socket path. A stale socket file is removed first. A positive
// maxConns limits the number of simultaneously accepted connections.
func Listen(network, address string, maxConns int) (net.Listener, error) {
	if network == "unix" {
		if err := os.Remove(address); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(err, "remove stale socket %s", address)
		}
	}

	ln, err := net.Listen(network, address)
	if err != nil {
		return nil, errors.Wrapf(err, "listen on %s %s", network, address)
	}

	if maxConns > 0 {
		ln = netutil.LimitListener(ln, maxConns)
	}

	return ln, nil
}

// Serve accepts connections on ln until ctx is done. Then ln is closed and connections still waiting for their
// request are interrupted. Requests already dispatched keep running, [Server.Shutdown] waits for them. Serve returns
// nil after a context triggered stop.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	stop := context.AfterFunc(ctx, func() {
		ln.Close()
		s.interruptReads()
	})
	defer stop()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}

			return errors.Wrap(err, "accept")
		}

		s.wg.Add(1)
		go s.serveConn(ctx, conn)
	}
}

// Shutdown waits for connections in flight. When ctx is done first the remaining connections are closed and the
// context error is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.closeAll()
		return errors.Wrap(ctx.Err(), "wait for connections")
	}
}

func (s *Server) track(ctx context.Context, sink *connSink) {
	s.mu.Lock()
	s.conns[sink] = true
	s.mu.Unlock()

	// accepted just before the stop, interruptReads may have missed it.
	if ctx.Err() != nil {
		sink.conn.SetReadDeadline(time.Now()) //nolint:errcheck
	}
}

func (s *Server) doneReading(sink *connSink) {
	s.mu.Lock()
	s.conns[sink] = false
	s.mu.Unlock()
}

func (s *Server) untrack(sink *connSink) {
	s.mu.Lock()
	delete(s.conns, sink)
	s.mu.Unlock()
}

// interruptReads unblocks every connection that has not delivered its request yet.
func (s *Server) interruptReads() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sink, reading := range s.conns {
		if reading {
			sink.conn.SetReadDeadline(time.Now()) //nolint:errcheck
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sink := range s.conns {
		sink.Close() //nolint:errcheck
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()

	sink := newConnSink(conn)
	s.track(ctx, sink)
	defer s.untrack(sink)

	// a stop must not cancel requests in flight, only losing the connection does.
	reqCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	req, err := s.readRequest(reqCtx, conn)
	s.doneReading(sink)

	switch {
	case errors.Is(err, errBodyTooLarge):
		s.reject(sink, http.StatusRequestEntityTooLarge)
		return
	case errors.Is(err, io.EOF):
		sink.Close() //nolint:errcheck
		return
	case err != nil && ctx.Err() != nil:
		s.logs.Debug("closing idle connection on stop", zap.Error(err))
		sink.Close() //nolint:errcheck
		return
	case err != nil:
		s.logs.Info("socket error, closing connection", zap.Error(err))
		sink.Close() //nolint:errcheck
		return
	}

	sink.method = req.Method()

	loop := s.loops.Next()
	res := bexpress.NewResponse(sink, loop, s.resLogs)
	loop.Execute(func() { s.dispatcher.Handle(req, res, bexpress.NotFound(res)) })

	<-sink.closed
}

func (s *Server) readRequest(ctx context.Context, conn net.Conn) (*bexpress.Request, error) {
	hr, err := http.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		return nil, errors.Wrap(err, "read request")
	}
	defer hr.Body.Close()

	var body []byte
	if hr.ContentLength != 0 {
		b, err := io.ReadAll(io.LimitReader(hr.Body, s.maxBodySize+1))
		if err != nil {
			return nil, errors.Wrap(err, "read body")
		}

		if int64(len(b)) > s.maxBodySize {
			// closing with unread input resets the connection before the client reads the 413.
			_, _ = io.CopyN(io.Discard, hr.Body, maxDrainSize)
			return nil, errBodyTooLarge
		}

		if len(b) > 0 {
			body = b
		}
	}

	// the parser moves Host out of the header map, middleware expects to find it there.
	if hr.Host != "" {
		hr.Header.Set("Host", hr.Host)
	}

	req := bexpress.NewRequest(bexpress.RequestHead{
		Method:     hr.Method,
		URI:        hr.RequestURI,
		ProtoMajor: hr.ProtoMajor,
		ProtoMinor: hr.ProtoMinor,
		Header:     hr.Header,
	}, body)
	req.SetContext(ctx)

	return req, nil
}

// reject answers without involving the dispatcher, for requests that never made it to one.
func (s *Server) reject(sink *connSink, status int) {
	defer sink.Close() //nolint:errcheck

	body := http.StatusText(status)
	hdr := http.Header{}
	hdr.Set("Content-Type", "text/plain; charset=utf-8")
	hdr.Set("Content-Length", strconv.Itoa(len(body)))

	if err := sink.WriteFrame(bexpress.Frame{Kind: bexpress.FrameHead, Status: status, Header: hdr}); err != nil {
		s.logs.Info("write rejection", zap.Error(err))
		return
	}

	if err := sink.WriteFrame(bexpress.Frame{Kind: bexpress.FrameBody, Body: []byte(body)}); err != nil {
		s.logs.Info("write rejection", zap.Error(err))
	}
}
