package http1

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/advdv/bexpress"
	"github.com/cockroachdb/errors"
)

// connSink writes response frames to a connection in HTTP/1.1 wire format. Bodies use chunked transfer coding
// unless the head carries a Content-Length. The connection is closed after every response.
type connSink struct {
	conn   net.Conn
	bw     *bufio.Writer
	method string

	headWritten bool
	chunked     bool
	bodyless    bool

	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

func newConnSink(conn net.Conn) *connSink {
	return &connSink{
		conn:   conn,
		bw:     bufio.NewWriter(conn),
		closed: make(chan struct{}),
	}
}

func (s *connSink) WriteFrame(f bexpress.Frame) error {
	switch f.Kind {
	case bexpress.FrameHead:
		return s.writeHead(f.Status, f.Header)
	case bexpress.FrameBody:
		return s.writeBody(f.Body)
	case bexpress.FrameEnd:
		return s.writeEnd()
	default:
		return errors.Newf("http1: unknown frame kind %d", f.Kind)
	}
}

// writeHead writes the status line and header block, e.g.:
//
//	HTTP/1.1 200 OK\r\n
//	Content-Type: text/plain\r\n
//	Transfer-Encoding: chunked\r\n
//	\r\n
func (s *connSink) writeHead(status int, hdr http.Header) error {
	if hdr == nil {
		hdr = http.Header{}
	}

	s.headWritten = true
	s.bodyless = status/100 == 1 || status == http.StatusNoContent || status == http.StatusNotModified ||
		s.method == http.MethodHead

	if !s.bodyless && hdr.Get("Content-Length") == "" {
		s.chunked = true
		hdr.Set("Transfer-Encoding", "chunked")
	}

	hdr.Set("Connection", "close")
	if hdr.Get("Date") == "" {
		hdr.Set("Date", time.Now().UTC().Format(http.TimeFormat))
	}

	if _, err := fmt.Fprintf(s.bw, "HTTP/1.1 %03d %s\r\n", status, http.StatusText(status)); err != nil {
		return errors.Wrap(err, "write status line")
	}

	if err := hdr.Write(s.bw); err != nil {
		return errors.Wrap(err, "write header")
	}

	if _, err := s.bw.WriteString("\r\n"); err != nil {
		return errors.Wrap(err, "write header end")
	}

	return errors.Wrap(s.bw.Flush(), "flush head")
}

func (s *connSink) writeBody(data []byte) error {
	// Don't send 0-length data. It looks like EOF for chunked encoding.
	if s.bodyless || len(data) == 0 {
		return nil
	}

	if !s.headWritten {
		return errors.New("http1: body frame before head frame")
	}

	if s.chunked {
		if _, err := fmt.Fprintf(s.bw, "%x\r\n", len(data)); err != nil {
			return errors.Wrap(err, "write chunk size")
		}
	}

	n, err := s.bw.Write(data)
	if err != nil {
		return errors.Wrap(err, "write body")
	}

	if n != len(data) {
		return io.ErrShortWrite
	}

	if s.chunked {
		if _, err := s.bw.WriteString("\r\n"); err != nil {
			return errors.Wrap(err, "write chunk end")
		}
	}

	return errors.Wrap(s.bw.Flush(), "flush body")
}

func (s *connSink) writeEnd() error {
	if s.chunked {
		if _, err := s.bw.WriteString("0\r\n\r\n"); err != nil {
			return errors.Wrap(err, "write last chunk")
		}
	}

	return errors.Wrap(s.bw.Flush(), "flush end")
}

// Close closes the connection. It is safe to call more than once, only the first call closes.
func (s *connSink) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.conn.Close()
		close(s.closed)
	})

	return s.closeErr
}
