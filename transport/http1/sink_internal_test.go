package http1

import (
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"github.com/advdv/bexpress"
	"github.com/stretchr/testify/require"
)

// pipeSink returns a sink over one end of a pipe and a channel that yields everything read from the other end.
func pipeSink(t *testing.T, method string) (*connSink, <-chan string) {
	t.Helper()

	server, client := net.Pipe()
	out := make(chan string, 1)

	go func() {
		b, _ := io.ReadAll(client)
		out <- string(b)
	}()

	s := newConnSink(server)
	s.method = method

	return s, out
}

func TestSinkChunks(t *testing.T) {
	s, out := pipeSink(t, http.MethodGet)

	hdr := http.Header{"Content-Type": {"text/plain"}}
	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameHead, Status: http.StatusOK, Header: hdr}))
	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameBody, Body: []byte("Hello, ")}))
	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameBody}))
	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameBody, Body: []byte("World!")}))
	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameEnd}))
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	got := <-out
	require.True(t, strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n"), got)
	require.Contains(t, got, "Transfer-Encoding: chunked\r\n")
	require.True(t, strings.HasSuffix(got, "\r\n\r\n7\r\nHello, \r\n6\r\nWorld!\r\n0\r\n\r\n"), got)

	select {
	case <-s.closed:
	default:
		t.Fatal("closed channel not closed")
	}
}

func TestSinkNoContent(t *testing.T) {
	s, out := pipeSink(t, http.MethodGet)

	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameHead, Status: http.StatusNoContent}))
	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameBody, Body: []byte("dropped")}))
	require.NoError(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameEnd}))
	require.NoError(t, s.Close())

	got := <-out
	require.True(t, strings.HasPrefix(got, "HTTP/1.1 204 No Content\r\n"), got)
	require.NotContains(t, got, "Transfer-Encoding")
	require.NotContains(t, got, "dropped")
	require.True(t, strings.HasSuffix(got, "\r\n\r\n"), got)
}

func TestSinkBodyBeforeHead(t *testing.T) {
	s, out := pipeSink(t, http.MethodGet)

	require.Error(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameBody, Body: []byte("x")}))
	require.Error(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameKind(42)}))
	require.NoError(t, s.Close())
	require.Empty(t, <-out)
}

func TestSinkWriteAfterPeerClosed(t *testing.T) {
	server, client := net.Pipe()
	require.NoError(t, client.Close())

	s := newConnSink(server)
	require.Error(t, s.WriteFrame(bexpress.Frame{Kind: bexpress.FrameHead, Status: http.StatusOK}))
}
