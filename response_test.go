package bexpress_test

import (
	"net/http"
	"testing"

	"github.com/advdv/bexpress"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResponse(t *testing.T, opts ...bexpress.ResponseOption) (*bexpress.Response, *recordSink, *bexpress.TestLogger) {
	t.Helper()

	sink, logs := newRecordSink(), bexpress.NewTestLogger(t)
	return bexpress.NewResponse(sink, nil, logs, opts...), sink, logs
}

func TestResponseSend(t *testing.T) {
	res, sink, logs := newTestResponse(t)
	require.Equal(t, http.StatusOK, res.Status())
	require.False(t, res.HeaderSent())

	require.NoError(t, res.SetHeader("X-Foo", "bar"))
	res.SendString("Hello, World!")

	require.True(t, res.HeaderSent())
	require.True(t, res.Ended())
	require.Equal(t, []bexpress.FrameKind{bexpress.FrameHead, bexpress.FrameBody, bexpress.FrameEnd}, sink.kinds())
	require.Equal(t, http.StatusOK, sink.head().Status)
	require.Equal(t, "bar", sink.head().Header.Get("X-Foo"))
	require.Equal(t, "Hello, World!", sink.body())
	require.Equal(t, 1, sink.closed)
	require.Equal(t, int64(0), logs.NumLogResponseError)
}

func TestResponseWritesAfterEndAreNoops(t *testing.T) {
	res, sink, _ := newTestResponse(t)

	res.SendString("first")
	res.SendString("second")
	res.JSON(map[string]int{"a": 1})
	res.SendError(errors.New("late"))
	res.End()

	require.Equal(t, []bexpress.FrameKind{bexpress.FrameHead, bexpress.FrameBody, bexpress.FrameEnd}, sink.kinds())
	require.Equal(t, "first", sink.body())
	require.Equal(t, 1, sink.closed)
}

func TestResponseEndWithoutBody(t *testing.T) {
	res, sink, _ := newTestResponse(t)
	require.NoError(t, res.SetStatus(http.StatusNoContent))

	res.FlushHeader()
	res.FlushHeader()
	res.End()

	require.Equal(t, []bexpress.FrameKind{bexpress.FrameHead, bexpress.FrameEnd}, sink.kinds())
	require.Equal(t, http.StatusNoContent, sink.head().Status)
}

func TestResponseJSON(t *testing.T) {
	res, sink, _ := newTestResponse(t)

	res.JSON([]map[string]any{{"id": 42, "title": "Buy beer"}})

	body := `[{"id":42,"title":"Buy beer"}]`
	require.Equal(t, body, sink.body())
	require.Equal(t, "application/json", sink.head().Header.Get("Content-Type"))
	require.Equal(t, "30", sink.head().Header.Get("Content-Length"))
	require.Len(t, body, 30)
	require.True(t, res.Ended())
}

func TestResponseJSONEncodeFailure(t *testing.T) {
	res, sink, logs := newTestResponse(t, bexpress.WithEncoder(func(any) ([]byte, error) {
		return nil, errors.New("cannot encode")
	}))

	res.JSON(struct{}{})

	require.False(t, res.HeaderSent())
	require.True(t, res.Ended())
	require.Equal(t, []bexpress.FrameKind{bexpress.FrameEnd}, sink.kinds())
	require.Equal(t, 1, sink.closed)
	require.Equal(t, int64(1), logs.NumLogResponseError)
}

func TestResponseSendError(t *testing.T) {
	for _, tt := range []struct {
		name       string
		err        error
		expStatus  int
		expBody    string
		preContent string
	}{
		{
			name:      "coded",
			err:       bexpress.NewError(bexpress.CodeBadRequest, errors.New("missing id")),
			expStatus: http.StatusBadRequest,
			expBody:   "Error: Bad Request: missing id",
		},
		{
			name:      "wrapped coded",
			err:       errors.Wrap(bexpress.NewError(bexpress.CodeNotFound, errors.New("no such file")), "render"),
			expStatus: http.StatusNotFound,
			expBody:   "Error: render: Not Found: no such file",
		},
		{
			name:       "plain",
			err:        errors.New("boom"),
			expStatus:  http.StatusInternalServerError,
			expBody:    "Error: boom",
			preContent: "application/json",
		},
	} {
		t.Run(tt.name, func(t *testing.T) {
			res, sink, _ := newTestResponse(t)
			if tt.preContent != "" {
				require.NoError(t, res.SetHeader("Content-Type", tt.preContent))
				require.NoError(t, res.SetHeader("Content-Length", "1000"))
			}

			res.SendError(tt.err)

			assert.Equal(t, tt.expStatus, sink.head().Status)
			assert.Equal(t, "text/plain; charset=utf-8", sink.head().Header.Get("Content-Type"))
			assert.Empty(t, sink.head().Header.Get("Content-Length"))
			assert.Equal(t, tt.expBody, sink.body())
		})
	}
}

func TestResponseSendErrorAfterFlushKeepsStatus(t *testing.T) {
	res, sink, _ := newTestResponse(t)
	require.NoError(t, res.SetStatus(http.StatusAccepted))
	res.FlushHeader()

	res.SendError(errors.New("late failure"))

	require.Equal(t, http.StatusAccepted, sink.head().Status)
	require.Equal(t, "Error: late failure", sink.body())
	require.True(t, res.Ended())
}

func TestResponseHeaderMutationAfterFlush(t *testing.T) {
	res, sink, _ := newTestResponse(t)
	require.NoError(t, res.SetHeader("X-Before", "1"))
	res.FlushHeader()

	require.ErrorIs(t, res.SetStatus(http.StatusTeapot), bexpress.ErrHeaderSent)
	require.ErrorIs(t, res.SetHeader("X-After", "1"), bexpress.ErrHeaderSent)
	require.ErrorIs(t, res.AddHeader("X-After", "1"), bexpress.ErrHeaderSent)
	require.ErrorIs(t, res.DelHeader("X-Before"), bexpress.ErrHeaderSent)

	require.Equal(t, http.StatusOK, res.Status())
	require.Equal(t, "1", res.Header("X-Before"))
	require.Empty(t, res.Header("X-After"))
	require.Equal(t, "1", sink.head().Header.Get("X-Before"))
	require.Empty(t, sink.head().Header.Get("X-After"))
}

func TestResponseHeaders(t *testing.T) {
	res, _, _ := newTestResponse(t)

	require.NoError(t, res.AddHeader("Vary", "Accept"))
	require.NoError(t, res.AddHeader("vary", "Origin"))
	require.Equal(t, "Accept, Origin", res.Header("VARY"))

	require.NoError(t, res.SetHeader("Vary", "Cookie"))
	require.Equal(t, "Cookie", res.Header("Vary"))

	require.NoError(t, res.DelHeader("Vary"))
	require.Empty(t, res.Header("Vary"))

	require.ErrorIs(t, res.SetHeader("Bad Name", "x"), bexpress.ErrInvalidHeader)
	require.ErrorIs(t, res.SetHeader("X-Ok", "line\r\nbreak"), bexpress.ErrInvalidHeader)
}

func TestResponseHeadFrameIsSnapshot(t *testing.T) {
	res, sink, _ := newTestResponse(t)
	require.NoError(t, res.SetHeader("X-Foo", "1"))
	res.FlushHeader()

	sink.frames[0].Header.Set("X-Foo", "changed")
	require.Equal(t, "1", res.Header("X-Foo"))
}

func TestResponseWriteFailures(t *testing.T) {
	t.Run("head", func(t *testing.T) {
		res, sink, logs := newTestResponse(t)
		sink.failOn = bexpress.FrameHead

		res.SendString("never")

		require.True(t, res.Ended())
		require.Equal(t, []bexpress.FrameKind{bexpress.FrameEnd}, sink.kinds())
		require.Equal(t, 1, sink.closed)
		require.Equal(t, int64(1), logs.NumLogResponseError)
	})

	t.Run("body", func(t *testing.T) {
		res, sink, logs := newTestResponse(t)
		sink.failOn = bexpress.FrameBody

		res.SendString("never")

		require.True(t, res.Ended())
		require.Equal(t, []bexpress.FrameKind{bexpress.FrameHead, bexpress.FrameEnd}, sink.kinds())
		require.Equal(t, int64(1), logs.NumLogResponseError)
	})

	t.Run("end", func(t *testing.T) {
		res, sink, logs := newTestResponse(t)
		sink.failOn = bexpress.FrameEnd

		res.SendString("body")

		require.True(t, res.Ended())
		require.Equal(t, []bexpress.FrameKind{bexpress.FrameHead, bexpress.FrameBody}, sink.kinds())
		require.Equal(t, 1, sink.closed)
		require.Equal(t, int64(1), logs.NumLogResponseError)
	})
}

func TestResponseOnEnd(t *testing.T) {
	res, sink, _ := newTestResponse(t)

	var order []string
	res.OnEnd(func() { order = append(order, "a:"+sink.kinds()[len(sink.kinds())-1].String()) })
	res.OnEnd(func() { order = append(order, "b") })

	res.SendString("x")
	res.End()

	require.Equal(t, []string{"a:end", "b"}, order)
}
