package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/advdv/bexpress"
)

// do runs one request through rt and returns the recorded response.
func do(t *testing.T, rt *bexpress.Router, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	bexpress.ToStd(rt, bexpress.NewTestLogger(t)).ServeHTTP(rec, req)

	return rec
}

func ok(_ *bexpress.Request, res *bexpress.Response, _ bexpress.Next) {
	res.SendString("ok")
}

func fail(_ *bexpress.Request, res *bexpress.Response, _ bexpress.Next) {
	_ = res.SetStatus(http.StatusInternalServerError)
	res.SendString("fail")
}
