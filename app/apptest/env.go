package apptest

import (
	"strconv"
	"testing"
)

// Env provides a chainable builder for setting [app.BaseEnvironment] env vars
// via t.Setenv. Create one with [SetBaseEnv].
type Env struct {
	t testing.TB
}

// SetBaseEnv sets all [app.BaseEnvironment] env vars to sensible test defaults.
// The address is required because each test must listen on a unique port.
//
// Defaults:
//   - BEX_SERVICE_NAME: "test"
//   - BEX_NETWORK: "tcp"
//   - BEX_EVENT_LOOPS: "2"
//   - BEX_FILE_WORKERS: "2"
//   - BEX_LOG_LEVEL: "error"
//   - BEX_OTEL_EXPORTER: "none"
//
// Use the returned [Env] to override individual values:
//
//	apptest.SetBaseEnv(t, "127.0.0.1:18085").TemplateDir("testdata").MaxBodySize(16)
func SetBaseEnv(t testing.TB, addr string) *Env {
	t.Helper()
	t.Setenv("BEX_SERVICE_NAME", "test")
	t.Setenv("BEX_NETWORK", "tcp")
	t.Setenv("BEX_ADDR", addr)
	t.Setenv("BEX_EVENT_LOOPS", "2")
	t.Setenv("BEX_FILE_WORKERS", "2")
	t.Setenv("BEX_LOG_LEVEL", "error")
	t.Setenv("BEX_OTEL_EXPORTER", "none")
	t.Setenv("BEX_METRICS_ADDR", "")
	return &Env{t: t}
}

// ServiceName overrides BEX_SERVICE_NAME.
func (e *Env) ServiceName(name string) *Env {
	e.t.Helper()
	e.t.Setenv("BEX_SERVICE_NAME", name)
	return e
}

// UnixSocket switches the listener to the unix socket at path.
func (e *Env) UnixSocket(path string) *Env {
	e.t.Helper()
	e.t.Setenv("BEX_NETWORK", "unix")
	e.t.Setenv("BEX_UNIX_SOCKET", path)
	return e
}

// TemplateDir overrides BEX_TEMPLATE_DIR.
func (e *Env) TemplateDir(dir string) *Env {
	e.t.Helper()
	e.t.Setenv("BEX_TEMPLATE_DIR", dir)
	return e
}

// MaxBodySize overrides BEX_MAX_BODY_SIZE.
func (e *Env) MaxBodySize(n int64) *Env {
	e.t.Helper()
	e.t.Setenv("BEX_MAX_BODY_SIZE", strconv.FormatInt(n, 10))
	return e
}

// MetricsAddr overrides BEX_METRICS_ADDR.
func (e *Env) MetricsAddr(addr string) *Env {
	e.t.Helper()
	e.t.Setenv("BEX_METRICS_ADDR", addr)
	return e
}
