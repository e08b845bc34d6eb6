package app

import (
	"github.com/caarlos0/env/v11"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap/zapcore"
)

// Environment defines the interface that all environment configurations must implement.
// Embed BaseEnvironment in your struct to satisfy this interface.
type Environment interface {
	serviceName() string
	network() string
	address() string
	maxConns() int
	eventLoops() int
	fileWorkers() int
	maxBodySize() int64
	templateDir() string
	logLevel() zapcore.Level
	otelExporter() string
	metricsAddr() string
}

// BaseEnvironment contains the environment variables every application reads.
// Embed this in your custom environment struct.
type BaseEnvironment struct {
	ServiceName string `env:"BEX_SERVICE_NAME,required,notEmpty"`
	Network     string `env:"BEX_NETWORK" envDefault:"tcp"`
	Addr        string `env:"BEX_ADDR" envDefault:"localhost:1337"`
	UnixSocket  string `env:"BEX_UNIX_SOCKET" envDefault:"express.socket"`
	// MaxConns caps concurrently accepted connections, zero means unlimited.
	MaxConns int `env:"BEX_MAX_CONNS" envDefault:"0"`
	// EventLoops is the number of reactor loops, zero means one per CPU.
	EventLoops  int `env:"BEX_EVENT_LOOPS" envDefault:"0"`
	FileWorkers int `env:"BEX_FILE_WORKERS" envDefault:"4"`
	// MaxBodySize limits request bodies, a non-positive value keeps the transport default.
	MaxBodySize  int64         `env:"BEX_MAX_BODY_SIZE" envDefault:"1048576"`
	TemplateDir  string        `env:"BEX_TEMPLATE_DIR" envDefault:"templates"`
	LogLevel     zapcore.Level `env:"BEX_LOG_LEVEL" envDefault:"info"`
	OtelExporter string        `env:"BEX_OTEL_EXPORTER" envDefault:"none"`
	MetricsAddr  string        `env:"BEX_METRICS_ADDR"`
}

func (e BaseEnvironment) serviceName() string {
	return e.ServiceName
}

func (e BaseEnvironment) network() string {
	return e.Network
}

func (e BaseEnvironment) address() string {
	if e.Network == "unix" {
		return e.UnixSocket
	}

	return e.Addr
}

func (e BaseEnvironment) maxConns() int {
	return e.MaxConns
}

func (e BaseEnvironment) eventLoops() int {
	return e.EventLoops
}

func (e BaseEnvironment) fileWorkers() int {
	return e.FileWorkers
}

func (e BaseEnvironment) maxBodySize() int64 {
	return e.MaxBodySize
}

func (e BaseEnvironment) templateDir() string {
	return e.TemplateDir
}

func (e BaseEnvironment) logLevel() zapcore.Level {
	return e.LogLevel
}

func (e BaseEnvironment) otelExporter() string {
	return e.OtelExporter
}

func (e BaseEnvironment) metricsAddr() string {
	return e.MetricsAddr
}

var _ Environment = BaseEnvironment{}

// ParseEnv parses environment variables into the given Environment type.
func ParseEnv[E Environment]() func() (E, error) {
	return func() (e E, err error) {
		if err := env.Parse(&e); err != nil {
			return e, errors.Wrap(err, "failed to parse environment")
		}

		switch e.network() {
		case "tcp", "unix":
		default:
			return e, errors.Newf("unsupported BEX_NETWORK: %q (supported: tcp, unix)", e.network())
		}

		return e, nil
	}
}
