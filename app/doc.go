// Package app wires a bexpress application: environment parsing, structured logging, tracing, metrics, the event
// loops, the file worker pool and the HTTP/1.1 server, all with graceful shutdown. A complete application is a
// single call:
//
//	app.NewApp[Env](func(r *bexpress.Router, rt *app.Runtime[Env]) {
//	    r.GetFunc("/hello", func(req *bexpress.Request, res *bexpress.Response, next bexpress.Next) {
//	        res.SendString("Hello, World!")
//	    })
//	}).Run()
//
// # Environment Configuration
//
// Define your environment by embedding [BaseEnvironment]:
//
//	type Env struct {
//	    app.BaseEnvironment
//	    Greeting string `env:"GREETING" envDefault:"hello"`
//	}
//
// BaseEnvironment provides the following environment variables:
//
//	| Variable          | Required | Default        | Description                                  |
//	|-------------------|----------|----------------|----------------------------------------------|
//	| BEX_SERVICE_NAME  | Yes      | -              | Service name for logging and tracing         |
//	| BEX_NETWORK       | No       | tcp            | Listener network: "tcp" or "unix"            |
//	| BEX_ADDR          | No       | localhost:1337 | TCP listen address                           |
//	| BEX_UNIX_SOCKET   | No       | express.socket | Unix socket path                             |
//	| BEX_MAX_CONNS     | No       | 0              | Max concurrent connections, 0 is unlimited   |
//	| BEX_EVENT_LOOPS   | No       | 0              | Number of event loops, 0 is one per CPU      |
//	| BEX_FILE_WORKERS  | No       | 4              | Size of the file worker pool                 |
//	| BEX_MAX_BODY_SIZE | No       | 1048576        | Body limit in bytes, <= 0 uses the default   |
//	| BEX_TEMPLATE_DIR  | No       | templates      | Directory holding *.mustache templates       |
//	| BEX_LOG_LEVEL     | No       | info           | Log level (debug, info, warn, error)         |
//	| BEX_OTEL_EXPORTER | No       | none           | Trace exporter: "none" or "stdout"           |
//	| BEX_METRICS_ADDR  | No       | -              | Address for the prometheus /metrics endpoint |
//
// # Lifecycle
//
// On start the event loops run first, then the worker pool, then the server starts accepting. Stop runs in
// reverse: the server stops accepting and waits for open connections, the pool cancels queued reads, the loops
// exit.
package app
