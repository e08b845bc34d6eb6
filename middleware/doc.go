// Package middleware implements cross-cutting middleware for bexpress pipelines: access logging, request ids,
// prometheus metrics and opentelemetry tracing.
//
// All of them do their work up front and then call next. What needs the final status (log lines, metrics, span
// status) is recorded with [bexpress.Response.OnEnd], because the pipeline does not return to a middleware once
// the response is produced further down.
package middleware
