// Package middleware provides HTTP middleware for the observability layer.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/httplog/v3"
	"go.opentelemetry.io/otel/trace"
)

// Logging logs HTTP requests with method, path, status, and duration.
// Requests and responses are never captured: this server handles
// authorization codes and bearer tokens.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return httplog.RequestLogger(logger, &httplog.Options{
		Schema: httplog.SchemaECS.Concise(true),

		// Explicitly prevent logging headers/body to avoid leaking sensitive data
		LogRequestHeaders:  []string{"Content-Type", "Origin"},
		LogResponseHeaders: []string{},
		LogRequestBody:     nil,
		LogResponseBody:    nil,

		RecoverPanics: false, // use dedicated middleware, panics are logged regardless
	})
}

// TraceContext attaches the active trace and span ids to request log records
// when the request context carries a sampled span.
func TraceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		span := trace.SpanContextFromContext(r.Context())
		if span.HasTraceID() {
			httplog.SetAttrs(r.Context(),
				slog.String("trace_id", span.TraceID().String()),
				slog.String("span_id", span.SpanID().String()))
		}
		next.ServeHTTP(w, r)
	})
}
