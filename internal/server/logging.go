package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const TraceIDHeader = "X-Trace-ID"
const TraceParentHeader = "traceparent"

// traceID extracts the trace id from the W3C traceparent header, falls back to
// X-Trace-ID, and generates one when neither is present.
func traceID(r *http.Request) string {
	if tp := r.Header.Get(TraceParentHeader); tp != "" {
		// traceparent format: version-trace_id-parent_id-flags
		parts := strings.Split(tp, "-")
		if len(parts) >= 2 && parts[1] != "" {
			return parts[1]
		}
	}
	if id := r.Header.Get(TraceIDHeader); id != "" {
		return id
	}
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RequestLogger logs one structured line per request and attaches a trace-id
// scoped logger to the request context.
func RequestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			id := traceID(r)

			logger := log.With().Str("trace_id", id).Logger()
			ctx := logger.WithContext(r.Context())
			w.Header().Set(TraceIDHeader, id)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			event := logger.Info()
			if ww.Status() >= 400 {
				event = logger.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("remote_addr", r.RemoteAddr).
				Str("user_agent", r.UserAgent()).
				Msg("http request")
		})
	}
}
