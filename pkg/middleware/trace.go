package middleware

import (
	"context"
	"net/http"

	"github.com/Suhaibinator/SRouterTools/pkg/common"
	"github.com/google/uuid"
)

// TraceIDHeader is the response header carrying the request's trace id.
const TraceIDHeader = "X-Trace-ID"

type traceIDKey struct{}

// TraceIDKey is the context key holding the trace id.
var TraceIDKey = traceIDKey{}

// TraceMiddleware creates a middleware that assigns a unique trace ID to each
// request, stores it in the request context and echoes it in the X-Trace-ID
// response header. An incoming X-Trace-ID header is reused when it is a valid
// UUID.
func TraceMiddleware() common.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := r.Header.Get(TraceIDHeader)
			if _, err := uuid.Parse(traceID); err != nil {
				traceID = uuid.New().String()
			}

			w.Header().Set(TraceIDHeader, traceID)
			ctx := context.WithValue(r.Context(), TraceIDKey, traceID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetTraceID extracts the trace ID from the request context.
// Returns an empty string if no trace ID is found.
func GetTraceID(r *http.Request) string {
	return GetTraceIDFromContext(r.Context())
}

// GetTraceIDFromContext extracts the trace ID from a context.
// Returns an empty string if no trace ID is found.
func GetTraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(TraceIDKey).(string); ok {
		return traceID
	}
	return ""
}
