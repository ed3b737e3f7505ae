package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the header name for request ID.
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = contextKey("request_id")
	traceKey        = contextKey("trace")
)

// RequestIDFromContext returns the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RequestID middleware reuses the caller's X-Request-ID or generates a new
// UUID, echoes it in the response and stores it in context.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestTrace is filled in by inner middleware and read by Logging once the
// handler returns.
type requestTrace struct {
	userID   int64
	tenantID int64
}

func withTrace(ctx context.Context, t *requestTrace) context.Context {
	return context.WithValue(ctx, traceKey, t)
}

func traceFromContext(ctx context.Context) *requestTrace {
	t, _ := ctx.Value(traceKey).(*requestTrace)
	return t
}
