package middleware

import (
	"net/http"
	"time"

	"github.com/Harshitk-cp/clubledger/internal/tenancy"
	"go.uber.org/zap"
)

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	if rw, ok := w.(*responseWriter); ok {
		return rw
	}
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Logging returns middleware that logs each request with structured JSON output.
//
// The tenant and user are bound further down the chain, so they are read
// back from the request as it reached the handler.
func Logging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)
			trace := &requestTrace{}

			next.ServeHTTP(rw, r.WithContext(withTrace(r.Context(), trace)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", rw.statusCode),
				zap.Int64("bytes", rw.written),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", RequestIDFromContext(r.Context())),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			}
			if trace.tenantID != 0 {
				fields = append(fields, zap.Int64("tenant_id", trace.tenantID))
			}
			if trace.userID != 0 {
				fields = append(fields, zap.Int64("user_id", trace.userID))
			}
			logger.Info("http request", fields...)
		})
	}
}

// Trace copies the bound user and tenant into the request's log trace. It
// runs innermost, after auth and tenant resolution.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if t := traceFromContext(r.Context()); t != nil {
			t.userID, _ = UserIDFromContext(r.Context())
			t.tenantID, _ = tenancy.IDFromContext(r.Context())
		}
		next.ServeHTTP(w, r)
	})
}
