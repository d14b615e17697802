package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	pestlog "github.com/pestline/pestline/internal/log"
)

// CorrelationID stores the X-Correlation-ID header, or chi's request ID when
// absent, in the request context and echoes it in the response.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Correlation-ID")
		if id == "" {
			id = middleware.GetReqID(r.Context())
		}
		w.Header().Set("X-Correlation-ID", id)
		next.ServeHTTP(w, r.WithContext(pestlog.WithCorrelationID(r.Context(), id)))
	})
}

// GetCorrelationID returns the correlation ID from the context.
func GetCorrelationID(ctx context.Context) string {
	return pestlog.CorrelationID(ctx)
}

// MaxBytes limits request bodies to n bytes. Reads past the limit fail with
// *http.MaxBytesError, which WriteError maps to 413.
func MaxBytes(n int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if n > 0 && r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, n)
			}
			next.ServeHTTP(w, r)
		})
	}
}
