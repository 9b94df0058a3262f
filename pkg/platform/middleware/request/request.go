// Package request assigns a correlation ID to every incoming request so log
// lines and audit entries produced on its behalf can be tied together.
package request

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"declara/pkg/requestcontext"
)

// headerRequestID is honored when an upstream proxy already assigned an ID.
const headerRequestID = "X-Request-Id"

// RequestID ensures every request carries a correlation ID in context and
// echoes it back in the response headers.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		w.Header().Set(headerRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}
