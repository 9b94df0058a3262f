package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"declara/pkg/platform/middleware/metadata"
	"declara/pkg/requestcontext"
)

// Middleware throttles requests per actor. Unauthenticated requests fall
// back to the client IP as the key. A failing limiter store fails open: a
// broken Redis must not take writes down with it.
type Middleware struct {
	limiter *Limiter
	logger  *slog.Logger
}

func NewMiddleware(limiter *Limiter, logger *slog.Logger) *Middleware {
	return &Middleware{limiter: limiter, logger: logger}
}

func (m *Middleware) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := requestcontext.ActorID(ctx)
		if key == "" {
			key = metadata.GetClientIP(ctx)
		}

		result, err := m.limiter.Check(ctx, key)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			retryAfter := int64(result.ResetAt.Sub(requestcontext.Now(ctx)).Seconds()) + 1
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(retryAfter, 10))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"error": "rate_limit_exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
