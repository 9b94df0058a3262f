package ratelimit

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"declara/pkg/platform/middleware/metadata"
	"declara/pkg/requestcontext"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func newTestMiddleware(limit int) *Middleware {
	limiter := NewLimiter(NewInMemoryStore(100), limit, time.Minute)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	return NewMiddleware(limiter, logger)
}

func doRequest(t *testing.T, handler http.Handler, actorID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/declarations", nil)
	if actorID != "" {
		req = req.WithContext(requestcontext.WithActorID(req.Context(), actorID))
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestMiddlewareAllowsWithinLimit(t *testing.T) {
	handler := newTestMiddleware(2).Limit(okHandler())

	rec := doRequest(t, handler, "actor-1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	handler := newTestMiddleware(1).Limit(okHandler())

	require.Equal(t, http.StatusOK, doRequest(t, handler, "actor-1").Code)
	rec := doRequest(t, handler, "actor-1")

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate_limit_exceeded"}`, rec.Body.String())
}

func TestMiddlewareKeysByActor(t *testing.T) {
	handler := newTestMiddleware(1).Limit(okHandler())

	require.Equal(t, http.StatusOK, doRequest(t, handler, "actor-1").Code)
	assert.Equal(t, http.StatusOK, doRequest(t, handler, "actor-2").Code)
}

func TestMiddlewareFallsBackToClientIP(t *testing.T) {
	handler := newTestMiddleware(1).Limit(okHandler())

	anonymous := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/declarations", nil)
		req = req.WithContext(metadata.WithClientIP(req.Context(), ip))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	require.Equal(t, http.StatusOK, anonymous("10.0.0.1").Code)
	assert.Equal(t, http.StatusTooManyRequests, anonymous("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, anonymous("10.0.0.2").Code)
}

func TestMiddlewareFailsOpenOnStoreError(t *testing.T) {
	limiter := NewLimiter(failingStore{}, 1, time.Minute)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	handler := NewMiddleware(limiter, logger).Limit(okHandler())

	rec := doRequest(t, handler, "actor-1")

	assert.Equal(t, http.StatusOK, rec.Code)
}
