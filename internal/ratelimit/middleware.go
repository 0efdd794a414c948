package ratelimit

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/filebox/internal/logger"
)

// KeyFunc derives the limiter key for a request. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

// Middleware enforces the limiter on each request, keyed by keyFn. Requests
// over the limit get a 429 JSON response.
func Middleware(l Limiter, keyFn KeyFunc, log *slog.Logger) func(next http.Handler) http.Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := l.Allow(r.Context(), key)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request",
					logger.Component("ratelimit"),
					logger.Error(err),
				)
			}
			if !allowed {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{
						"code":    "RATE_LIMITED",
						"message": "too many requests, slow down",
					},
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
