package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/moodcast/moodcast/internal/core/ports"
)

// RateLimitMiddleware throttles API requests per client IP using the
// configured rate limit service.
type RateLimitMiddleware struct {
	service ports.RateLimitService
	limit   int
	window  time.Duration
	logger  *zap.Logger
}

// NewRateLimitMiddleware creates the rate limiting middleware.
func NewRateLimitMiddleware(service ports.RateLimitService, limit int, window time.Duration, logger *zap.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		service: service,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
}

// Middleware rejects requests over the limit with 429. A limiter backend
// failure fails open: availability wins over strict throttling.
func (m *RateLimitMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identifier := GetClientIP(r)

		allowed, err := m.service.Allow(r.Context(), identifier, m.limit, m.window)

		if err != nil {
			m.logger.Warn("rate limiter unavailable, allowing request",
				zap.String("identifier", identifier),
				zap.Error(err))

			next.ServeHTTP(w, r)

			return
		}

		if !allowed {
			w.Header().Set("Retry-After", m.window.String())
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)

			return
		}

		next.ServeHTTP(w, r)
	})
}
