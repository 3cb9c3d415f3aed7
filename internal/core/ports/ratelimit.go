package ports

import (
	"context"
	"time"
)

// RateLimitService throttles requests per client identifier over a sliding
// window. Implemented by the Redis limiter with an in-memory fallback.
type RateLimitService interface {
	Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, identifier string) error
}
