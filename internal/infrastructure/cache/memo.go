// Package cache provides the in-process TTL memoization store used to avoid
// redundant upstream API calls. Entries live until their per-entry TTL
// elapses; expired entries are treated as absent on lookup and reclaimed by
// go-cache's background janitor.
package cache

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// Memo is a typed key/value cache with per-entry expiration, backed by
// go-cache. All methods are safe for concurrent use.
//
// Concurrency note: GetOrCompute holds no lock while compute runs, so
// concurrent misses for the same key may each invoke compute. Upstream reads
// are idempotent, so the duplicate call is tolerated and the last writer
// wins; strict singleflight is deliberately not provided.
type Memo[V any] struct {
	store  *gocache.Cache
	logger *zap.Logger
}

// NewMemo creates a memo store. cleanupInterval controls how often the
// janitor sweeps expired entries; expiry itself is always per-entry.
func NewMemo[V any](cleanupInterval time.Duration, logger *zap.Logger) *Memo[V] {
	return &Memo[V]{
		store:  gocache.New(gocache.NoExpiration, cleanupInterval),
		logger: logger,
	}
}

// Get returns the cached value for key. found is false when the key was
// never set or its TTL has elapsed.
func (m *Memo[V]) Get(key string) (V, bool) {
	if value, found := m.store.Get(key); found {
		m.logger.Debug("memo hit", zap.String("key", key))

		return value.(V), true
	}

	m.logger.Debug("memo miss", zap.String("key", key))

	var zero V

	return zero, false
}

// Set stores value under key with expiry now+ttl, replacing any previous
// entry. It returns the stored value so fetch-and-cache reads stay a single
// expression.
func (m *Memo[V]) Set(key string, value V, ttl time.Duration) V {
	m.store.Set(key, value, ttl)
	m.logger.Debug("memo set", zap.String("key", key), zap.Duration("ttl", ttl))

	return value
}

// GetOrCompute returns the cached value for key, or invokes compute on a
// miss, caching and returning its result. A compute failure caches nothing,
// so the next call retries.
func (m *Memo[V]) GetOrCompute(key string, ttl time.Duration, compute func() (V, error)) (V, error) {
	if value, found := m.Get(key); found {
		return value, nil
	}

	value, err := compute()

	if err != nil {
		var zero V

		return zero, err
	}

	return m.Set(key, value, ttl), nil
}

// Flush drops every entry. Used on reset paths; normal operation relies on
// TTL expiry only.
func (m *Memo[V]) Flush() {
	m.store.Flush()
	m.logger.Info("memo flushed")
}

// Key builds a namespaced cache key from a logical domain, an entity shape,
// and the entity's identifying attributes, e.g.
// Key("weather", "observation", "city_id=5") -> "weather.observation.city_id=5".
// Namespacing keeps values of different shapes from colliding.
func Key(domain, shape string, attrs ...string) string {
	return strings.Join(append([]string{domain, shape}, attrs...), ".")
}
