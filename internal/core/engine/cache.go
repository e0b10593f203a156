package engine

import (
	"context"
	"time"

	"github.com/webrecon/webrecon/internal/core/backend"
	"github.com/webrecon/webrecon/internal/metrics"
)

// ResultCache stores opaque collaborator payloads with per-category TTLs.
// Caching is a performance optimization, never a correctness dependency:
// any failure degrades to a miss or a dropped write, and no cache problem
// ever fails the request that touched it.
type ResultCache struct {
	Backend backend.Backend
}

// Get returns the cached payload for key, or a miss.
func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	value, ok, err := c.Backend.Get(ctx, key)
	if err != nil || !ok {
		metrics.RecordCacheLookup(false)
		return nil, false
	}
	metrics.RecordCacheLookup(true)
	return []byte(value), true
}

// Set stores payload under key for ttl. Best effort.
func (c *ResultCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) {
	if ctx == nil {
		ctx = context.Background()
	}
	if ttl <= 0 || len(payload) == 0 {
		return
	}

	_ = c.Backend.Set(ctx, key, string(payload), ttl)
}
