package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webrecon/webrecon/internal/core/backend"
)

func TestResultCacheRoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	be := backend.NewMemory()
	be.SetClock(func() time.Time { return now })
	cache := &ResultCache{Backend: be}

	key := SearchKey("golang concurrency", nil, "")
	_, ok := cache.Get(context.Background(), key)
	require.False(t, ok)

	cache.Set(context.Background(), key, []byte(`{"results":[]}`), time.Minute)

	payload, ok := cache.Get(context.Background(), key)
	require.True(t, ok)
	require.JSONEq(t, `{"results":[]}`, string(payload))

	// Expired entries read as misses regardless of backend state.
	now = now.Add(time.Minute)
	_, ok = cache.Get(context.Background(), key)
	require.False(t, ok)
}

func TestResultCacheIgnoresEmptyWrites(t *testing.T) {
	cache := &ResultCache{Backend: backend.NewMemory()}

	cache.Set(context.Background(), "cache:page:x", nil, time.Minute)
	_, ok := cache.Get(context.Background(), "cache:page:x")
	require.False(t, ok)

	cache.Set(context.Background(), "cache:page:x", []byte("payload"), 0)
	_, ok = cache.Get(context.Background(), "cache:page:x")
	require.False(t, ok)
}
