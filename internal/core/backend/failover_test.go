package backend

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// flakyBackend fails every operation with ErrUnavailable while broken.
type flakyBackend struct {
	inner  Backend
	broken bool
	calls  int
}

func (f *flakyBackend) fail(op string) error {
	return fmt.Errorf("%s: %w", op, ErrUnavailable)
}

func (f *flakyBackend) Incr(ctx context.Context, key string, amount int64, ttl time.Duration) (int64, error) {
	f.calls++
	if f.broken {
		return 0, f.fail("incr")
	}
	return f.inner.Incr(ctx, key, amount, ttl)
}

func (f *flakyBackend) Get(ctx context.Context, key string) (string, bool, error) {
	f.calls++
	if f.broken {
		return "", false, f.fail("get")
	}
	return f.inner.Get(ctx, key)
}

func (f *flakyBackend) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	f.calls++
	if f.broken {
		return f.fail("set")
	}
	return f.inner.Set(ctx, key, value, ttl)
}

func (f *flakyBackend) Del(ctx context.Context, key string) error {
	f.calls++
	if f.broken {
		return f.fail("del")
	}
	return f.inner.Del(ctx, key)
}

func TestRegistryDemotesAndRecovers(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	distributed := &flakyBackend{inner: NewMemory(), broken: true}
	local := NewMemory()

	registry := NewRegistry(distributed, local, nil,
		WithCoolDown(30*time.Second),
		WithClock(func() time.Time { return now }))
	be := registry.For(ConcernCache)

	// First call hits the broken distributed backend, demotes, and is
	// absorbed by the local retry.
	require.NoError(t, be.Set(context.Background(), "cache:k", "v", time.Minute))
	require.Equal(t, 1, distributed.calls)

	value, ok, err := be.Get(context.Background(), "cache:k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)
	// Still inside the cool-down: no further distributed calls.
	require.Equal(t, 1, distributed.calls)

	// After the cool-down the next call probes the distributed backend again.
	distributed.broken = false
	now = now.Add(31 * time.Second)
	require.NoError(t, be.Set(context.Background(), "cache:k2", "v2", time.Minute))
	require.Equal(t, 2, distributed.calls)

	for _, status := range registry.Status() {
		if status.Concern == ConcernCache {
			require.True(t, status.UsingDistributed)
		}
	}
}

func TestRegistryFailedProbeRestartsCoolDown(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	distributed := &flakyBackend{inner: NewMemory(), broken: true}
	registry := NewRegistry(distributed, NewMemory(), nil,
		WithCoolDown(30*time.Second),
		WithClock(func() time.Time { return now }))
	be := registry.For(ConcernRateLimit)

	_, err := be.Incr(context.Background(), "ratelimit:search:0", 1, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, distributed.calls)

	// Probe after cool-down fails and re-demotes.
	now = now.Add(31 * time.Second)
	_, err = be.Incr(context.Background(), "ratelimit:search:0", 1, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, distributed.calls)

	// Back inside a fresh cool-down.
	now = now.Add(15 * time.Second)
	_, err = be.Incr(context.Background(), "ratelimit:search:0", 1, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 2, distributed.calls)
}

func TestRegistryConcernsAreIndependent(t *testing.T) {
	distributed := &flakyBackend{inner: NewMemory()}
	registry := NewRegistry(distributed, NewMemory(), nil)

	cache := registry.For(ConcernCache)
	limits := registry.For(ConcernRateLimit)

	distributed.broken = true
	require.NoError(t, cache.Set(context.Background(), "cache:k", "v", time.Minute))
	distributed.broken = false

	// Rate limiting was untouched by the cache demotion.
	_, err := limits.Incr(context.Background(), "ratelimit:scrape:0", 1, time.Minute)
	require.NoError(t, err)

	var cacheStatus, limitStatus ConcernStatus
	for _, status := range registry.Status() {
		switch status.Concern {
		case ConcernCache:
			cacheStatus = status
		case ConcernRateLimit:
			limitStatus = status
		}
	}
	require.False(t, cacheStatus.UsingDistributed)
	require.True(t, limitStatus.UsingDistributed)
}

func TestRegistryWithoutDistributedNeverProbes(t *testing.T) {
	registry := NewRegistry(nil, NewMemory(), nil)
	require.False(t, registry.Distributed())

	be := registry.For(ConcernCache)
	require.NoError(t, be.Set(context.Background(), "cache:k", "v", time.Minute))

	for _, status := range registry.Status() {
		require.False(t, status.UsingDistributed)
	}
}
