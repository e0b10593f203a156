// Package engine holds the quota rate limiter, the result cache, and the
// scrape orchestrator that ties them together.
package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/backend"
	"github.com/webrecon/webrecon/internal/metrics"
)

// ErrUnknownScope reports a quota scope outside the fixed startup set. It is
// a programming error at the call site, never a runtime condition.
var ErrUnknownScope = fmt.Errorf("unknown quota scope")

// Limit is one scope's fixed-window budget.
type Limit struct {
	Capacity int
	Period   time.Duration
}

// RateLimiter enforces per-scope fixed-window quotas on top of a backend.
// Window counters are keyed by the quantized window start, so concurrent
// callers in other processes only ever race on an atomic increment and a
// rolled-over window can never leak counts into the next one.
type RateLimiter struct {
	Backend backend.Backend
	Limits  map[core.Scope]Limit
	Clock   func() time.Time
}

// Allow consumes one unit of the scope's quota. A denied decision carries the
// time until the window rolls over. The returned error is reserved for caller
// misuse (unknown scope); backend outages are absorbed by the failover layer
// beneath, and any residual failure counts as an admit because rate limiting
// must never take requests down with it.
func (r *RateLimiter) Allow(ctx context.Context, scope core.Scope) (core.Decision, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	limit, ok := r.Limits[scope]
	if !ok || !core.KnownScope(scope) {
		return core.Decision{}, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	now := r.now()
	windowStart := windowStart(now, limit.Period)

	count, err := r.Backend.Incr(ctx, windowKey(scope, windowStart), 1, limit.Period)
	if err != nil {
		return core.Decision{Allowed: true}, nil
	}

	if count > int64(limit.Capacity) {
		retryAfter := limit.Period - now.Sub(time.Unix(windowStart, 0))
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		metrics.RecordQuotaDecision(string(scope), false)
		return core.Decision{RetryAfter: retryAfter}, nil
	}

	metrics.RecordQuotaDecision(string(scope), true)
	remaining := limit.Capacity - int(count)
	return core.Decision{Allowed: true, Remaining: remaining}, nil
}

// Usage reports the count consumed in the scope's current window.
func (r *RateLimiter) Usage(ctx context.Context, scope core.Scope) (int, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	limit, ok := r.Limits[scope]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}

	value, found, err := r.Backend.Get(ctx, windowKey(scope, windowStart(r.now(), limit.Period)))
	if err != nil || !found {
		return 0, err
	}
	count, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("corrupt window counter: %w", err)
	}
	return count, nil
}

// Reset discards the scope's current window counter.
func (r *RateLimiter) Reset(ctx context.Context, scope core.Scope) error {
	if ctx == nil {
		ctx = context.Background()
	}

	limit, ok := r.Limits[scope]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScope, scope)
	}
	return r.Backend.Del(ctx, windowKey(scope, windowStart(r.now(), limit.Period)))
}

func (r *RateLimiter) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}

func windowStart(now time.Time, period time.Duration) int64 {
	seconds := int64(period / time.Second)
	if seconds <= 0 {
		seconds = 1
	}
	return now.Unix() - now.Unix()%seconds
}

func windowKey(scope core.Scope, windowStart int64) string {
	return fmt.Sprintf("ratelimit:%s:%d", scope, windowStart)
}
