package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/metrics"
)

// FetchFunc retrieves one target. The payload is opaque to the orchestrator;
// the collaborator owns transport, auth, and domain-specific error mapping.
type FetchFunc func(ctx context.Context, target string) ([]byte, error)

// KeyFunc derives the cache key for a target.
type KeyFunc func(target string) string

// ScrapeOrchestrator runs a batch of targets through cache, quota, and
// bounded-concurrency fetch, and reassembles results in input order.
type ScrapeOrchestrator struct {
	Cache       *ResultCache
	Limiter     *RateLimiter
	Scope       core.Scope
	Concurrency int
	CacheTTL    time.Duration
	KeyFor      KeyFunc
}

// FetchAll resolves every target and returns one result per target, in the
// caller's input order regardless of completion order. Per-target failures
// (quota denial, fetch error, deadline) stay on their target; the only error
// returned from FetchAll itself is caller misuse of the quota scope.
//
// Per target: cache hit ends it; a miss consumes one quota unit; admitted
// targets are fetched under the concurrency bound and written through to the
// cache on success.
func (o *ScrapeOrchestrator) FetchAll(ctx context.Context, targets []string, fetch FetchFunc) ([]core.TargetResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	results := make([]core.TargetResult, len(targets))
	pending := make([]int, 0, len(targets))

	for i, target := range targets {
		results[i] = core.TargetResult{Target: target}

		if payload, ok := o.Cache.Get(ctx, o.keyFor(target)); ok {
			results[i].Status = core.TargetOK
			results[i].Payload = payload
			results[i].FromCache = true
			continue
		}

		decision, err := o.Limiter.Allow(ctx, o.Scope)
		if err != nil {
			return nil, err
		}
		if !decision.Allowed {
			results[i].Status = core.TargetRateLimited
			results[i].RetryAfter = decision.RetryAfter
			results[i].Err = fmt.Errorf("quota %q exhausted, retry in %s", o.Scope, decision.RetryAfter.Round(time.Second))
			continue
		}

		pending = append(pending, i)
	}

	o.fetchPending(ctx, results, pending, fetch)

	for _, r := range results {
		metrics.RecordScrapeOutcome(string(r.Status), r.FromCache)
	}
	return results, nil
}

// fetchPending runs the admitted targets under a counting semaphore. Slot
// acquisition blocks rather than spins; a batch deadline turns not-yet-run
// targets into per-target timeouts while completed fetches keep their
// results and cache writes.
func (o *ScrapeOrchestrator) fetchPending(ctx context.Context, results []core.TargetResult, pending []int, fetch FetchFunc) {
	if len(pending) == 0 {
		return
	}

	bound := o.Concurrency
	if bound <= 0 {
		bound = 5
	}
	sem := make(chan struct{}, bound)

	var wg sync.WaitGroup
	for _, i := range pending {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Status = core.TargetTimeout
				results[i].Err = fmt.Errorf("batch deadline exceeded before fetch started: %w", ctx.Err())
				return
			}

			payload, err := fetch(ctx, results[i].Target)
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
					results[i].Status = core.TargetTimeout
				} else {
					results[i].Status = core.TargetFailed
				}
				results[i].Err = err
				return
			}

			results[i].Status = core.TargetOK
			results[i].Payload = payload
			o.Cache.Set(ctx, o.keyFor(results[i].Target), payload, o.CacheTTL)
		}(i)
	}
	wg.Wait()
}

func (o *ScrapeOrchestrator) keyFor(target string) string {
	if o.KeyFor != nil {
		return o.KeyFor(target)
	}
	return PageKey(target, "")
}
