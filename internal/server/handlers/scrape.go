package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/engine"
	apperrors "github.com/webrecon/webrecon/internal/errors"
	"github.com/webrecon/webrecon/internal/fetch"
	"github.com/webrecon/webrecon/internal/metrics"
)

// ScrapeRequest is the POST /api/scrape body.
type ScrapeRequest struct {
	URLs []string `json:"urls"`

	// Query tags the batch so pages fetched for different investigations
	// land under distinct cache keys.
	Query string `json:"query,omitempty"`
}

// ScrapeResult is one target's outcome in the response, in request order.
type ScrapeResult struct {
	URL               string          `json:"url"`
	Status            string          `json:"status"`
	FromCache         bool            `json:"from_cache"`
	RetryAfterSeconds int64           `json:"retry_after_seconds,omitempty"`
	Error             string          `json:"error,omitempty"`
	Page              json.RawMessage `json:"page,omitempty"`
}

// ScrapeSummary aggregates the batch outcome.
type ScrapeSummary struct {
	Requested   int `json:"requested"`
	Succeeded   int `json:"succeeded"`
	RateLimited int `json:"rate_limited"`
	Failed      int `json:"failed"`
	TimedOut    int `json:"timed_out"`
	CacheHits   int `json:"cache_hits"`
}

// ScrapeResponse is the POST /api/scrape response.
type ScrapeResponse struct {
	Results []ScrapeResult `json:"results"`
	Summary ScrapeSummary  `json:"summary"`
}

// ScrapeHandler serves batch page scraping: each URL goes through cache,
// quota, and a bounded-concurrency fetch, and the response preserves request
// order with per-URL outcomes.
type ScrapeHandler struct {
	Cache   *engine.ResultCache
	Limiter *engine.RateLimiter
	Fetcher fetch.Fetcher

	Concurrency  int
	MaxTargets   int
	CacheTTL     time.Duration
	BatchTimeout time.Duration

	activeBatches atomic.Int64
}

// ServeHTTP handles POST /api/scrape.
func (h *ScrapeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body must be valid JSON"))
		return
	}

	if len(req.URLs) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("At least one URL is required"))
		return
	}
	if h.MaxTargets > 0 && len(req.URLs) > h.MaxTargets {
		respondWithError(w, r, apperrors.NewInvalidInputError(
			fmt.Sprintf("Batch size %d exceeds the maximum of %d URLs", len(req.URLs), h.MaxTargets)))
		return
	}

	ctx := r.Context()
	if h.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.BatchTimeout)
		defer cancel()
	}

	metrics.SetActiveScrapeBatches(h.activeBatches.Add(1))
	defer func() {
		metrics.SetActiveScrapeBatches(h.activeBatches.Add(-1))
	}()

	orchestrator := &engine.ScrapeOrchestrator{
		Cache:       h.Cache,
		Limiter:     h.Limiter,
		Scope:       core.ScopeScrape,
		Concurrency: h.Concurrency,
		CacheTTL:    h.CacheTTL,
		KeyFor: func(target string) string {
			return engine.PageKey(target, req.Query)
		},
	}

	results, err := orchestrator.FetchAll(ctx, req.URLs, h.Fetcher.Fetch)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Scrape batch could not be processed"))
		return
	}

	response := buildScrapeResponse(results)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}

func buildScrapeResponse(results []core.TargetResult) ScrapeResponse {
	response := ScrapeResponse{
		Results: make([]ScrapeResult, len(results)),
		Summary: ScrapeSummary{Requested: len(results)},
	}

	for i, result := range results {
		entry := ScrapeResult{
			URL:       result.Target,
			Status:    string(result.Status),
			FromCache: result.FromCache,
			Error:     result.ErrorMessage(),
		}

		switch result.Status {
		case core.TargetOK:
			entry.Page = json.RawMessage(result.Payload)
			response.Summary.Succeeded++
			if result.FromCache {
				response.Summary.CacheHits++
			}
		case core.TargetRateLimited:
			entry.RetryAfterSeconds = retryAfterSeconds(result.RetryAfter)
			response.Summary.RateLimited++
		case core.TargetTimeout:
			response.Summary.TimedOut++
		default:
			response.Summary.Failed++
		}

		response.Results[i] = entry
	}

	return response
}

// retryAfterSeconds rounds up so callers never retry a moment too early.
func retryAfterSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}
