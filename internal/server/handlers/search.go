package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/engine"
	apperrors "github.com/webrecon/webrecon/internal/errors"
	"github.com/webrecon/webrecon/internal/metrics"
	"github.com/webrecon/webrecon/internal/search"
)

const defaultMaxResults = 10

// SearchRequest is the POST /api/search body.
type SearchRequest struct {
	Query      string   `json:"query"`
	Sites      []string `json:"sites,omitempty"`
	Timeframe  string   `json:"timeframe,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}

// SearchResponse is the POST /api/search response. FromCache marks responses
// served without touching the provider or the quota.
type SearchResponse struct {
	Query              string   `json:"query"`
	EffectiveTimeframe string   `json:"effective_timeframe"`
	Results            []string `json:"results"`
	Count              int      `json:"count"`
	FromCache          bool     `json:"from_cache"`
}

// SearchHandler serves web searches: cache first, then quota, then the paced
// search service. Identical requests within the cache TTL cost no quota.
type SearchHandler struct {
	Cache    *engine.ResultCache
	Limiter  *engine.RateLimiter
	Service  *search.Service
	CacheTTL time.Duration
}

// ServeHTTP handles POST /api/search.
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Request body must be valid JSON"))
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("Query is required"))
		return
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}

	ctx := r.Context()
	key := engine.SearchKey(req.Query, req.Sites, req.Timeframe)

	if payload, ok := h.Cache.Get(ctx, key); ok {
		var cached SearchResponse
		if err := json.Unmarshal(payload, &cached); err == nil {
			cached.FromCache = true
			writeSearchResponse(w, cached)
			return
		}
	}

	decision, err := h.Limiter.Allow(ctx, core.ScopeSearch)
	if err != nil {
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "Search request could not be processed"))
		return
	}
	if !decision.Allowed {
		respondWithError(w, r, apperrors.NewQuotaDeniedError(string(core.ScopeSearch), decision.RetryAfter))
		return
	}

	results, effective, err := h.Service.Search(ctx, effectiveQuery(req.Query, req.Sites), req.MaxResults, req.Timeframe)
	if err != nil {
		metrics.RecordSearch(req.Timeframe, false)
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "Search provider request failed"))
		return
	}
	metrics.RecordSearch(effective, true)

	response := SearchResponse{
		Query:              req.Query,
		EffectiveTimeframe: effective,
		Results:            results,
		Count:              len(results),
	}

	if payload, err := json.Marshal(response); err == nil {
		h.Cache.Set(ctx, key, payload, h.CacheTTL)
	}

	writeSearchResponse(w, response)
}

// effectiveQuery restricts the search to the requested sites. Multiple sites
// become an OR group so one provider call covers them all.
func effectiveQuery(query string, sites []string) string {
	filters := make([]string, 0, len(sites))
	for _, site := range sites {
		site = strings.TrimSpace(site)
		if site == "" {
			continue
		}
		filters = append(filters, "site:"+site)
	}

	switch len(filters) {
	case 0:
		return query
	case 1:
		return query + " " + filters[0]
	default:
		return fmt.Sprintf("%s (%s)", query, strings.Join(filters, " OR "))
	}
}

func writeSearchResponse(w http.ResponseWriter, response SearchResponse) {
	if response.Results == nil {
		response.Results = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
