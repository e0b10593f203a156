package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webrecon/webrecon/internal/core"
	"github.com/webrecon/webrecon/internal/core/backend"
	"github.com/webrecon/webrecon/internal/core/engine"
	apperrors "github.com/webrecon/webrecon/internal/errors"
	"github.com/webrecon/webrecon/internal/fetch"
	"github.com/webrecon/webrecon/internal/search"
	"github.com/webrecon/webrecon/internal/server/handlers"
	"golang.org/x/time/rate"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	store := backend.NewMemory()
	limiter := &engine.RateLimiter{
		Backend: store,
		Limits: map[core.Scope]engine.Limit{
			core.ScopeSearch: {Capacity: 2, Period: time.Minute},
			core.ScopeScrape: {Capacity: 5, Period: time.Minute},
		},
	}
	cache := &engine.ResultCache{Backend: store}

	searchService := search.NewService(search.ClientFunc(func(_ context.Context, _ string, _ int) ([]string, error) {
		return []string{"https://a.example/one", "https://b.example/two"}, nil
	}), time.Second, nil)
	searchService.Pacer = rate.NewLimiter(rate.Inf, 1)

	fetcher := fetch.FetcherFunc(func(_ context.Context, target string) ([]byte, error) {
		return []byte(`{"url":"` + target + `","title":"stub"}`), nil
	})

	apiHandlers := Handlers{
		Search: &handlers.SearchHandler{
			Cache:    cache,
			Limiter:  limiter,
			Service:  searchService,
			CacheTTL: time.Minute,
		},
		Scrape: &handlers.ScrapeHandler{
			Cache:        cache,
			Limiter:      limiter,
			Fetcher:      fetcher,
			Concurrency:  2,
			MaxTargets:   20,
			CacheTTL:     time.Minute,
			BatchTimeout: 5 * time.Second,
		},
		Quota: &handlers.QuotaHandler{Limiter: limiter},
	}

	return New("127.0.0.1", 0, apiHandlers, "test-key", "")
}

func doJSON(t *testing.T, srv *Server, method, path, apiKey, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/does-not-exist", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestServerRequiresAPIKeyOnAPIRoutes(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/search", "", `{"query":"jane doe"}`)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Health stays open to probes
	rec = doJSON(t, srv, http.MethodGet, "/health/live", "", "")
	require.NotEqual(t, http.StatusUnauthorized, rec.Code)
}

func TestServerSearchEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/search", "test-key", `{"query":"jane doe"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.SearchResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Equal(t, 2, resp.Count)
	require.False(t, resp.FromCache)

	// Repeat comes from the cache and skips the quota
	rec = doJSON(t, srv, http.MethodPost, "/api/search", "test-key", `{"query":"jane doe"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.True(t, resp.FromCache)
}

func TestServerSearchQuotaDenied(t *testing.T) {
	srv := newTestServer(t)

	// Capacity 2; distinct queries bypass the cache
	for i, q := range []string{`{"query":"one"}`, `{"query":"two"}`} {
		rec := doJSON(t, srv, http.MethodPost, "/api/search", "test-key", q)
		require.Equal(t, http.StatusOK, rec.Code, "request %d should be admitted", i)
	}

	rec := doJSON(t, srv, http.MethodPost, "/api/search", "test-key", `{"query":"three"}`)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	var body apperrors.HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	require.Equal(t, "QUOTA_DENIED", body.Error.Code)
}

func TestServerScrapeEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/scrape", "test-key",
		`{"urls":["https://a.example/1","https://b.example/2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.ScrapeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Results, 2)
	require.Equal(t, "https://a.example/1", resp.Results[0].URL)
	require.Equal(t, "https://b.example/2", resp.Results[1].URL)
	require.Equal(t, 2, resp.Summary.Succeeded)
}

func TestServerScrapeRejectsEmptyBatch(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/scrape", "test-key", `{"urls":[]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServerQuotaEndpoint(t *testing.T) {
	srv := newTestServer(t)

	doJSON(t, srv, http.MethodPost, "/api/search", "test-key", `{"query":"jane doe"}`)

	rec := doJSON(t, srv, http.MethodGet, "/api/quota", "test-key", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.QuotaResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	var found bool
	for _, scope := range resp.Scopes {
		if scope.Scope == "search" {
			found = true
			require.Equal(t, 1, scope.Used)
			require.Equal(t, 1, scope.Remaining)
		}
	}
	require.True(t, found, "search scope should be reported")
}
