package handlers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/webrecon/webrecon/internal/core"
)

func TestBuildScrapeResponseClassifiesOutcomes(t *testing.T) {
	results := []core.TargetResult{
		{Target: "https://a.example", Status: core.TargetOK, Payload: []byte(`{"title":"a"}`)},
		{Target: "https://b.example", Status: core.TargetOK, Payload: []byte(`{"title":"b"}`), FromCache: true},
		{Target: "https://c.example", Status: core.TargetRateLimited, RetryAfter: 42 * time.Second, Err: errors.New("quota exhausted")},
		{Target: "https://d.example", Status: core.TargetFailed, Err: errors.New("connection refused")},
		{Target: "https://e.example", Status: core.TargetTimeout, Err: errors.New("deadline exceeded")},
	}

	resp := buildScrapeResponse(results)

	require.Equal(t, 5, resp.Summary.Requested)
	require.Equal(t, 2, resp.Summary.Succeeded)
	require.Equal(t, 1, resp.Summary.CacheHits)
	require.Equal(t, 1, resp.Summary.RateLimited)
	require.Equal(t, 1, resp.Summary.Failed)
	require.Equal(t, 1, resp.Summary.TimedOut)

	require.Equal(t, int64(42), resp.Results[2].RetryAfterSeconds)
	require.Equal(t, "quota exhausted", resp.Results[2].Error)
	require.Empty(t, resp.Results[0].Error)
	require.NotEmpty(t, resp.Results[0].Page)
}

func TestRetryAfterSecondsRoundsUp(t *testing.T) {
	require.Equal(t, int64(0), retryAfterSeconds(0))
	require.Equal(t, int64(1), retryAfterSeconds(200*time.Millisecond))
	require.Equal(t, int64(2), retryAfterSeconds(1500*time.Millisecond))
	require.Equal(t, int64(3), retryAfterSeconds(3*time.Second))
}

func TestEffectiveQueryAddsSiteFilters(t *testing.T) {
	require.Equal(t, "jane doe", effectiveQuery("jane doe", nil))
	require.Equal(t, "jane doe site:github.com", effectiveQuery("jane doe", []string{"github.com"}))
	require.Equal(t, "jane doe (site:github.com OR site:linkedin.com)",
		effectiveQuery("jane doe", []string{"github.com", "linkedin.com"}))
	require.Equal(t, "jane doe", effectiveQuery("jane doe", []string{"  ", ""}))
}
