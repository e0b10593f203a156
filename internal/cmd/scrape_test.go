package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/webrecon/webrecon/internal/core"
)

func TestScrapeResultsJSON(t *testing.T) {
	results := []core.TargetResult{
		{Target: "https://a.example", Status: core.TargetOK, Payload: []byte(`{"title":"a"}`), FromCache: true},
		{Target: "https://b.example", Status: core.TargetRateLimited, RetryAfter: 30 * time.Second, Err: errors.New("quota exhausted")},
	}

	out := scrapeResultsJSON(results)
	require.Len(t, out, 2)

	require.Equal(t, "https://a.example", out[0]["url"])
	require.Equal(t, true, out[0]["from_cache"])
	require.Contains(t, out[0], "page")
	require.NotContains(t, out[0], "error")

	require.Equal(t, "rate_limited", out[1]["status"])
	require.Equal(t, "quota exhausted", out[1]["error"])
	require.Equal(t, "30s", out[1]["retry_after"])
	require.NotContains(t, out[1], "page")
}
