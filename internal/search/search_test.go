package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestService(client Client) *Service {
	svc := NewService(client, time.Second, nil)
	// Unpaced and with nanosecond retry backoff so tests stay fast.
	svc.Pacer = rate.NewLimiter(rate.Inf, 1)
	svc.RetryDelay = time.Nanosecond
	svc.Clock = func() time.Time {
		return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestSearchBuildsTimeframeQuery(t *testing.T) {
	var captured string
	svc := newTestService(ClientFunc(func(_ context.Context, query string, _ int) ([]string, error) {
		captured = query
		return []string{"https://a.example/one"}, nil
	}))

	_, effective, err := svc.Search(context.Background(), "jane doe", 10, "month")
	require.NoError(t, err)
	require.Equal(t, "month", effective)
	require.Equal(t, "jane doe after:2026-02-13", captured)
}

func TestSearchNoTimeframeLeavesQueryAlone(t *testing.T) {
	var captured string
	svc := newTestService(ClientFunc(func(_ context.Context, query string, _ int) ([]string, error) {
		captured = query
		return nil, nil
	}))

	_, effective, err := svc.Search(context.Background(), "jane doe", 10, "")
	require.NoError(t, err)
	require.Equal(t, "none", effective)
	require.Equal(t, "jane doe", captured)
}

func TestSearchWeekFallsBackToYear(t *testing.T) {
	var queries []string
	svc := newTestService(ClientFunc(func(_ context.Context, query string, _ int) ([]string, error) {
		queries = append(queries, query)
		// Week yields too few usable results; year yields enough.
		if len(queries) == 1 {
			return []string{"https://a.example/one"}, nil
		}
		return []string{
			"https://a.example/one",
			"https://b.example/two",
			"https://c.example/three",
		}, nil
	}))

	results, effective, err := svc.Search(context.Background(), "jane doe", 10, "week")
	require.NoError(t, err)
	require.Equal(t, "year", effective)
	require.Len(t, results, 3)
	require.Len(t, queries, 2)
	require.Contains(t, queries[0], "after:2026-03-08")
	require.Contains(t, queries[1], "after:2025-03-15")
}

func TestSearchWeekFallbackExhaustsLadder(t *testing.T) {
	var calls int
	svc := newTestService(ClientFunc(func(_ context.Context, query string, _ int) ([]string, error) {
		calls++
		return []string{"https://a.example/one"}, nil
	}))

	results, effective, err := svc.Search(context.Background(), "jane doe", 10, "week")
	require.NoError(t, err)
	require.Equal(t, "none", effective)
	require.Len(t, results, 1)
	require.Equal(t, 3, calls)
}

func TestSearchFiltersResults(t *testing.T) {
	svc := newTestService(ClientFunc(func(_ context.Context, _ string, _ int) ([]string, error) {
		return []string{
			"https://keep.example/profile",
			"ftp://skip.example/file",
			"https://skip.example/resume.PDF",
			"https://blocked.example/page",
			"https://sub.blocked.example/page",
			"https://notblocked.example/page",
		}, nil
	}))
	svc.Blacklist = []string{"blocked.example"}

	results, _, err := svc.Search(context.Background(), "jane doe", 10, "")
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://keep.example/profile",
		"https://notblocked.example/page",
	}, results)
}

func TestSearchRetriesRateLimit(t *testing.T) {
	var calls int
	svc := newTestService(ClientFunc(func(_ context.Context, _ string, _ int) ([]string, error) {
		calls++
		if calls < 3 {
			return nil, ErrRateLimited
		}
		return []string{"https://a.example/one"}, nil
	}))

	results, _, err := svc.Search(context.Background(), "jane doe", 10, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, 3, calls)
}

func TestSearchRateLimitExhaustsRetries(t *testing.T) {
	var calls int
	svc := newTestService(ClientFunc(func(_ context.Context, _ string, _ int) ([]string, error) {
		calls++
		return nil, ErrRateLimited
	}))

	_, _, err := svc.Search(context.Background(), "jane doe", 10, "")
	require.ErrorIs(t, err, ErrRateLimited)
	require.Equal(t, 3, calls)
}

func TestSearchEmptyQueryRejected(t *testing.T) {
	svc := newTestService(ClientFunc(func(_ context.Context, _ string, _ int) ([]string, error) {
		return nil, fmt.Errorf("should not be called")
	}))

	_, _, err := svc.Search(context.Background(), "   ", 10, "")
	require.Error(t, err)
}
