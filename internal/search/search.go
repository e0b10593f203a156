// Package search implements the web-search collaborator: effective-query
// construction, timeframe fallback, result filtering, and global pacing of
// outbound calls. The actual search transport is an injected Client.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned by clients when the provider answers 429.
var ErrRateLimited = errors.New("search provider rate limited")

// Client performs one raw search and returns result URLs.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]string, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, query string, maxResults int) ([]string, error)

// Search implements Client.
func (f ClientFunc) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	return f(ctx, query, maxResults)
}

const (
	maxAttempts = 3
	// minimumResults is the threshold below which a timeframe is considered
	// too thin and the fallback ladder continues.
	minimumResults = 3
)

// Service wraps a Client with pacing, retries, and result hygiene.
type Service struct {
	Client Client

	// Pacer spaces outbound calls so concurrent handlers cannot burst the
	// provider; handlers block on it, they do not spin.
	Pacer *rate.Limiter

	// Blacklist lists domains excluded from results, matched exactly or as
	// a parent of the result's host.
	Blacklist []string

	// RetryDelay is the base backoff after a provider 429; it doubles per
	// attempt.
	RetryDelay time.Duration

	Clock func() time.Time
}

// NewService builds a search service pacing calls to one per interval.
func NewService(client Client, paceInterval time.Duration, blacklist []string) *Service {
	if paceInterval <= 0 {
		paceInterval = time.Second
	}
	return &Service{
		Client:     client,
		Pacer:      rate.NewLimiter(rate.Every(paceInterval), 1),
		Blacklist:  blacklist,
		RetryDelay: time.Second,
	}
}

// Search runs the query restricted to a timeframe ("24h", "week", "month",
// "year", or empty). It returns the filtered result URLs and the timeframe
// that actually produced them: a "week" query that comes back too thin
// falls back to "year" and then to no restriction.
func (s *Service) Search(ctx context.Context, query string, maxResults int, timeframe string) ([]string, string, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, "", errors.New("query is required")
	}

	timeframe = strings.ToLower(strings.TrimSpace(timeframe))

	if timeframe == "week" {
		return s.searchWithFallback(ctx, query, maxResults)
	}

	results, err := s.searchOnce(ctx, s.buildQuery(query, timeframe), maxResults)
	if err != nil {
		return nil, "", err
	}
	effective := timeframe
	if effective == "" {
		effective = "none"
	}
	return s.filter(results), effective, nil
}

// searchWithFallback walks week → year → unrestricted until one timeframe
// yields enough usable results, and returns whatever the last rung produced
// otherwise.
func (s *Service) searchWithFallback(ctx context.Context, query string, maxResults int) ([]string, string, error) {
	ladder := []string{"week", "year", ""}

	var filtered []string
	effective := "none"
	for _, tf := range ladder {
		results, err := s.searchOnce(ctx, s.buildQuery(query, tf), maxResults)
		if err != nil {
			if ctx.Err() != nil {
				return nil, "", err
			}
			results = nil
		}
		filtered = s.filter(results)
		if len(filtered) >= minimumResults {
			if tf != "" {
				effective = tf
			}
			return filtered, effective, nil
		}
	}
	return filtered, effective, nil
}

// searchOnce paces the call and retries provider rate limits with a doubling
// delay.
func (s *Service) searchOnce(ctx context.Context, query string, maxResults int) ([]string, error) {
	delay := s.RetryDelay
	if delay <= 0 {
		delay = time.Second
	}

	for attempt := 1; ; attempt++ {
		if s.Pacer != nil {
			if err := s.Pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		results, err := s.Client.Search(ctx, query, maxResults)
		if err == nil {
			return results, nil
		}
		if !errors.Is(err, ErrRateLimited) || attempt >= maxAttempts {
			return nil, fmt.Errorf("search %q: %w", query, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

// buildQuery appends an after: date restriction for the timeframe. Unknown
// timeframes leave the query unmodified.
func (s *Service) buildQuery(query string, timeframe string) string {
	var days int
	switch timeframe {
	case "", "none":
		return query
	case "24h":
		days = 1
	case "week":
		days = 7
	case "month":
		days = 30
	case "year":
		days = 365
	default:
		return query
	}

	cutoff := s.now().AddDate(0, 0, -days)
	return fmt.Sprintf("%s after:%s", query, cutoff.Format("2006-01-02"))
}

// filter drops non-http results, PDFs, and blacklisted domains.
func (s *Service) filter(results []string) []string {
	kept := make([]string, 0, len(results))
	for _, result := range results {
		if !strings.HasPrefix(result, "http") {
			continue
		}
		if strings.HasSuffix(strings.ToLower(result), ".pdf") {
			continue
		}
		if s.blacklisted(result) {
			continue
		}
		kept = append(kept, result)
	}
	return kept
}

// blacklisted reports whether the URL's host matches a blacklisted domain
// exactly or as a subdomain.
func (s *Service) blacklisted(raw string) bool {
	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range s.Blacklist {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}
