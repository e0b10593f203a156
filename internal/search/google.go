package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultGoogleTimeout = 15 * time.Second

// GoogleClient queries Google's HTML results page and extracts result links.
type GoogleClient struct {
	HTTPClient *http.Client
	UserAgent  string

	// BaseURL overrides the search endpoint, for tests.
	BaseURL string
}

// NewGoogleClient builds a client with a dedicated HTTP timeout.
func NewGoogleClient() *GoogleClient {
	return &GoogleClient{
		HTTPClient: &http.Client{Timeout: defaultGoogleTimeout},
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
	}
}

// Search implements Client.
func (c *GoogleClient) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if maxResults <= 0 {
		maxResults = 10
	}

	base := c.BaseURL
	if base == "" {
		base = "https://www.google.com/search"
	}
	endpoint := fmt.Sprintf("%s?q=%s&num=%d", base, url.QueryEscape(query), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultGoogleTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse search results: %w", err)
	}

	return extractResultLinks(doc, maxResults), nil
}

// extractResultLinks pulls outbound result URLs from the results page. Google
// wraps organic links as /url?q=<target>; direct http anchors are kept as-is.
func extractResultLinks(doc *goquery.Document, maxResults int) []string {
	seen := make(map[string]struct{})
	var links []string

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		target := resolveResultLink(href)
		if target == "" {
			return true
		}
		if _, dup := seen[target]; dup {
			return true
		}
		seen[target] = struct{}{}
		links = append(links, target)
		return len(links) < maxResults
	})

	return links
}

func resolveResultLink(href string) string {
	if strings.HasPrefix(href, "/url?") {
		parsed, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = parsed.Query().Get("q")
	}
	if !strings.HasPrefix(href, "http") {
		return ""
	}
	if strings.Contains(href, "google.com") {
		return ""
	}
	return href
}
