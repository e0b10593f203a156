package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Browser user agents rotated across outbound requests. Some targets reject
// the default Go client string outright.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.1 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Safari/537.36",
}

const previewLength = 200

// Page is the structured content extracted from one URL.
type Page struct {
	URL             string `json:"url"`
	Status          int    `json:"status"`
	Title           string `json:"title,omitempty"`
	MetaDescription string `json:"meta_description,omitempty"`
	TextPreview     string `json:"text_preview,omitempty"`
	FullText        string `json:"full_text,omitempty"`
}

// PageFetcher fetches and parses a single page.
type PageFetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

// NewPageFetcher builds a fetcher with the given per-fetch timeout.
func NewPageFetcher(timeout time.Duration) *PageFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PageFetcher{
		Client:  &http.Client{Timeout: timeout},
		Timeout: timeout,
	}
}

// Fetch implements Fetcher. The payload is the JSON-encoded Page. A non-200
// response or transport error is the target's own failure, reported to the
// orchestrator and isolated there.
func (f *PageFetcher) Fetch(ctx context.Context, target string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", target, err)
	}
	req.Header.Set("User-Agent", userAgents[rand.Intn(len(userAgents))])
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", target, resp.StatusCode)
	}

	page, err := parsePage(target, resp)
	if err != nil {
		return nil, err
	}
	return json.Marshal(page)
}

func (f *PageFetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func parsePage(target string, resp *http.Response) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", target, err)
	}

	page := &Page{
		URL:    target,
		Status: resp.StatusCode,
		Title:  strings.TrimSpace(doc.Find("title").First().Text()),
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		page.MetaDescription = strings.TrimSpace(desc)
	}

	doc.Find("script, style, noscript").Remove()
	fullText := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if fullText != "" {
		page.FullText = fullText
		if len(fullText) > previewLength {
			page.TextPreview = fullText[:previewLength]
		} else {
			page.TextPreview = fullText
		}
	}

	return page, nil
}
