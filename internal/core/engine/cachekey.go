package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// Cache keys are deterministic functions of the normalized request, so two
// requests with the same effective parameters always land on the same entry.
// Unordered inputs (site filters) are sorted before key construction.

// SearchKey derives the cache key for a search request.
func SearchKey(query string, sites []string, timeframe string) string {
	normalized := make([]string, 0, len(sites))
	for _, site := range sites {
		site = strings.ToLower(strings.TrimSpace(site))
		if site != "" {
			normalized = append(normalized, site)
		}
	}
	sort.Strings(normalized)

	parts := []string{
		normalizeText(query),
		strings.Join(normalized, ","),
		strings.ToLower(strings.TrimSpace(timeframe)),
	}
	return "cache:search:" + digest(strings.Join(parts, "|"))
}

// PageKey derives the cache key for one scraped page. The query participates
// because extraction is scored for relevance against it.
func PageKey(target string, query string) string {
	return "cache:page:" + digest(normalizeURL(target)+"|"+normalizeText(query))
}

// CandidatesKey derives the cache key for the expensive candidate-search
// category, which carries the long TTL.
func CandidatesKey(query string, location string) string {
	return "cache:candidates:" + digest(normalizeText(query)+"|"+normalizeText(location))
}

// normalizeText lowercases, trims, and collapses internal whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// normalizeURL canonicalizes scheme and host casing, drops fragments, and
// trims a trailing slash so trivially-different spellings share an entry.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return strings.TrimSuffix(strings.ToLower(raw), "/")
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)
	parsed.Fragment = ""
	return strings.TrimSuffix(parsed.String(), "/")
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
