package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
<title>  Release Notes  </title>
<meta name="description" content="What changed in this release.">
<script>var tracking = true;</script>
</head>
<body>
<h1>Release Notes</h1>
<p>Bug fixes and   performance improvements.</p>
</body>
</html>`

func TestPageFetcherExtractsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		require.NotContains(t, r.Header.Get("User-Agent"), "Go-http-client")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewPageFetcher(5 * time.Second)
	payload, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	var page Page
	require.NoError(t, json.Unmarshal(payload, &page))
	require.Equal(t, srv.URL, page.URL)
	require.Equal(t, http.StatusOK, page.Status)
	require.Equal(t, "Release Notes", page.Title)
	require.Equal(t, "What changed in this release.", page.MetaDescription)
	require.Equal(t, "Release Notes Bug fixes and performance improvements.", page.FullText)
	require.NotContains(t, page.FullText, "tracking")
	require.Equal(t, page.FullText, page.TextPreview)
}

func TestPageFetcherTruncatesPreview(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><body><p>" + long + "</p></body></html>"))
	}))
	defer srv.Close()

	payload, err := NewPageFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	var page Page
	require.NoError(t, json.Unmarshal(payload, &page))
	require.Len(t, page.TextPreview, previewLength)
	require.Greater(t, len(page.FullText), previewLength)
}

func TestPageFetcherRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	_, err := NewPageFetcher(5*time.Second).Fetch(context.Background(), srv.URL)
	require.ErrorContains(t, err, "unexpected status 410")
}

func TestPageFetcherHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewPageFetcher(5*time.Second).Fetch(ctx, srv.URL)
	require.Error(t, err)
}
