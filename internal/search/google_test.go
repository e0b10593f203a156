package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoogleClientExtractsRedirectLinks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "jane doe", r.URL.Query().Get("q"))
		w.Write([]byte(`<html><body>
			<a href="/url?q=https://a.example/one&amp;sa=U">One</a>
			<a href="https://b.example/two">Two</a>
			<a href="https://a.example/one">Duplicate</a>
			<a href="/search?q=related">Internal</a>
			<a href="https://maps.google.com/place">Google property</a>
		</body></html>`))
	}))
	defer srv.Close()

	client := NewGoogleClient()
	client.BaseURL = srv.URL

	links, err := client.Search(context.Background(), "jane doe", 10)
	require.NoError(t, err)
	require.Equal(t, []string{"https://a.example/one", "https://b.example/two"}, links)
}

func TestGoogleClientHonorsMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><body>
			<a href="https://a.example/1">1</a>
			<a href="https://a.example/2">2</a>
			<a href="https://a.example/3">3</a>
		</body></html>`))
	}))
	defer srv.Close()

	client := NewGoogleClient()
	client.BaseURL = srv.URL

	links, err := client.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	require.Len(t, links, 2)
}

func TestGoogleClientMapsTooManyRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewGoogleClient()
	client.BaseURL = srv.URL

	_, err := client.Search(context.Background(), "q", 10)
	require.ErrorIs(t, err, ErrRateLimited)
}
