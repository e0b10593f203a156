package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSearchKeyNormalizesSiteOrder(t *testing.T) {
	a := SearchKey("golang jobs", []string{"b.com", "a.com"}, "week")
	b := SearchKey("golang jobs", []string{"a.com", "b.com"}, "week")
	require.Equal(t, a, b)
}

func TestSearchKeyNormalizesQueryText(t *testing.T) {
	a := SearchKey("  Golang   Jobs ", nil, "WEEK")
	b := SearchKey("golang jobs", nil, "week")
	require.Equal(t, a, b)
}

func TestSearchKeyDistinguishesParameters(t *testing.T) {
	base := SearchKey("golang jobs", []string{"a.com"}, "week")
	require.NotEqual(t, base, SearchKey("golang jobs", []string{"a.com"}, "month"))
	require.NotEqual(t, base, SearchKey("golang jobs", []string{"b.com"}, "week"))
	require.NotEqual(t, base, SearchKey("rust jobs", []string{"a.com"}, "week"))
}

func TestPageKeyNormalizesURL(t *testing.T) {
	a := PageKey("HTTPS://Example.com/Post/", "golang")
	b := PageKey("https://example.com/Post", "golang")
	require.Equal(t, a, b)

	// Path casing is significant; host casing is not.
	require.NotEqual(t, a, PageKey("https://example.com/post", "golang"))
	// The relevance query participates in the key.
	require.NotEqual(t, a, PageKey("https://example.com/Post", "rust"))
}

func TestCandidatesKey(t *testing.T) {
	a := CandidatesKey("Backend Engineer", "Berlin")
	b := CandidatesKey("backend  engineer", "berlin")
	require.Equal(t, a, b)
	require.NotEqual(t, a, CandidatesKey("backend engineer", "munich"))
}
