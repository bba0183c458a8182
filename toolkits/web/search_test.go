package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTool_FormatsResults(t *testing.T) {
	var mu sync.Mutex
	var gotQuery, gotCount, gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotQuery = r.URL.Query().Get("q")
		gotCount = r.URL.Query().Get("count")
		gotToken = r.Header.Get("X-Subscription-Token")
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"web": map[string]any{
				"results": []map[string]any{
					{"title": "Go", "url": "https://go.dev", "description": "The Go programming language"},
					{"title": "Go docs", "url": "https://go.dev/doc"},
				},
			},
		})
	}))
	defer srv.Close()

	tool, err := NewSearchTool(WithAPIKey("k"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), map[string]any{"query": "go", "count": 2})
	require.NoError(t, err)

	want := "Results for: go\n" +
		"\n1. Go\n   https://go.dev" +
		"\n   The Go programming language" +
		"\n2. Go docs\n   https://go.dev/doc"
	assert.Equal(t, want, out)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "go", gotQuery)
	assert.Equal(t, "2", gotCount)
	assert.Equal(t, "k", gotToken)
}

func TestSearchTool_MissingKey(t *testing.T) {
	t.Setenv("BRAVE_API_KEY", "")

	tool, err := NewSearchTool()
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "Error: BRAVE_API_KEY not configured", out)
}

func TestSearchTool_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"web": map[string]any{"results": []any{}}})
	}))
	defer srv.Close()

	tool, err := NewSearchTool(WithAPIKey("k"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), map[string]any{"query": "nothing here"})
	require.NoError(t, err)
	assert.Equal(t, "No results for: nothing here", out)
}

func TestSearchTool_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream broke", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tool, err := NewSearchTool(WithAPIKey("k"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	out, err := tool.Execute(context.Background(), map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "Error: HTTP 500: 500 Internal Server Error", out)
}

// The handler re-clamps count on its own because Execute can be reached
// without registry validation.
func TestSearchTool_ClampsCount(t *testing.T) {
	var mu sync.Mutex
	var gotCount string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotCount = r.URL.Query().Get("count")
		mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]any{"web": map[string]any{"results": []any{}}})
	}))
	defer srv.Close()

	tool, err := NewSearchTool(WithAPIKey("k"), WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	count := func() string {
		mu.Lock()
		defer mu.Unlock()
		return gotCount
	}

	_, err = tool.Execute(context.Background(), map[string]any{"query": "go"})
	require.NoError(t, err)
	assert.Equal(t, "5", count(), "absent count falls back to the default")

	_, err = tool.Execute(context.Background(), map[string]any{"query": "go", "count": 99})
	require.NoError(t, err)
	assert.Equal(t, "10", count(), "oversized count is clamped to the API window")
}
