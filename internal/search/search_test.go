package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilyClient_Search(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/search", r.URL.Path)

		var req tavilyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acme integration experience", req.Query)
		assert.Equal(t, 3, req.MaxResults)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "Acme", "url": "https://acme.example", "content": "Acme integrates systems"},
				{"title": "Case study", "url": "https://example.org/cs", "content": "deployment at scale"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewTavilyClient(Config{BaseURL: srv.URL, APIKey: "test-key", Timeout: time.Second})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "acme integration experience", 3)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "https://acme.example", results[0].URL)
	assert.Equal(t, "Acme integrates systems", results[0].Snippet)
}

func TestTavilyClient_ZeroResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	client, err := NewTavilyClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "nothing to find", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTavilyClient_ProviderFault(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, err := NewTavilyClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	_, err = client.Search(context.Background(), "query", 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSerpAPIClient_Search(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "google", r.URL.Query().Get("engine"))
		assert.Equal(t, "acme support services", r.URL.Query().Get("q"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"organic_results": []map[string]string{
				{"title": "Acme support", "link": "https://acme.example/support", "snippet": "24/7 helpdesk"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewSerpAPIClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "acme support services", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "https://acme.example/support", results[0].URL)
}

func TestNew_UnknownProvider(t *testing.T) {
	t.Parallel()

	_, err := New(Config{Provider: "askjeeves", APIKey: "k"})
	require.Error(t, err)
}

func TestSearch_CapsResults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"title": "1", "url": "https://a", "content": "a"},
				{"title": "2", "url": "https://b", "content": "b"},
				{"title": "3", "url": "https://c", "content": "c"},
			},
		})
	}))
	defer srv.Close()

	client, err := NewTavilyClient(Config{BaseURL: srv.URL, APIKey: "test-key"})
	require.NoError(t, err)

	results, err := client.Search(context.Background(), "q", 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}
