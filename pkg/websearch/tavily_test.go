package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"docchat-be/pkg/ragerr"
	"docchat-be/pkg/store"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*TavilyClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewTavilyClient("test-key", 5, 2*time.Second)
	client.baseURL = server.URL
	return client, server
}

func TestSearchParsesResults(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-key", req.ApiKey)
		assert.Equal(t, 5, req.MaxResults)
		assert.Empty(t, req.IncludeDomains)

		json.NewEncoder(w).Encode(tavilyResponse{Results: []Result{
			{Title: "Hit", URL: "https://Example.com/a/", Snippet: "text", Score: 0.9},
		}})
	})

	results, err := client.Search(context.Background(), "remote work", store.CategoryGeneral)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "https://example.com/a", results[0].URL, "URLs come back normalized")
}

func TestSearchAcademicScopesDomains(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "advanced", req.SearchDepth)
		assert.Contains(t, req.IncludeDomains, "arxiv.org")

		json.NewEncoder(w).Encode(tavilyResponse{})
	})

	_, err := client.Search(context.Background(), "transformer models", store.CategoryAcademic)
	assert.NoError(t, err)
}

func TestSearchTruncatesLongQueries(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.LessOrEqual(t, len(req.Query), maxQueryLen+3)
		assert.True(t, strings.HasSuffix(req.Query, "..."))

		json.NewEncoder(w).Encode(tavilyResponse{})
	})

	long := strings.Repeat("q", 600)
	_, err := client.Search(context.Background(), long, store.CategoryGeneral)
	assert.NoError(t, err)
}

func TestSearchTruncatesOnRuneBoundary(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req tavilyRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.True(t, utf8.ValidString(req.Query), "truncation must not split a rune")
		assert.Equal(t, maxQueryLen+3, utf8.RuneCountInString(req.Query))
		assert.True(t, strings.HasSuffix(req.Query, "..."))

		json.NewEncoder(w).Encode(tavilyResponse{})
	})

	long := strings.Repeat("日", 600)
	_, err := client.Search(context.Background(), long, store.CategoryGeneral)
	assert.NoError(t, err)
}

func TestSearchRetriesTransientOnce(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(tavilyResponse{Results: []Result{
			{Title: "Recovered", URL: "https://example.com/a", Score: 0.9},
		}})
	})

	results, err := client.Search(context.Background(), "flaky", store.CategoryGeneral)
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSearchPermanentFailureNotRetried(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := client.Search(context.Background(), "bad", store.CategoryGeneral)
	var aerr *ragerr.AdapterError
	assert.True(t, errors.As(err, &aerr))
	assert.False(t, aerr.Transient)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestSearchCachesIdenticalQueries(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		json.NewEncoder(w).Encode(tavilyResponse{Results: []Result{
			{Title: "Hit", URL: "https://example.com/a", Score: 0.9},
		}})
	})

	for i := 0; i < 3; i++ {
		_, err := client.Search(context.Background(), "same query", store.CategoryGeneral)
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	// A different category is a different cache entry.
	_, err := client.Search(context.Background(), "same query", store.CategorySocial)
	assert.NoError(t, err)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestSearchRejectsUnknownCategory(t *testing.T) {
	client := NewTavilyClient("k", 5, time.Second)

	_, err := client.Search(context.Background(), "q", store.Category("sports"))
	var cfgErr *ragerr.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestSearchFallbackScoresPreserveRank(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// Tavily sometimes omits scores entirely.
		json.NewEncoder(w).Encode(tavilyResponse{Results: []Result{
			{Title: "first", URL: "https://a.example"},
			{Title: "second", URL: "https://b.example"},
		}})
	})

	results, err := client.Search(context.Background(), "scoreless", store.CategoryGeneral)
	assert.NoError(t, err)
	assert.Greater(t, results[0].Score, results[1].Score)
}
