package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"docchat-be/pkg/ragerr"
	"docchat-be/pkg/store"
)

// Tavily caps queries at roughly 400 characters; we truncate before that.
const maxQueryLen = 390

// Result is one ranked web hit. Score is ordinal within a single category.
type Result struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Snippet string  `json:"content"`
	Score   float64 `json:"score"`
}

// Searcher is the web search contract the aggregator depends on.
type Searcher interface {
	Search(ctx context.Context, query string, category store.Category) ([]Result, error)
}

// TavilyClient wraps the Tavily search API with per-category domain
// scoping, a short-lived result cache and a single transient retry.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	cache      *cache.Cache
}

var _ Searcher = &TavilyClient{}

func NewTavilyClient(apiKey string, maxResults int, timeout time.Duration) *TavilyClient {
	if maxResults <= 0 {
		maxResults = 5
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TavilyClient{
		apiKey:     apiKey,
		baseURL:    "https://api.tavily.com/search",
		maxResults: maxResults,
		client:     &http.Client{Timeout: timeout},
		// Identical sub-queries within one request hit the cache instead
		// of the API twice.
		cache: cache.New(2*time.Minute, 5*time.Minute),
	}
}

var academicDomains = []string{
	"scholar.google.com", "arxiv.org", "researchgate.net",
	"sciencedirect.com", "ieee.org", "ncbi.nlm.nih.gov",
	"academia.edu", "ssrn.com", "nature.com", "science.org",
}

var socialDomains = []string{
	"twitter.com", "reddit.com", "linkedin.com",
	"quora.com", "medium.com", "substack.com",
	"discord.com", "facebook.com", "instagram.com",
}

type tavilyRequest struct {
	ApiKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilyResponse struct {
	Results []Result `json:"results"`
}

// Search executes one category-scoped search. Failures come back as
// *ragerr.AdapterError; the caller decides whether to absorb them.
func (t *TavilyClient) Search(ctx context.Context, query string, category store.Category) ([]Result, error) {
	if !store.ValidCategory(category) {
		return nil, ragerr.Configuration("unknown search category %q", category)
	}

	if runes := []rune(query); len(runes) > maxQueryLen {
		query = string(runes[:maxQueryLen]) + "..."
	}

	cacheKey := string(category) + "|" + query
	if hit, found := t.cache.Get(cacheKey); found {
		return hit.([]Result), nil
	}

	reqBody := tavilyRequest{
		ApiKey:     t.apiKey,
		Query:      query,
		MaxResults: t.maxResults,
	}
	switch category {
	case store.CategoryAcademic:
		reqBody.SearchDepth = "advanced"
		reqBody.IncludeDomains = academicDomains
	case store.CategorySocial:
		reqBody.IncludeDomains = socialDomains
	}

	results, err := t.doSearch(ctx, reqBody, category)
	if err != nil {
		var aerr *ragerr.AdapterError
		if isTransient(err, &aerr) {
			// One retry with a short backoff, then give up.
			select {
			case <-time.After(500 * time.Millisecond):
			case <-ctx.Done():
				return nil, ragerr.Adapter("websearch."+string(category), true, ctx.Err())
			}
			results, err = t.doSearch(ctx, reqBody, category)
		}
		if err != nil {
			return nil, err
		}
	}

	t.cache.Set(cacheKey, results, cache.DefaultExpiration)
	return results, nil
}

func (t *TavilyClient) doSearch(ctx context.Context, reqBody tavilyRequest, category store.Category) ([]Result, error) {
	op := "websearch." + string(category)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, ragerr.Adapter(op, false, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", t.baseURL, bytes.NewBuffer(payload))
	if err != nil {
		return nil, ragerr.Adapter(op, false, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, ragerr.Adapter(op, true, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, ragerr.Adapter(op, true, err)
	}

	if resp.StatusCode != http.StatusOK {
		transient := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, ragerr.Adapter(op, transient, fmt.Errorf("tavily status %d: %s", resp.StatusCode, string(body)))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, ragerr.Adapter(op, false, err)
	}

	results := parsed.Results
	for i := range results {
		results[i].URL = NormalizeURL(results[i].URL)
		// Tavily scores can be absent; fall back to rank order so
		// downstream sorting stays stable.
		if results[i].Score == 0 {
			results[i].Score = 1.0 - float64(i)*0.01
		}
	}
	return results, nil
}

func isTransient(err error, target **ragerr.AdapterError) bool {
	if ae, ok := err.(*ragerr.AdapterError); ok && ae.Transient {
		*target = ae
		return true
	}
	return false
}
