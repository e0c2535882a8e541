package evidence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/chunkstore"
	"docchat-be/pkg/store"
	"docchat-be/pkg/websearch"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

var _ logger.ILogger = nopLogger{}

type fakeChunks struct {
	byQuery map[string][]chunkstore.Chunk
	err     error
}

func (f *fakeChunks) Index(ctx context.Context, documentId uuid.UUID, filename, content string, pages int) error {
	return nil
}

func (f *fakeChunks) Query(ctx context.Context, text string, k int, minScore float64) ([]chunkstore.Chunk, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[text], nil
}

func (f *fakeChunks) Remove(ctx context.Context, documentId uuid.UUID) error {
	return nil
}

type fakeWeb struct {
	byQuery map[string][]websearch.Result
	err     error
}

func (f *fakeWeb) Search(ctx context.Context, query string, category store.Category) ([]websearch.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuery[query], nil
}

// categoryWeb answers per category, for sub-queries routed to more than one.
type categoryWeb struct {
	byCategory map[store.Category][]websearch.Result
}

func (f *categoryWeb) Search(ctx context.Context, query string, category store.Category) ([]websearch.Result, error) {
	return f.byCategory[category], nil
}

func newTestAggregator(chunks chunkstore.Store, web websearch.Searcher, webMax int) *Aggregator {
	return NewAggregator(chunks, web, nopLogger{}, 4, 0.35, webMax, time.Second)
}

func docSelection() []store.ToolSelection {
	return []store.ToolSelection{{Document: true}}
}

func TestAggregateDocumentEvidence(t *testing.T) {
	chunks := &fakeChunks{byQuery: map[string][]chunkstore.Chunk{
		"onboarding": {
			{Text: "buddy system", Filename: "handbook.txt", Page: 2, Score: 0.9},
			{Text: "first month", Filename: "handbook.txt", Page: 3, Score: 0.7},
		},
	}}
	a := newTestAggregator(chunks, &fakeWeb{}, 5)

	bundle := a.Aggregate(context.Background(), []store.SubQuery{{Text: "onboarding"}}, docSelection())

	assert.Len(t, bundle.Flattened, 2)
	assert.Equal(t, 0.9, bundle.Flattened[0].Score)
	assert.Equal(t, store.KindDocument, bundle.Flattened[0].Kind)
}

func TestAggregateDedupeKeepsFirstSeen(t *testing.T) {
	// Both sub-queries retrieve handbook.txt page 2; the second copy
	// scores higher and carries a fuller excerpt.
	chunks := &fakeChunks{byQuery: map[string][]chunkstore.Chunk{
		"a": {{Text: "buddy system", Filename: "handbook.txt", Page: 2, Score: 0.6}},
		"b": {{Text: "buddy system, week one checklist", Filename: "handbook.txt", Page: 2, Score: 0.8}},
	}}
	a := newTestAggregator(chunks, &fakeWeb{}, 5)

	bundle := a.Aggregate(context.Background(),
		[]store.SubQuery{{Text: "a"}, {Text: "b"}},
		[]store.ToolSelection{{Document: true}, {Document: true}},
	)

	assert.Len(t, bundle.Flattened, 1)
	kept := bundle.Flattened[0]
	assert.Equal(t, 0, kept.SubQuery, "first sub-query keeps the association")
	assert.Equal(t, 0.8, kept.Score, "higher-scored copy wins")
	assert.Equal(t, "buddy system, week one checklist", kept.Excerpt, "winner's payload is kept")
	assert.Len(t, bundle.BySubQuery[0], 1)
	assert.Empty(t, bundle.BySubQuery[1])
}

func TestAggregateWebDedupeByNormalizedURL(t *testing.T) {
	web := &fakeWeb{byQuery: map[string][]websearch.Result{
		"q": {
			{Title: "Remote work law", URL: "https://example.com/a", Score: 0.9},
			{Title: "Remote work law (dup)", URL: "https://example.com/a", Score: 0.5},
		},
	}}
	a := newTestAggregator(&fakeChunks{}, web, 5)

	sq := store.SubQuery{Text: "q", Categories: []store.Category{store.CategoryGeneral}}
	bundle := a.Aggregate(context.Background(), []store.SubQuery{sq}, []store.ToolSelection{{Web: true}})

	assert.Len(t, bundle.Flattened, 1)
	assert.Equal(t, "Remote work law", bundle.Flattened[0].Title)
}

func TestAggregateCapsWebResultsPerSubQuery(t *testing.T) {
	web := &fakeWeb{byQuery: map[string][]websearch.Result{
		"q": {
			{Title: "1", URL: "https://a.example", Score: 0.9},
			{Title: "2", URL: "https://b.example", Score: 0.8},
			{Title: "3", URL: "https://c.example", Score: 0.7},
		},
	}}
	a := newTestAggregator(&fakeChunks{}, web, 2)

	sq := store.SubQuery{Text: "q", Categories: []store.Category{store.CategoryGeneral}}
	bundle := a.Aggregate(context.Background(), []store.SubQuery{sq}, []store.ToolSelection{{Web: true}})

	assert.Len(t, bundle.Flattened, 2)
	assert.Equal(t, "1", bundle.Flattened[0].Title)
	assert.Equal(t, "2", bundle.Flattened[1].Title)
}

func TestAggregateDedupeKeepsHigherScoredPayload(t *testing.T) {
	// Both categories return the same URL but with different titles and
	// snippets; the higher-scored copy's payload wins while the item
	// stays in its first-seen slot.
	web := &categoryWeb{byCategory: map[store.Category][]websearch.Result{
		store.CategoryGeneral: {
			{Title: "Overview", URL: "https://example.com/a", Snippet: "short", Score: 0.5},
		},
		store.CategoryAcademic: {
			{Title: "Full study", URL: "https://example.com/a", Snippet: "detailed", Score: 0.9},
		},
	}}
	a := newTestAggregator(&fakeChunks{}, web, 5)

	sq := store.SubQuery{Text: "q", Categories: []store.Category{store.CategoryGeneral, store.CategoryAcademic}}
	bundle := a.Aggregate(context.Background(), []store.SubQuery{sq}, []store.ToolSelection{{Web: true}})

	assert.Len(t, bundle.Flattened, 1)
	kept := bundle.Flattened[0]
	assert.Equal(t, "Full study", kept.Title)
	assert.Equal(t, "detailed", kept.Snippet)
	assert.Equal(t, 0.9, kept.Score)
	assert.Equal(t, 0, kept.SubQuery)
}

func TestAggregateCrossCategoryOverlapFillsCap(t *testing.T) {
	// Two categories overlap on two URLs, leaving five unique results.
	// Duplicates must be dropped before the per-sub-query cap so the
	// bundle still fills up to webResultMax.
	web := &categoryWeb{byCategory: map[store.Category][]websearch.Result{
		store.CategoryGeneral: {
			{Title: "g1", URL: "https://a.example", Score: 0.95},
			{Title: "g2", URL: "https://b.example", Score: 0.90},
			{Title: "g3", URL: "https://c.example", Score: 0.85},
		},
		store.CategoryAcademic: {
			{Title: "a1", URL: "https://a.example", Score: 0.80},
			{Title: "a2", URL: "https://b.example", Score: 0.75},
			{Title: "a3", URL: "https://d.example", Score: 0.70},
			{Title: "a4", URL: "https://e.example", Score: 0.65},
		},
	}}
	a := newTestAggregator(&fakeChunks{}, web, 3)

	sq := store.SubQuery{Text: "q", Categories: []store.Category{store.CategoryGeneral, store.CategoryAcademic}}
	bundle := a.Aggregate(context.Background(), []store.SubQuery{sq}, []store.ToolSelection{{Web: true}})

	assert.Len(t, bundle.Flattened, 3)
	urls := make(map[string]bool)
	for _, item := range bundle.Flattened {
		urls[item.URL] = true
	}
	assert.Len(t, urls, 3, "capped slice holds distinct URLs")
	assert.Equal(t, "g1", bundle.Flattened[0].Title)
	assert.Equal(t, "g2", bundle.Flattened[1].Title)
	assert.Equal(t, "g3", bundle.Flattened[2].Title)
}

func TestAggregateAbsorbsAdapterFailures(t *testing.T) {
	chunks := &fakeChunks{err: errors.New("db offline")}
	web := &fakeWeb{byQuery: map[string][]websearch.Result{
		"q": {{Title: "hit", URL: "https://a.example", Score: 0.9}},
	}}
	a := newTestAggregator(chunks, web, 5)

	sq := store.SubQuery{Text: "q", Categories: []store.Category{store.CategoryGeneral}}
	bundle := a.Aggregate(context.Background(), []store.SubQuery{sq}, []store.ToolSelection{{Document: true, Web: true}})

	// Document retrieval failed; the web slice still serves the turn.
	assert.Len(t, bundle.Flattened, 1)
	assert.Equal(t, store.KindWeb, bundle.Flattened[0].Kind)
}

func TestAggregateTotalFailureYieldsEmptyBundle(t *testing.T) {
	chunks := &fakeChunks{err: errors.New("db offline")}
	web := &fakeWeb{err: errors.New("network down")}
	a := newTestAggregator(chunks, web, 5)

	sq := store.SubQuery{Text: "q", Categories: []store.Category{store.CategoryGeneral}}
	bundle := a.Aggregate(context.Background(), []store.SubQuery{sq}, []store.ToolSelection{{Document: true, Web: true}})

	assert.True(t, bundle.Empty())
}

func TestAggregateDeterministicOrdering(t *testing.T) {
	chunks := &fakeChunks{byQuery: map[string][]chunkstore.Chunk{
		"a": {{Text: "x", Filename: "f.txt", Page: 1, Score: 0.5}},
		"b": {{Text: "y", Filename: "f.txt", Page: 2, Score: 0.5}},
	}}
	a := newTestAggregator(chunks, &fakeWeb{}, 5)

	subQueries := []store.SubQuery{{Text: "a"}, {Text: "b"}}
	routing := []store.ToolSelection{{Document: true}, {Document: true}}

	first := a.Aggregate(context.Background(), subQueries, routing)
	for i := 0; i < 10; i++ {
		again := a.Aggregate(context.Background(), subQueries, routing)
		assert.Equal(t, first.Flattened, again.Flattened)
	}
	// Equal scores break ties by sub-query index.
	assert.Equal(t, 0, first.Flattened[0].SubQuery)
	assert.Equal(t, 1, first.Flattened[1].SubQuery)
}
