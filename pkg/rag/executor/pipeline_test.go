package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/chunkstore"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/rag/complexity"
	"docchat-be/pkg/rag/compose"
	"docchat-be/pkg/rag/decompose"
	"docchat-be/pkg/rag/evidence"
	"docchat-be/pkg/ragerr"
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

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	// Decomposer merge hints always keep the heuristic split here.
	return "KEEP", nil
}

type fakeChunks struct {
	chunks []chunkstore.Chunk
}

func (f *fakeChunks) Index(ctx context.Context, documentId uuid.UUID, filename, content string, pages int) error {
	return nil
}

func (f *fakeChunks) Query(ctx context.Context, text string, k int, minScore float64) ([]chunkstore.Chunk, error) {
	return f.chunks, nil
}

func (f *fakeChunks) Remove(ctx context.Context, documentId uuid.UUID) error {
	return nil
}

type fakeWeb struct {
	results []websearch.Result
	calls   int
}

func (f *fakeWeb) Search(ctx context.Context, query string, category store.Category) ([]websearch.Result, error) {
	f.calls++
	return f.results, nil
}

func newTestPipeline(provider llm.LLMProvider, chunks chunkstore.Store, web websearch.Searcher) *Pipeline {
	log := nopLogger{}
	return NewPipeline(
		decompose.NewDecomposer(provider, time.Second, log),
		evidence.NewAggregator(chunks, web, log, 4, 0.35, 5, time.Second),
		compose.NewComposer(provider, log, time.Second),
		complexity.NewDetector(0),
		log,
	)
}

func TestExecuteMixedRetrievalTurn(t *testing.T) {
	provider := &fakeLLM{reply: "The handbook pairs new hires with a buddy [1]. New rules took effect [2]."}
	chunks := &fakeChunks{chunks: []chunkstore.Chunk{
		{Text: "buddy system", Filename: "handbook.txt", Page: 2, Score: 0.9},
	}}
	web := &fakeWeb{results: []websearch.Result{
		{Title: "Remote work law", URL: "https://example.com/law", Snippet: "new rules", Score: 0.8},
	}}
	p := newTestPipeline(provider, chunks, web)

	result, err := p.Execute(context.Background(), &Request{
		Query:        "What does chapter 2 say about onboarding and what's the latest news on remote work?",
		RagEnabled:   true,
		WebEnabled:   true,
		HasDocuments: true,
		Categories:   []store.Category{store.CategoryGeneral},
	})
	assert.NoError(t, err)

	assert.Equal(t, store.ComplexityStructured, result.Complexity)
	assert.Len(t, result.DocumentSources, 1)
	assert.Equal(t, "handbook.txt", result.DocumentSources[0].Filename)
	assert.Len(t, result.WebSources, 1)
	assert.Equal(t, "https://example.com/law", result.WebSources[0].URL)
}

func TestExecutePlainLLMTurn(t *testing.T) {
	provider := &fakeLLM{reply: "Hello there."}
	web := &fakeWeb{}
	p := newTestPipeline(provider, &fakeChunks{}, web)

	result, err := p.Execute(context.Background(), &Request{Query: "Say hi"})
	assert.NoError(t, err)

	assert.Equal(t, "Hello there.", result.Answer)
	assert.Equal(t, store.ComplexitySimple, result.Complexity)
	assert.Empty(t, result.DocumentSources)
	assert.Empty(t, result.WebSources)
	assert.Zero(t, web.calls)
}

func TestExecuteRoutingErrorAbortsTurn(t *testing.T) {
	p := newTestPipeline(&fakeLLM{reply: "unused"}, &fakeChunks{}, &fakeWeb{})

	_, err := p.Execute(context.Background(), &Request{
		Query:      "anything",
		WebEnabled: true,
		// Web enabled but the category set is empty.
	})
	var cfgErr *ragerr.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestExecuteGenerationFailureAbortsTurn(t *testing.T) {
	genErr := ragerr.Generation(ragerr.GenTransient, errors.New("connection reset"))
	p := newTestPipeline(&fakeLLM{err: genErr}, &fakeChunks{}, &fakeWeb{})

	result, err := p.Execute(context.Background(), &Request{Query: "anything"})
	assert.Nil(t, result)
	assert.Equal(t, genErr, err)
}
