package compose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/ragerr"
	"docchat-be/pkg/store"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

var _ logger.ILogger = nopLogger{}

type fakeLLM struct {
	reply    string
	err      error
	messages []llm.Message
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.messages = history
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.reply, f.err
}

func testBundle() *store.ContextBundle {
	return store.NewContextBundle([]store.EvidenceItem{
		{Kind: store.KindDocument, SubQuery: 0, Score: 0.9, Filename: "handbook.txt", Page: 2, Excerpt: "buddy system"},
		{Kind: store.KindWeb, SubQuery: 1, Score: 0.8, Title: "Remote work law", URL: "https://example.com/law", Snippet: "new rules"},
	})
}

func testSubQueries() []store.SubQuery {
	return []store.SubQuery{{Text: "onboarding"}, {Text: "remote work law"}}
}

func TestComposeCitedSourcesOnly(t *testing.T) {
	provider := &fakeLLM{reply: "Onboarding uses a buddy system [1]."}
	c := NewComposer(provider, nopLogger{}, time.Second)

	result, err := c.Compose(context.Background(), "q", nil, testBundle(), testSubQueries(), store.ComplexitySimple, nil, "")
	assert.NoError(t, err)

	// The web item was fetched but never cited, so it is not a source.
	assert.Len(t, result.DocumentSources, 1)
	assert.Equal(t, "handbook.txt", result.DocumentSources[0].Filename)
	assert.Empty(t, result.WebSources)
}

func TestComposeStripsInvalidCitations(t *testing.T) {
	provider := &fakeLLM{reply: "Grounded [1], hallucinated [7], grounded again [2]."}
	c := NewComposer(provider, nopLogger{}, time.Second)

	result, err := c.Compose(context.Background(), "q", nil, testBundle(), testSubQueries(), store.ComplexitySimple, nil, "")
	assert.NoError(t, err)

	assert.Equal(t, "Grounded [1], hallucinated , grounded again [2].", result.Text)
	assert.Len(t, result.DocumentSources, 1)
	assert.Len(t, result.WebSources, 1)
}

func TestComposeRepeatedCitationListedOnce(t *testing.T) {
	provider := &fakeLLM{reply: "First [1], and once more [1]."}
	c := NewComposer(provider, nopLogger{}, time.Second)

	result, err := c.Compose(context.Background(), "q", nil, testBundle(), testSubQueries(), store.ComplexitySimple, nil, "")
	assert.NoError(t, err)
	assert.Len(t, result.DocumentSources, 1)
}

func TestComposeGenerationErrorPropagates(t *testing.T) {
	genErr := ragerr.Generation(ragerr.GenRateLimit, errors.New("429"))
	provider := &fakeLLM{err: genErr}
	c := NewComposer(provider, nopLogger{}, time.Second)

	result, err := c.Compose(context.Background(), "q", nil, testBundle(), testSubQueries(), store.ComplexitySimple, nil, "")
	assert.Nil(t, result)
	assert.Equal(t, genErr, err)
}

func TestComposeEmptyBundleSkipsEvidenceBlock(t *testing.T) {
	provider := &fakeLLM{reply: "Plain answer."}
	c := NewComposer(provider, nopLogger{}, time.Second)

	empty := store.NewContextBundle(nil)
	result, err := c.Compose(context.Background(), "q", nil, empty, []store.SubQuery{{Text: "q"}}, store.ComplexitySimple, nil, "")
	assert.NoError(t, err)
	assert.Equal(t, "Plain answer.", result.Text)
	assert.Empty(t, result.DocumentSources)
	assert.Empty(t, result.WebSources)

	assert.NotEmpty(t, provider.messages)
	assert.Equal(t, "system", provider.messages[0].Role)
	assert.NotContains(t, provider.messages[0].Content, "<evidence>")
}

func TestComposePromptShape(t *testing.T) {
	provider := &fakeLLM{reply: "ok"}
	c := NewComposer(provider, nopLogger{}, time.Second)

	_, err := c.Compose(context.Background(), "q", nil, testBundle(), testSubQueries(), store.ComplexityStructured, nil, "")
	assert.NoError(t, err)

	system := provider.messages[0].Content
	assert.Contains(t, system, "<evidence>")
	assert.Contains(t, system, "Sub-topic 1: onboarding")
	assert.Contains(t, system, "Sub-topic 2: remote work law")
	assert.Contains(t, system, "[1] handbook.txt (page 2)")
	assert.Contains(t, system, "[2] Remote work law")

	// Structured answers get one section per sub-topic.
	assert.Contains(t, system, "- onboarding")
	assert.Contains(t, system, "- remote work law")
}
