package decompose

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"docchat-be/internal/pkg/logger"
	"docchat-be/pkg/llm"
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
	reply string
	err   error
	calls int
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	f.calls++
	return f.reply, f.err
}

func newTestDecomposer(provider llm.LLMProvider) *Decomposer {
	return NewDecomposer(provider, time.Second, nopLogger{})
}

func TestDecomposeSingleNeed(t *testing.T) {
	d := newTestDecomposer(nil)

	got := d.Decompose(context.Background(), "What is the vacation policy?", nil)
	assert.Len(t, got, 1)
	assert.Equal(t, "What is the vacation policy?", got[0].Text)
}

func TestDecomposeNeverEmpty(t *testing.T) {
	d := newTestDecomposer(nil)

	got := d.Decompose(context.Background(), "   ", nil)
	assert.Len(t, got, 1)
}

func TestDecomposeConjunctionSplit(t *testing.T) {
	d := newTestDecomposer(nil)

	got := d.Decompose(context.Background(),
		"What does chapter 2 say about onboarding and what's the latest news on remote work?", nil)

	assert.Len(t, got, 2)
	assert.Contains(t, got[0].Text, "chapter 2")
	assert.Contains(t, got[1].Text, "latest news")

	// Wording drives the tool hints.
	assert.Equal(t, []store.Tool{store.ToolDocument}, got[0].Hints)
	assert.Equal(t, []store.Tool{store.ToolWeb}, got[1].Hints)
}

func TestDecomposeQuestionSplit(t *testing.T) {
	d := newTestDecomposer(nil)

	got := d.Decompose(context.Background(), "What is onboarding? How long is probation?", nil)
	assert.Len(t, got, 2)
}

func TestDecomposeNumberedList(t *testing.T) {
	d := newTestDecomposer(nil)

	got := d.Decompose(context.Background(),
		"1. Explain the onboarding process\n2. Explain the vacation policy", nil)
	assert.Len(t, got, 2)
	assert.Equal(t, "Explain the onboarding process", got[0].Text)
	assert.Equal(t, "Explain the vacation policy", got[1].Text)
}

func TestDecomposeNoSplitOnPlainConjunction(t *testing.T) {
	d := newTestDecomposer(nil)

	// "and" joining noun phrases is not a topic boundary.
	got := d.Decompose(context.Background(), "Compare cats and dogs as office pets", nil)
	assert.Len(t, got, 1)
}

func TestDecomposeMergeHint(t *testing.T) {
	provider := &fakeLLM{reply: "MERGE"}
	d := newTestDecomposer(provider)

	got := d.Decompose(context.Background(), "What is onboarding? How does onboarding end?", nil)
	assert.Len(t, got, 1)
	assert.Positive(t, provider.calls)
}

func TestDecomposeMergeHintFailsOpen(t *testing.T) {
	provider := &fakeLLM{err: errors.New("model offline")}
	d := newTestDecomposer(provider)

	got := d.Decompose(context.Background(), "What is onboarding? How long is probation?", nil)
	assert.Len(t, got, 2)
}

func TestDecomposeDeterministic(t *testing.T) {
	d := newTestDecomposer(nil)
	query := "What is onboarding? How long is probation?"

	first := d.Decompose(context.Background(), query, nil)
	second := d.Decompose(context.Background(), query, nil)
	assert.Equal(t, first, second)
}
