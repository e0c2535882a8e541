package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format.
// Images carries raw payloads for multimodal user messages; providers
// that cannot handle images ignore them.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
	Images  [][]byte
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// LLMProvider defines the contract for any LLM backend. Failures are
// returned as *ragerr.GenerationError so callers can distinguish
// rate-limit vs malformed-input vs transient-network.
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
