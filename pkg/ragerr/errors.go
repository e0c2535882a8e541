package ragerr

import "fmt"

// ConfigurationError signals invalid caller input, e.g. web search enabled
// with an empty category set. Never retried.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Msg
}

// AdapterError wraps a chunk store or web search failure. Transient errors
// may be retried once; the aggregator absorbs whatever still fails.
type AdapterError struct {
	Op        string // e.g. "websearch.general", "chunkstore.query"
	Transient bool
	Err       error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter error (%s): %v", e.Op, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// GenKind distinguishes LLM failure classes so callers can decide
// retry vs fail-fast.
type GenKind string

const (
	GenRateLimit GenKind = "rate_limit"
	GenMalformed GenKind = "malformed_input"
	GenTransient GenKind = "transient"
)

// GenerationError aborts the chat turn: nothing is persisted when the
// LLM call fails.
type GenerationError struct {
	Kind GenKind
	Err  error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error (%s): %v", e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// NotFoundError covers operations on missing or deleted sessions and
// documents. Maps to 404 at the HTTP boundary.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func Configuration(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

func Adapter(op string, transient bool, err error) error {
	return &AdapterError{Op: op, Transient: transient, Err: err}
}

func Generation(kind GenKind, err error) error {
	return &GenerationError{Kind: kind, Err: err}
}

func NotFound(resource, key string) error {
	return &NotFoundError{Resource: resource, Key: key}
}
