package ragerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorsMatchWithAs(t *testing.T) {
	var cfgErr *ConfigurationError
	assert.True(t, errors.As(Configuration("bad input %d", 7), &cfgErr))
	assert.Contains(t, cfgErr.Error(), "bad input 7")

	var notFound *NotFoundError
	assert.True(t, errors.As(NotFound("chat session", "abc"), &notFound))
	assert.Equal(t, "chat session", notFound.Resource)

	var genErr *GenerationError
	assert.True(t, errors.As(Generation(GenRateLimit, errors.New("429")), &genErr))
	assert.Equal(t, GenRateLimit, genErr.Kind)
}

func TestAdapterErrorWrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Adapter("websearch.general", true, cause)

	var aerr *AdapterError
	assert.True(t, errors.As(err, &aerr))
	assert.True(t, aerr.Transient)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "websearch.general")
}

func TestGenerationErrorWrapsCause(t *testing.T) {
	cause := errors.New("model overloaded")
	err := Generation(GenTransient, cause)
	assert.True(t, errors.Is(err, cause))

	wrapped := fmt.Errorf("turn failed: %w", err)
	var genErr *GenerationError
	assert.True(t, errors.As(wrapped, &genErr))
	assert.Equal(t, GenTransient, genErr.Kind)
}
