package chunkstore

import (
	"context"

	"github.com/google/uuid"
)

// Chunk is one retrieved span of document text with its provenance.
type Chunk struct {
	Text     string
	Filename string
	Page     int
	Score    float64 // cosine similarity, higher = more relevant
}

// Store wraps the vector index. Index splits, embeds and stores a
// document's text; Query returns the nearest chunks above a similarity
// threshold; Remove is visible to every Query issued after it returns.
type Store interface {
	Index(ctx context.Context, documentId uuid.UUID, filename, content string, pages int) error
	Query(ctx context.Context, text string, k int, minScore float64) ([]Chunk, error)
	Remove(ctx context.Context, documentId uuid.UUID) error
}
