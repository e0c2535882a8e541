package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentChunk is one embedded span of document text. Page is the page
// the span starts on; together with Filename it identifies the chunk for
// evidence deduplication.
type DocumentChunk struct {
	Id             uuid.UUID
	DocumentId     uuid.UUID
	Filename       string
	Page           int
	ChunkIndex     int
	Text           string
	EmbeddingValue []float32
	CreatedAt      time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}
