package entity

import (
	"time"

	"github.com/google/uuid"
)

// Document indexing lifecycle.
const (
	DocumentStatusPending = "pending"
	DocumentStatusIndexed = "indexed"
	DocumentStatusFailed  = "failed"
)

type Document struct {
	Id        uuid.UUID
	Filename  string
	Content   string // extracted text, as delivered by the ingestion collaborator
	Status    string
	Pages     int
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
