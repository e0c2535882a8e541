package dto

import (
	"time"

	"github.com/google/uuid"
)

type UploadDocumentRequest struct {
	Filename string `json:"filename" validate:"required"`
	Content  string `json:"content" validate:"required"`
	Pages    int    `json:"pages"`
}

type UploadDocumentResponse struct {
	Id       uuid.UUID `json:"id"`
	Filename string    `json:"filename"`
	Status   string    `json:"status"`
	// Skipped is true when a document with the same filename already
	// exists and the upload was ignored.
	Skipped bool `json:"skipped"`
}

// PublishIndexDocumentMessage is the payload of the index-document event
// consumed by the ingestion worker.
type PublishIndexDocumentMessage struct {
	DocumentId uuid.UUID `json:"document_id"`
}

type GetAllDocumentsResponse struct {
	Documents    []DocumentSummary `json:"documents"`
	HasDocuments bool              `json:"has_documents"`
}

type DocumentSummary struct {
	Id        uuid.UUID `json:"id"`
	Filename  string    `json:"filename"`
	Status    string    `json:"status"`
	Pages     int       `json:"pages"`
	CreatedAt time.Time `json:"created_at"`
}
