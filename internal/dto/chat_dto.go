package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateSessionRequest struct {
	Title string `json:"title"`
}

type CreateSessionResponse struct {
	Id    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type GetAllSessionsResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type GetChatHistoryResponse struct {
	Id              uuid.UUID           `json:"id"`
	Role            string              `json:"role"`
	Content         string              `json:"content"`
	CreatedAt       time.Time           `json:"created_at"`
	DocumentSources []DocumentSourceDTO `json:"document_sources,omitempty"`
	WebSources      []WebSourceDTO      `json:"web_sources,omitempty"`
}

type DocumentSourceDTO struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Excerpt  string `json:"excerpt"`
}

type WebSourceDTO struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type SendChatRequest struct {
	ChatSessionId uuid.UUID `json:"chat_session_id" validate:"required"`
	Query         string    `json:"query" validate:"required"`
	// Images are base64-encoded payloads attached to the human turn.
	Images           []string `json:"images,omitempty" validate:"max=4"`
	RagEnabled       bool     `json:"rag_enabled"`
	WebEnabled       bool     `json:"web_enabled"`
	SearchCategories []string `json:"search_categories,omitempty" validate:"dive,oneof=general academic social"`
	ModelId          string   `json:"model_id,omitempty"`
}

type SendChatResponse struct {
	ChatSessionId   uuid.UUID           `json:"chat_session_id"`
	AnswerText      string              `json:"answer_text"`
	DocumentSources []DocumentSourceDTO `json:"document_sources,omitempty"`
	WebSources      []WebSourceDTO      `json:"web_sources,omitempty"`
	Complexity      string              `json:"complexity"`
	HasDocuments    bool                `json:"has_documents"`
	CreatedAt       time.Time           `json:"created_at"`
}
