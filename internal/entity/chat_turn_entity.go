package entity

import (
	"time"

	"github.com/google/uuid"
)

// DocumentSource is one cited document excerpt attached to an assistant turn.
type DocumentSource struct {
	Filename string `json:"filename"`
	Page     int    `json:"page"`
	Excerpt  string `json:"excerpt"`
}

// WebSource is one cited web result attached to an assistant turn.
type WebSource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ChatTurn is one immutable conversation turn. Images are raw payloads
// carried only on human turns (at most four).
type ChatTurn struct {
	Id              uuid.UUID
	ChatSessionId   uuid.UUID
	Role            string // "human" | "assistant"
	Content         string
	Images          [][]byte
	DocumentSources []DocumentSource
	WebSources      []WebSource
	CreatedAt       time.Time
}
