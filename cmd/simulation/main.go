package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Simplified DTOs for the script
type createSessionResponse struct {
	Data struct {
		ID string `json:"id"`
	} `json:"data"`
}

type uploadDocumentRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	Pages    int    `json:"pages"`
}

type sendChatRequest struct {
	ChatSessionID    string   `json:"chat_session_id"`
	Query            string   `json:"query"`
	RagEnabled       bool     `json:"rag_enabled"`
	WebEnabled       bool     `json:"web_enabled"`
	SearchCategories []string `json:"search_categories,omitempty"`
}

type sendChatResponse struct {
	Data struct {
		AnswerText      string `json:"answer_text"`
		Complexity      string `json:"complexity"`
		DocumentSources []struct {
			Filename string `json:"filename"`
			Page     int    `json:"page"`
		} `json:"document_sources"`
		WebSources []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
		} `json:"web_sources"`
	} `json:"data"`
}

func main() {
	header := color.New(color.FgCyan, color.Bold)
	user := color.New(color.FgGreen)
	ai := color.New(color.FgYellow)
	src := color.New(color.FgMagenta)

	header.Println("=== Document Chat Simulation Client ===")

	sessionID, err := createSession()
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	fmt.Printf("Session Created: %s\n", sessionID)

	if err := uploadDocument(); err != nil {
		log.Printf("Upload failed (continuing without documents): %v", err)
	}

	testCases := []sendChatRequest{
		{Query: "What does chapter 2 of the handbook say about onboarding?", RagEnabled: true},
		{Query: "Summarize the vacation policy and what's the latest news on remote work law?", RagEnabled: true, WebEnabled: true, SearchCategories: []string{"general"}},
		{Query: "Thanks, that covers it."},
	}

	for _, tc := range testCases {
		tc.ChatSessionID = sessionID
		user.Printf("\nUSER: %s\n", tc.Query)

		start := time.Now()
		reply, err := sendChat(tc)
		elapsed := time.Since(start)

		if err != nil {
			color.Red("Error: %v", err)
			continue
		}

		ai.Printf("AI (%v, %s): %s\n", elapsed, reply.Data.Complexity, reply.Data.AnswerText)
		for _, s := range reply.Data.DocumentSources {
			src.Printf("  [doc] %s p.%d\n", s.Filename, s.Page)
		}
		for _, s := range reply.Data.WebSources {
			src.Printf("  [web] %s (%s)\n", s.Title, s.URL)
		}

		// Small delay to allow async logs to flush on server side (optional)
		time.Sleep(1 * time.Second)
	}
}

func createSession() (string, error) {
	resp, err := http.Post(baseURL+"/chat/v1/session", "application/json", nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("API Error %d: %s", resp.StatusCode, string(body))
	}

	var res createSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	return res.Data.ID, nil
}

func uploadDocument() error {
	payload := uploadDocumentRequest{
		Filename: "employee-handbook.txt",
		Content:  "Chapter 1. Welcome.\nChapter 2. Onboarding: every new hire is paired with a buddy for the first month.\nChapter 3. Vacation policy: 25 days per year, carry-over up to 5 days.",
		Pages:    3,
	}
	jsonBytes, _ := json.Marshal(payload)

	resp, err := http.Post(baseURL+"/document/v1/upload", "application/json", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API Error %d: %s", resp.StatusCode, string(body))
	}

	// Indexing is asynchronous; give the consumer a moment.
	time.Sleep(2 * time.Second)
	return nil
}

func sendChat(payload sendChatRequest) (*sendChatResponse, error) {
	jsonBytes, _ := json.Marshal(payload)

	resp, err := http.Post(baseURL+"/chat/v1/send", "application/json", bytes.NewBuffer(jsonBytes))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API Error %d: %s", resp.StatusCode, string(body))
	}

	var res sendChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}
