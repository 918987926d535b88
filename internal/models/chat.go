package models

import "fmt"

// ConversationTurn is one completed user/assistant exchange. The reasoning loop
// receives prior turns in chronological order and must not mutate them.
type ConversationTurn struct {
	UserMessage      string `json:"user_message"`
	AssistantMessage string `json:"assistant_message"`
}

// ChatRequest is the body of a chat API call. SessionID is optional; a new
// session id is generated when it is absent.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate ensures the chat request carries a non-empty message.
func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return fmt.Errorf("message cannot be empty")
	}
	return nil
}

// ChatResponse is the chat API reply.
type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

// SheetEntry is a registered spreadsheet reference stored via the sheets API.
type SheetEntry struct {
	SheetID string `json:"sheet_id"`
	Title   string `json:"title"`
	SsID    string `json:"ssId"`
}
