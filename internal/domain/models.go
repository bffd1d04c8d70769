// Package domain defines the core domain models for the PDF chat service.
package domain

import "time"

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single message in a session's conversation history.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session binds one uploaded document's text to a conversation history.
// DocumentText is written once at session creation and never mutated.
type Session struct {
	SessionID    string    `json:"session_id"`
	FileName     string    `json:"file_name"`
	DocumentText string    `json:"-"`
	History      []Message `json:"history"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// UploadResult is the JSON envelope returned by the upload endpoint.
type UploadResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	FileName  string `json:"file_name,omitempty"`
}

// AskRequest is the JSON body of the ask endpoint.
type AskRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// AskResponse is the JSON envelope returned by the ask endpoint.
type AskResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
	History []Message `json:"history,omitempty"`
}

// ClearRequest is the JSON body of the clear-session endpoint.
type ClearRequest struct {
	SessionID string `json:"session_id"`
}
