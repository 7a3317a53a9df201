package models

import "github.com/google/uuid"

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// TranscriptEntry is a single turn of a widget conversation.
type TranscriptEntry struct {
	Role string `json:"role"` // "user" or "model"
	Text string `json:"text"`
}

// ChatRequest is the payload sent to the widget messages endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse describes how a submitted message settled.
type ChatResponse struct {
	Reply     *TranscriptEntry `json:"reply,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorKind string           `json:"error_kind,omitempty"` // "configuration" | "upstream" | "empty_response"
	State     string           `json:"state"`
}

type TranscriptResponse struct {
	Entries []TranscriptEntry `json:"entries"`
	Count   int               `json:"count"`
}

type SessionResponse struct {
	ID        uuid.UUID `json:"id"`
	Token     string    `json:"token,omitempty"`
	ExpiresIn int       `json:"expires_in,omitempty"`
	State     string    `json:"state"`
	InFlight  bool      `json:"in_flight"`
	Entries   int       `json:"entries"`
}
