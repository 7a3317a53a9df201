package models

// WebSocket message types
const (
	WSTypeMessage = "message"
	WSTypeTyping  = "typing"
	WSTypeState   = "state"
	WSTypeFocus   = "focus"
)

// Client event types accepted on the widget socket
const (
	EventToggle       = "toggle"
	EventOpen         = "open"
	EventClose        = "close"
	EventOutsideClick = "outside_click"
	EventSubmit       = "submit"
)

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// ClientEvent is what the browser sends over the widget socket.
type ClientEvent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

type MessageEvent struct {
	Text  string `json:"text"`
	Class string `json:"class"` // "user" | "bot" | "bot error"
}

type TypingEvent struct {
	Visible bool `json:"visible"`
}

type StateEvent struct {
	Open  bool   `json:"open"`
	State string `json:"state"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
