package ws

import (
	"encoding/json"
)

// MessageType represents the different kinds of messages our system can handle
type MessageType string

const (
	MessageTypeMove      MessageType = "move"
	MessageTypeSelect    MessageType = "select"
	MessageTypeClick     MessageType = "click"
	MessageTypePromote   MessageType = "promote"
	MessageTypeGameState MessageType = "gameState"
	MessageTypeEvents    MessageType = "events"
	MessageTypeError     MessageType = "error"
)

// Message represents a WebSocket message in our system
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// SquarePayload carries a single square for select and click messages.
type SquarePayload struct {
	Square string `json:"square"`
}

// PromotePayload carries the piece chosen for a pending promotion.
type PromotePayload struct {
	Piece string `json:"piece"`
}

// ErrorPayload wraps an error text so the payload stays valid JSON.
type ErrorPayload struct {
	Error string `json:"error"`
}
