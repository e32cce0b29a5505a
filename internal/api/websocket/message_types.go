package websocket

import (
	"time"
)

// Message is the base message structure
// Data field uses 'any' to allow different types through channels
type Message struct {
	Type        MessageType `json:"type"`
	FlowchartID uint        `json:"flowchartId,omitempty"`
	UserID      uint        `json:"userId"`
	Username    string      `json:"username"`
	Timestamp   time.Time   `json:"timestamp"`
	Data        any         `json:"data"`
}

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Document operations
	MessageTypeMutate   MessageType = "flowchart_mutate"
	MessageTypeUpdated  MessageType = "flowchart_updated"
	MessageTypeValidate MessageType = "flowchart_validate"
	ResponseValidate    MessageType = "response_flowchart_validate"

	// User interactions
	MessageTypeCursorMove MessageType = "cursor_move"
	MessageTypeChat       MessageType = "chat"
	MessageTypeUserJoin   MessageType = "user_join"
	MessageTypeUserLeave  MessageType = "user_leave"

	// System messages
	MessageTypeError MessageType = "error"
	MessageTypePing  MessageType = "ping"
	MessageTypePong  MessageType = "pong"
)
