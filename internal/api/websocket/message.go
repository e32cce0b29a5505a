package websocket

import (
	"encoding/json"
	errors2 "errors"
	"time"
)

// MutateRequest is the payload of a flowchart_mutate message: a batch of raw
// operations based on a specific document version.
type MutateRequest struct {
	BaseVersion int               `json:"baseVersion"`
	Operations  []json.RawMessage `json:"operations"`
}

// CursorPosition is relayed as-is to the other editors in the room.
type CursorPosition struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// UserInfo represents user information in the room
type UserInfo struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Color    string `json:"color"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Error         error  `json:"error"`
	CustomMessage string `json:"customMessage"`
}

// NewErrorMessage creates a new error message
func NewErrorMessage(flowchartID uint, userID uint, username string, errorText string, errors ...error) Message {
	return Message{
		Type:        MessageTypeError,
		FlowchartID: flowchartID,
		UserID:      userID,
		Username:    username,
		Timestamp:   time.Now(),
		Data: ErrorMessage{
			Error:         errors2.Join(errors...),
			CustomMessage: errorText,
		},
	}
}

// NewUserJoinMessage creates a new user join message
func NewUserJoinMessage(flowchartID uint, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:        MessageTypeUserJoin,
		FlowchartID: flowchartID,
		UserID:      userID,
		Username:    username,
		Timestamp:   time.Now(),
		Data:        userInfo,
	}
}

// NewUserLeaveMessage creates a new user leave message
func NewUserLeaveMessage(flowchartID uint, userID uint, username string, userInfo UserInfo) Message {
	return Message{
		Type:        MessageTypeUserLeave,
		FlowchartID: flowchartID,
		UserID:      userID,
		Username:    username,
		Timestamp:   time.Now(),
		Data:        userInfo,
	}
}
