package request

import "encoding/json"

type CreateFlowchartDTO struct {
	Name        string `json:"name" validate:"required,min=1,max=200"`
	Description string `json:"description"`
	Visibility  string `json:"visibility" validate:"omitempty,oneof=private public"`
}

type UpdateFlowchartDTO struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Visibility  *string `json:"visibility" validate:"omitempty,oneof=private public"`
}

// MutateFlowchartDTO carries a batch of raw operations. BaseVersion is the
// version of the document the client mutated from.
type MutateFlowchartDTO struct {
	BaseVersion int               `json:"baseVersion" validate:"required,min=1"`
	Operations  []json.RawMessage `json:"operations" validate:"required,min=1"`
}

type ShareFlowchartDTO struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=editor viewer"`
}

type ChatMessageDTO struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatDTO carries one conversation turn. History is oldest first; when the
// client does not send it, the server falls back to its own stored history.
type ChatDTO struct {
	Message string           `json:"message" validate:"required,min=1"`
	Model   *string          `json:"model"`
	History []ChatMessageDTO `json:"conversationHistory" validate:"omitempty,dive"`
}
