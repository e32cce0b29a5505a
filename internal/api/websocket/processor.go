package websocket

import (
	"blueprint/internal/api/service"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
)

// MessageProcessor handles WebSocket messages and performs database operations
type MessageProcessor struct {
	flowchartService *service.FlowchartService
	logger           zerolog.Logger
}

// NewMessageProcessor creates a new message processor
func NewMessageProcessor(flowchartService *service.FlowchartService, logger zerolog.Logger) *MessageProcessor {
	return &MessageProcessor{
		flowchartService: flowchartService,
		logger:           logger,
	}
}

// ProcessMessage processes a message and performs necessary database operations
// Returns the updated message to broadcast, or error if processing failed
func (p *MessageProcessor) ProcessMessage(msg *Message) (*Message, error) {
	switch msg.Type {
	case MessageTypeMutate:
		return p.processMutate(msg)
	case MessageTypeValidate:
		return p.processValidate(msg)

	default:
		// Other message types don't require processing (chat, cursor, etc.)
		return msg, nil
	}
}

func (p *MessageProcessor) validateData(msg *Message, out any) error {
	dataBytes, err := json.Marshal(msg.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal message data: %w", err)
	}

	if err := json.Unmarshal(dataBytes, out); err != nil {
		return fmt.Errorf("invalid message data: %w", err)
	}

	return nil
}

// processMutate applies a mutation batch and turns the message into the
// flowchart_updated broadcast everyone in the room receives.
func (p *MessageProcessor) processMutate(msg *Message) (*Message, error) {
	var mutateRequest MutateRequest
	if err := p.validateData(msg, &mutateRequest); err != nil {
		return nil, err
	}

	result, err := p.flowchartService.Mutate(msg.FlowchartID, msg.UserID, mutateRequest.BaseVersion, mutateRequest.Operations)
	if err != nil {
		return nil, err
	}

	p.logger.Info().
		Uint("flowchartId", msg.FlowchartID).
		Uint("userId", msg.UserID).
		Int("version", result.Flowchart.Version).
		Msg("Flowchart mutated via WebSocket")

	updated := *msg
	updated.Type = MessageTypeUpdated
	updated.Data = result
	return &updated, nil
}

func (p *MessageProcessor) processValidate(msg *Message) (*Message, error) {
	result, err := p.flowchartService.Validate(msg.FlowchartID, msg.UserID)
	if err != nil {
		return nil, err
	}

	validated := *msg
	validated.Type = ResponseValidate
	validated.Data = result
	return &validated, nil
}
