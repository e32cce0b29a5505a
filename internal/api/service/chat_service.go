package service

import (
	"blueprint"
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/models"
	"blueprint/internal/graph"
	"blueprint/pkg"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const chatHistoryTTL = 24 * time.Hour

func chatHistoryKey(flowchartID uint, userID uint) string {
	return fmt.Sprintf("chat:flowchart:%d:user:%d", flowchartID, userID)
}

// ChatService turns free-form instructions into committed mutations. The
// model only ever proposes operations; everything it emits goes through the
// same decoding and application path as a direct mutation request.
type ChatService struct {
	flowchartService *FlowchartService
	config           blueprint.AppConfig
	logger           zerolog.Logger
}

func NewChatService() *ChatService {
	return &ChatService{
		flowchartService: NewFlowchartService(),
		config:           blueprint.GetConfig(),
		logger:           blueprint.Logger,
	}
}

func (slf *ChatService) Chat(flowchartID uint, userID uint, dto request.ChatDTO) (*response.ChatResponseDTO, error) {
	if _, err := slf.flowchartService.requireRole(flowchartID, userID, models.Editor); err != nil {
		return nil, err
	}

	flowchart, err := slf.flowchartService.flowchartRepo.FindByID(flowchartID)
	if err != nil {
		return nil, slf.flowchartService.wrapNotFound(err, flowchartID)
	}

	docJSON, err := json.Marshal(flowchart.Data.Document)
	if err != nil {
		slf.logger.Error().Err(err).Uint("flowchartId", flowchartID).Msg("Error serializing document")
		return nil, err
	}

	// L'historique envoyé par le client prime sur celui du serveur
	history := slf.historyFromDTO(dto)
	if history == nil {
		history = slf.loadHistory(flowchartID, userID)
	}

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(slf.config.OllamaConfig.TimeoutSeconds)*time.Second)
	defer cancel()

	plan, err := pkg.GuessPlan(ctx, dto.Model, dto.Message, string(docJSON), history)
	if err != nil {
		slf.logger.Error().Err(err).Uint("flowchartId", flowchartID).Msg("Planner call failed")
		return nil, err
	}

	chatResponse := &response.ChatResponseDTO{
		Explanation: plan.Explanation,
		Applied:     []graph.Op{},
		Flowchart:   slf.flowchartService.flowchartMapper.EntityToResponse(flowchart),
	}

	if len(plan.Operations) > 0 {
		result, err := slf.flowchartService.Mutate(flowchartID, userID, flowchart.Version, plan.Operations)
		if err != nil {
			// A rejected plan is a normal turn outcome: the caller gets the
			// explanation and the untouched document and can simply rephrase.
			slf.logger.Warn().Err(err).
				Uint("flowchartId", flowchartID).
				Int("plannedOps", len(plan.Operations)).
				Msg("Planner proposed a plan that could not be applied")
			chatResponse.Error = err.Error()
		} else {
			chatResponse.Applied = result.Applied
			chatResponse.Report = result.Report
			chatResponse.Flowchart = result.Flowchart
		}
	}

	slf.appendHistory(flowchartID, userID, history, dto.Message, plan.Explanation)

	slf.logger.Info().
		Uint("flowchartId", flowchartID).
		Uint("userId", userID).
		Int("appliedOps", len(chatResponse.Applied)).
		Msg("Chat turn completed")

	return chatResponse, nil
}

// ClearHistory drops the stored conversation for this user and flowchart.
func (slf *ChatService) ClearHistory(flowchartID uint, userID uint) error {
	if _, err := slf.flowchartService.requireRole(flowchartID, userID, models.Viewer); err != nil {
		return err
	}
	return pkg.RedisDelete(chatHistoryKey(flowchartID, userID))
}

func (slf *ChatService) historyFromDTO(dto request.ChatDTO) []pkg.PlannerMessage {
	if len(dto.History) == 0 {
		return nil
	}
	history := make([]pkg.PlannerMessage, 0, len(dto.History))
	for _, m := range dto.History {
		history = append(history, pkg.PlannerMessage{Role: m.Role, Content: m.Content})
	}
	return history
}

func (slf *ChatService) loadHistory(flowchartID uint, userID uint) []pkg.PlannerMessage {
	var history []pkg.PlannerMessage
	err := pkg.RedisGet(chatHistoryKey(flowchartID, userID), &history)
	if err != nil && !pkg.IsRedisNil(err) {
		slf.logger.Warn().Err(err).Uint("flowchartId", flowchartID).Msg("Chat history read failed")
	}
	return history
}

func (slf *ChatService) appendHistory(flowchartID uint, userID uint, history []pkg.PlannerMessage, userInput string, explanation string) {
	history = append(history,
		pkg.PlannerMessage{Role: "user", Content: userInput},
		pkg.PlannerMessage{Role: "assistant", Content: explanation},
	)

	// On garde deux fois la limite envoyée au modèle, le reste ne sera jamais lu
	limit := slf.config.OllamaConfig.MessageLimit * 2
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}

	if err := pkg.RedisSet(chatHistoryKey(flowchartID, userID), history, chatHistoryTTL); err != nil {
		slf.logger.Warn().Err(err).Uint("flowchartId", flowchartID).Msg("Chat history write failed")
	}
}
