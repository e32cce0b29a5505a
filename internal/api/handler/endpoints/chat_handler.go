package endpoints

import (
	"blueprint"
	"blueprint/internal/api/handler/middleware"
	"blueprint/internal/api/handler/request"
	"blueprint/internal/api/handler/response"
	"blueprint/internal/api/service"
	"blueprint/pkg"
	"net/http"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type chatHandler struct {
	chatService *service.ChatService
	logger      zerolog.Logger
	config      blueprint.AppConfig
}

func newChatHandler() *chatHandler {
	return &chatHandler{
		chatService: service.NewChatService(),
		logger:      blueprint.Logger,
		config:      blueprint.GetConfig(),
	}
}

func ChatHandler(router *graceful.Graceful) {
	h := newChatHandler()

	chat := router.Group("/api/v1/flowcharts/:id/chat")
	chat.Use(middleware.AuthMiddleware(h.config))
	{
		chat.POST("", h.chat)
		chat.DELETE("", h.clearHistory)
	}
}

func (slf *chatHandler) chat(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	var dto request.ChatDTO
	if err := pkg.ParseAndValidate(c, &dto); err != nil {
		slf.logger.Error().Err(err).Msg("Error parsing and validating chat DTO")
		c.JSON(http.StatusBadRequest, response.APIError{Message: err.Error()})
		return
	}

	result, err := slf.chatService.Chat(flowchartID, userID, dto)
	if err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (slf *chatHandler) clearHistory(c *gin.Context) {
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}
	flowchartID, ok := parseFlowchartID(c)
	if !ok {
		return
	}

	if err := slf.chatService.ClearHistory(flowchartID, userID); err != nil {
		c.JSON(flowchartErrorStatus(err), response.APIError{Message: err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}
