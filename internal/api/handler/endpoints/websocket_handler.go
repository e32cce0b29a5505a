package endpoints

import (
	"blueprint"
	"blueprint/internal/api/handler/middleware"
	"blueprint/internal/api/handler/response"
	websocket2 "blueprint/internal/api/websocket"
	"blueprint/pkg"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, you should validate the origin
		return true
	},
}

type websocketHandler struct {
	hub       *websocket2.Hub
	processor *websocket2.MessageProcessor
	logger    zerolog.Logger
	config    blueprint.AppConfig
}

func newWebSocketHandler(hub *websocket2.Hub, processor *websocket2.MessageProcessor) *websocketHandler {
	return &websocketHandler{
		hub:       hub,
		processor: processor,
		logger:    blueprint.Logger,
		config:    blueprint.GetConfig(),
	}
}

// WebSocketHandler sets up WebSocket routes
func WebSocketHandler(router *graceful.Graceful, hub *websocket2.Hub, processor *websocket2.MessageProcessor) {
	h := newWebSocketHandler(hub, processor)

	// WebSocket endpoint - requires authentication
	wsRoutes := router.Group("/api/v1/ws")
	wsRoutes.Use(middleware.AuthMiddleware(h.config))
	{
		wsRoutes.GET("/flowcharts/:flowchartId", h.handleWebSocket)
		wsRoutes.GET("/flowcharts/:flowchartId/users", h.getActiveUsers)
	}

	wsRoutes.GET("/stats", h.getRoomStats)
}

// handleWebSocket handles WebSocket connections for a specific flowchart
func (slf *websocketHandler) handleWebSocket(c *gin.Context) {
	flowchartID, err := strconv.ParseUint(c.Param("flowchartId"), 10, 32)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Invalid flowchart ID")
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid flowchart ID"})
		return
	}

	// Get user info from auth middleware
	userID, ok := pkg.GetUserID(c)
	if !ok {
		return
	}

	username, exists := c.Get("username")
	if !exists {
		username = fmt.Sprintf("User%d", userID)
	}

	// Upgrade HTTP connection to WebSocket
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Failed to upgrade to WebSocket")
		return
	}

	// Create unique client ID
	clientID := uuid.New().String()

	// Create new client with processor
	client := websocket2.NewClient(
		clientID,
		userID,
		username.(string),
		uint(flowchartID),
		slf.hub,
		conn,
		slf.processor,
		slf.logger,
	)

	// Register client
	slf.hub.Register <- client

	slf.logger.Info().
		Str("clientId", clientID).
		Uint("userId", userID).
		Uint("flowchartId", uint(flowchartID)).
		Msg("WebSocket connection established")

	// Start client goroutines
	go client.WritePump()
	go client.ReadPump()
}

// getActiveUsers returns the list of active users in a room
func (slf *websocketHandler) getActiveUsers(c *gin.Context) {
	flowchartID, err := strconv.ParseUint(c.Param("flowchartId"), 10, 32)
	if err != nil {
		slf.logger.Error().Err(err).Msg("Invalid flowchart ID")
		c.JSON(http.StatusBadRequest, response.APIError{Message: "Invalid flowchart ID"})
		return
	}

	users := slf.hub.GetActiveUsersInRoom(uint(flowchartID))
	c.JSON(http.StatusOK, gin.H{
		"flowchartId": flowchartID,
		"users":       users,
	})
}

// getRoomStats returns statistics about all active rooms
func (slf *websocketHandler) getRoomStats(c *gin.Context) {
	stats := slf.hub.GetRoomStats()
	c.JSON(http.StatusOK, gin.H{
		"rooms": stats,
	})
}
