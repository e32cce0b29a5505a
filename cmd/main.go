package main

import (
	"blueprint"
	"blueprint/internal/api/handler/endpoints"
	"blueprint/internal/api/models"
	"blueprint/internal/api/service"
	"blueprint/internal/api/websocket"
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
)

func main() {
	blueprint.InitConfig(".env")
	gin.SetMode(gin.ReleaseMode)

	if blueprint.GetConfig().Mode == "dev" {
		if err := blueprint.DB.AutoMigrate(
			&models.User{},
			&models.Flowchart{},
			&models.FlowchartUserAccess{},
		); err != nil {
			blueprint.Logger.Fatal().Err(err).Msg("Failed to migrate database")
		}
		blueprint.Logger.Info().Msg("Database migrated successfully")
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(blueprint.GetConfig().ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Initialize WebSocket components
	flowchartService := service.NewFlowchartService()
	processor := websocket.NewMessageProcessor(flowchartService, blueprint.Logger)
	hub := websocket.NewHub(blueprint.Logger)
	go hub.Run()
	blueprint.Logger.Info().Msg("WebSocket hub started")

	initAPI(router, hub, processor)

	blueprint.Logger.Debug().Msgf("Starting CORE API on port %s", blueprint.GetConfig().ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		blueprint.Logger.Fatal().Msg(err.Error())
		panic(err)
	}

}

func initAPI(router *graceful.Graceful, hub *websocket.Hub, processor *websocket.MessageProcessor) {
	endpoints.AuthHandler(router)
	endpoints.FlowchartHandler(router)
	endpoints.ChatHandler(router)
	endpoints.WebSocketHandler(router, hub, processor)
}
