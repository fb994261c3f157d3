package server

import (
	"github.com/gin-gonic/gin"

	"github.com/agoralabs/agora-backend/internal/handlers"
	"github.com/agoralabs/agora-backend/internal/middleware"
)

type RouterConfig struct {
	RankingsHandler *handlers.RankingsHandler
	WebhookHandler  *handlers.WebhookHandler
	WSHandler       *handlers.WSHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORS())

	router.GET("/healthcheck", handlers.HealthCheck)

	rankings := router.Group("/rankings")
	{
		rankings.GET("/:tenant", cfg.RankingsHandler.GetRankings)
		rankings.GET("/:tenant/runs", cfg.RankingsHandler.GetRuns)
		rankings.POST("/:tenant/refresh", cfg.RankingsHandler.Refresh)
	}

	router.POST("/webhooks/attestations", cfg.WebhookHandler.Receive)
	router.GET("/ws/:id", cfg.WSHandler.Connect)

	return router
}
