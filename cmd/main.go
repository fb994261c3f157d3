package main

import (
	"context"
	"fmt"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/agoralabs/agora-backend/internal/clients/easscan"
	"github.com/agoralabs/agora-backend/internal/clients/openrank"
	"github.com/agoralabs/agora-backend/internal/db"
	"github.com/agoralabs/agora-backend/internal/handlers"
	"github.com/agoralabs/agora-backend/internal/logger"
	"github.com/agoralabs/agora-backend/internal/server"
	"github.com/agoralabs/agora-backend/internal/services"
	"github.com/agoralabs/agora-backend/internal/tenant"
	"github.com/agoralabs/agora-backend/internal/utils"
	"github.com/agoralabs/agora-backend/internal/ws"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tenants
	log.Info("Loading tenant configuration...")
	tenantsPath := utils.GetEnv("TENANTS_FILE", "tenants.yaml", log)
	resolver, err := tenant.LoadResolver(tenantsPath, log)
	if err != nil {
		log.Error("Could not load tenant configuration", "error", err)
		os.Exit(1)
	}

	// Stores
	stores := db.NewRegistry(log)

	// Clients
	log.Info("Setting up clients from main...")
	scanner, err := easscan.New(log, easscan.Config{
		Timeout:  time.Duration(utils.GetEnvAsInt("EASSCAN_TIMEOUT", 30, log)) * time.Second,
		MaxPages: utils.GetEnvAsInt("EASSCAN_MAX_PAGES", 1000, log),
	})
	if err != nil {
		log.Error("Could not init EAS scan client", "error", err)
		os.Exit(1)
	}
	scorer, err := openrank.New(log, openrank.Config{
		BaseURL: utils.GetEnv("OPENRANK_URL", "", log),
		APIKey:  utils.GetEnv("OPENRANK_API_KEY", "", log),
		Timeout: time.Duration(utils.GetEnvAsInt("OPENRANK_TIMEOUT", 60, log)) * time.Second,
	})
	if err != nil {
		log.Error("Could not init OpenRank client", "error", err)
		os.Exit(1)
	}

	// Redis (optional leaderboard cache)
	var rdb *goredis.Client
	if addr := utils.GetEnv("REDIS_ADDR", "", log); addr != "" {
		rdb = goredis.NewClient(&goredis.Options{Addr: addr, DialTimeout: 5 * time.Second})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("Redis unreachable, leaderboard cache disabled", "error", err)
			_ = rdb.Close()
			rdb = nil
		}
		cancel()
	}

	// Services
	log.Info("Setting up services from main...")
	cacheTTL := time.Duration(utils.GetEnvAsInt("RANKINGS_CACHE_TTL", 300, log)) * time.Second
	leaderboardService := services.NewLeaderboardService(log, resolver, stores, rdb, cacheTTL)
	pipelineService := services.NewPipelineService(log, resolver, stores, scanner, scorer, leaderboardService)

	// Websockets
	wsManager := ws.NewManager(log)

	// Handlers
	log.Info("Setting up handlers from main...")
	rankingsHandler := handlers.NewRankingsHandler(leaderboardService, pipelineService)
	webhookHandler := handlers.NewWebhookHandler(log, wsManager)
	wsHandler := handlers.NewWSHandler(log, wsManager)

	// Router
	router := server.NewRouter(server.RouterConfig{
		RankingsHandler: rankingsHandler,
		WebhookHandler:  webhookHandler,
		WSHandler:       wsHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}
}
