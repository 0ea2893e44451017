package bootstrap

import (
	"context"
	"log"

	"ai-tutoring-be/internal/config"
	"ai-tutoring-be/internal/controller"
	"ai-tutoring-be/internal/handler"
	"ai-tutoring-be/internal/pkg/logger"
	"ai-tutoring-be/internal/pkg/retry"
	"ai-tutoring-be/internal/repository/unitofwork"
	"ai-tutoring-be/internal/service"
	"ai-tutoring-be/internal/websocket"
	"ai-tutoring-be/pkg/events"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController
	MessageController controller.IMessageController

	// WebSockets & Events
	ChatEventHandler *handler.ChatEventHandler
	WebSocketHub     *websocket.Hub
	EventPublisher   *events.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	retryExec := retry.NewExecutor(retry.Config{
		MaxAttempts:   cfg.Retry.MaxAttempts,
		BaseDelay:     cfg.Retry.BaseDelay,
		BackoffFactor: cfg.Retry.BackoffFactor,
		MaxDelay:      cfg.Retry.MaxDelay,
	}, sysLogger)

	// 2. Event Bus
	publisher := events.NewPublisher("chat_lifecycle")

	// 3. Stats Cache: redis when configured, in-process otherwise
	var statsCache service.StatsCache
	var rdb *redis.Client
	if cfg.Cache.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Cache.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.Cache.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v. Falling back to in-process cache", err)
			rdb = nil
		}
	}
	if rdb != nil {
		statsCache = service.NewRedisStatsCache(rdb)
	} else {
		statsCache = service.NewMemoryStatsCache()
	}

	// 4. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/chat_events.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	chatEventHandler := handler.NewChatEventHandler(publisher, wsHub, wsLogger)
	go chatEventHandler.Run(context.Background())

	// 5. Services
	sessionService := service.NewSessionService(uowFactory, retryExec, statsCache, publisher, sysLogger)
	messageService := service.NewMessageService(uowFactory, retryExec, statsCache, publisher, sysLogger)

	// 6. Controllers
	sessionController := controller.NewSessionController(sessionService)
	messageController := controller.NewMessageController(messageService)

	return &Container{
		SessionController: sessionController,
		MessageController: messageController,
		ChatEventHandler:  chatEventHandler,
		WebSocketHub:      wsHub,
		EventPublisher:    publisher,
	}
}
