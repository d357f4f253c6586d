package main

import (
	"context"
	"fmt"
	"log"

	"harbor-chat/internal/broadcast"
	"harbor-chat/internal/broker"
	"harbor-chat/internal/config"
	"harbor-chat/internal/domain/call"
	"harbor-chat/internal/events"
	"harbor-chat/internal/handler"
	"harbor-chat/internal/queue"
	"harbor-chat/internal/repository"
	"harbor-chat/internal/services"
	"harbor-chat/internal/teardown"
	"harbor-chat/internal/websocket"
	"harbor-chat/pkg/database"
	"harbor-chat/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	appLogger := logger.New(cfg.Server.Environment)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&call.Call{}, &call.CallParticipant{}); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	// Concurrent creates can race the active-call lookup; the partial
	// index makes the one-active-call-per-thread rule hold under load.
	if err := db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_calls_active_thread ON calls (thread_id) WHERE ended_at IS NULL").Error; err != nil {
		log.Fatalf("Failed to create active call index: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workQueue := queue.NewRedisQueue(redisClient)
	broadcaster := broadcast.NewRedisBroadcaster(redisClient)
	roomBroker := broker.NewHTTPBroker(cfg.Broker.BaseURL)

	// Domain-event wiring: listeners register once at startup and run
	// synchronously in dispatch order.
	bus := events.NewBus()
	bus.Register(call.EventTypeCallEnded, teardown.NewListener(workQueue, cfg.Queue.Name, appLogger).Handle)
	bus.Register(call.EventTypeKickedFromCall, broadcast.NewKickListener(broadcaster, cfg.Broadcast.Namespace, appLogger).Handle)

	// Teardown runs on its own queue so its backlog never starves
	// other background work.
	worker := queue.NewWorker(workQueue, cfg.Queue.Name, cfg.Queue.MaxAttempts, cfg.Queue.BackoffBase, appLogger)
	teardown.NewCoordinator(roomBroker, appLogger).Register(worker)
	go worker.Run(ctx)

	callRepo := repository.NewCallRepository(db)
	callService := services.NewCallService(callRepo, roomBroker, bus, appLogger)

	hub := websocket.NewHub()
	go hub.Run(ctx)
	bridge := websocket.NewBridge(broadcaster, hub)
	if err := bridge.Run(ctx, []string{fmt.Sprintf("private-%s.*", cfg.Broadcast.Namespace)}); err != nil {
		log.Fatalf("Failed to start broadcast bridge: %v", err)
	}

	r := gin.Default()
	handler.NewCallHandler(callService).RegisterRoutes(r)
	r.GET("/ws", websocket.NewHandler(hub, cfg.Broadcast.Namespace).Connect)

	appLogger.Infof("starting server on port %s", cfg.Server.Port)
	if err := r.Run(fmt.Sprintf(":%s", cfg.Server.Port)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
