package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"lms-realtime/internal/auth"
	"lms-realtime/internal/config"
	"lms-realtime/internal/database"
	"lms-realtime/internal/handlers"
	"lms-realtime/internal/queue"
	"lms-realtime/internal/realtime"
	"lms-realtime/internal/registry"
	"lms-realtime/internal/services"
	"lms-realtime/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Socket-to-session registry: process-local by default, shared via
	// Redis when configured for multi-instance deployments.
	var reg registry.Registry
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("Failed to connect to redis: %v", err)
		}
		reg = registry.NewRedis(client, 24*time.Hour)
		logger.Info("Using redis socket registry at %s", cfg.Redis.Addr)
	} else {
		reg = registry.NewMemory()
	}

	// Initialize room hub
	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Stop()

	// Initialize services
	authService := auth.NewService(cfg.JWT.Secret)
	sessionService := services.NewSessionService(db, reg)
	roomService := services.NewRoomService(db)
	chatService := services.NewChatService(db, hub, cfg.Chat.HistoryLimit)
	notificationService := services.NewNotificationService(hub)

	// Initialize handlers
	eventRouter := handlers.NewEventRouter(sessionService, roomService, chatService)
	wsHandlers := handlers.NewWebSocketHandlers(authService, hub, eventRouter)
	notificationHandlers := handlers.NewNotificationHandlers(notificationService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional queue ingress for notification publishers
	if cfg.Rabbit.URL != "" {
		consumer, err := queue.NewConsumer(cfg.Rabbit.URL, cfg.Rabbit.Queue, notificationService)
		if err != nil {
			logger.Fatal("Failed to connect to rabbitmq: %v", err)
		}
		defer consumer.Close()
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal("Failed to start notification consumer: %v", err)
		}
	}

	// Setup routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandlers.HandleWebSocket)
	mux.HandleFunc("/api/notifications/dispatch", notificationHandlers.Dispatch)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	logger.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
