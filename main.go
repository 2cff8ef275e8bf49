package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/opsdesk-ai/opsdesk/internal/assistant"
	"github.com/opsdesk-ai/opsdesk/internal/chat"
	"github.com/opsdesk-ai/opsdesk/internal/collab"
	"github.com/opsdesk-ai/opsdesk/internal/command"
	"github.com/opsdesk-ai/opsdesk/internal/config"
	"github.com/opsdesk-ai/opsdesk/internal/hub"
	"github.com/opsdesk-ai/opsdesk/internal/policy"
	"github.com/opsdesk-ai/opsdesk/internal/service"
	"github.com/opsdesk-ai/opsdesk/internal/snapshot"
	v1 "github.com/opsdesk-ai/opsdesk/internal/transport/http/v1"
)

func main() {
	// Load configuration
	cfg := config.Load()

	log.Printf("Starting opsdesk...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Snapshot DSN: %s", cfg.SnapshotDSN)
	log.Printf("Assistant URL: %s", cfg.AssistantURL)

	ctx := context.Background()

	// Initialize snapshot store
	snap, err := snapshot.NewSQLiteStore(cfg.SnapshotDSN)
	if err != nil {
		log.Fatalf("Failed to initialize snapshot store: %v", err)
	}
	defer snap.Close()

	// Initialize session store
	store := chat.New(ctx, snap, cfg.HistoryLimit, cfg.TitleMaxLen)

	// Initialize collaboration client
	collabClient := collab.NewClient(cfg.CollabURL, cfg.CollabToken, 10*time.Second)

	// Initialize policy engine
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize directive interpreter
	interpreter := command.NewInterpreter(collabClient, policyEngine, cfg.NotifyChannel)

	// Initialize assistant client
	assistantClient := assistant.NewHTTPClient(cfg.AssistantURL, cfg.AssistantAPIKey, cfg.AssistantTimeout)

	// Initialize event hub
	eventHub := hub.NewHub()
	go eventHub.Run()

	// Initialize service
	svc := service.New(store, interpreter, assistantClient, eventHub, cfg)

	// Initialize handler
	h := v1.NewHandler(svc, eventHub)

	// Create Echo server
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Register routes
	h.RegisterRoutes(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("API started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down opsdesk...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Opsdesk stopped")
}
