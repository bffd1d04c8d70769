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

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/pdfchat/pdfchat/internal/adapter/ollama"
	"github.com/pdfchat/pdfchat/internal/adapter/pdftext"
	"github.com/pdfchat/pdfchat/internal/config"
	"github.com/pdfchat/pdfchat/internal/grounding"
	"github.com/pdfchat/pdfchat/internal/policy"
	"github.com/pdfchat/pdfchat/internal/service"
	"github.com/pdfchat/pdfchat/internal/session"
	v1 "github.com/pdfchat/pdfchat/internal/transport/http/v1"
)

func main() {
	godotenv.Load(".env")

	// Load configuration
	cfg := config.Load()

	log.Printf("Starting PDF chat service...")
	log.Printf("HTTP Port: %d", cfg.HTTPPort)
	log.Printf("Ollama URL: %s", cfg.OllamaURL)
	log.Printf("Ollama Model: %s", cfg.OllamaModel)
	log.Printf("Session timeout: %s (sweep every %s)", cfg.SessionTimeout, cfg.SweepInterval)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize session store and start the expiry sweep
	store := session.NewStore(cfg.SessionTimeout, cfg.SweepInterval)
	go store.Run(ctx)

	// Initialize Ollama client
	backend := ollama.NewClient(cfg.OllamaURL, cfg.GenerateTimeout, cfg.ProbeTimeout)

	// Initialize PDF extractor
	extractor := pdftext.NewReader()

	// Initialize off-topic gate
	gate, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatalf("Failed to initialize policy engine: %v", err)
	}

	// Initialize grounding pipeline and service
	pipeline := grounding.New(backend, cfg.OllamaModel)
	svc := service.New(store, extractor, backend, pipeline, gate, cfg)

	// Initialize handlers
	h := v1.NewHandler(svc)

	// Create Echo server
	server := echo.New()
	server.HideBanner = true

	// Middleware
	server.Use(middleware.Logger())
	server.Use(middleware.Recover())
	server.Use(middleware.CORS())
	server.Use(middleware.BodyLimit("50M"))

	// Register routes
	h.RegisterRoutes(server)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("PDF chat service started on port %d", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown server gracefully: %v", err)
	}

	log.Println("Stopped")
}
