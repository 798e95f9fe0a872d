package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/docuflow/docuflow-backend/internal/extraction/events"
	"github.com/docuflow/docuflow-backend/internal/extraction/handler"
	"github.com/docuflow/docuflow-backend/internal/extraction/llm"
	"github.com/docuflow/docuflow-backend/internal/extraction/ocr"
	"github.com/docuflow/docuflow-backend/internal/extraction/service"
	"github.com/docuflow/docuflow-backend/pkg/config"
	"github.com/docuflow/docuflow-backend/pkg/httputil"
	"github.com/docuflow/docuflow-backend/pkg/logger"
	"github.com/docuflow/docuflow-backend/pkg/messaging"
)

func main() {
	// Load configuration
	cfg, err := config.LoadWithValidation("extraction-service")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("extraction-service", cfg.Server.Environment)
	log.Info().Msg("starting Extraction Service")

	// Initialize external adapters
	engine := ocr.NewTesseract(&cfg.OCR, log)
	client := llm.NewOllama(&cfg.Ollama, log)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if !engine.Available(startupCtx) {
		log.Warn().Str("binary", cfg.OCR.BinaryPath).Msg("tesseract not found, OCR requests will fail")
	}
	if !client.Available(startupCtx) {
		log.Warn().Str("url", cfg.Ollama.URL).Msg("ollama not reachable, LLM requests will fail")
	}
	startupCancel()

	// Connect to RabbitMQ when enabled; the pipeline runs fine without it
	var publisher *events.DocumentEventPublisher
	if cfg.RabbitMQ.Enabled {
		rmq, err := messaging.New(&cfg.RabbitMQ, log)
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to RabbitMQ, continuing without event publishing")
		} else {
			defer rmq.Close()
			publisher, err = events.NewDocumentEventPublisher(rmq, log)
			if err != nil {
				log.Error().Err(err).Msg("failed to create event publisher, continuing without event publishing")
				publisher = nil
			}
		}
	}

	// Initialize service and handlers
	extractionService := service.NewService(engine, client, publisher, log)
	extractionHandler := handler.NewHandler(extractionService, cfg.Upload, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestID)
	r.Use(httputil.Logger(log))
	r.Use(httputil.Recoverer(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", httputil.APIKeyHeader},
		AllowCredentials: true,
	}))
	r.Use(httputil.APIKey(cfg.Auth.APIKey)) // API key middleware with /health and / exceptions

	r.Get("/", extractionHandler.Root)
	r.Get("/health", extractionHandler.Health)

	// API routes (API key required)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/extract/invoice", extractionHandler.Extract)
	})

	// Create server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		log.Info().Str("addr", addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
