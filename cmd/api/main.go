// Package main is the entry point for the memory engine API server.
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
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/counsel-ai/memory-engine/internal/config"
	"github.com/counsel-ai/memory-engine/internal/handler"
	"github.com/counsel-ai/memory-engine/internal/llm"
	"github.com/counsel-ai/memory-engine/internal/memory"
	"github.com/counsel-ai/memory-engine/internal/middleware"
	natsclient "github.com/counsel-ai/memory-engine/internal/nats"
	"github.com/counsel-ai/memory-engine/internal/service"
	"github.com/counsel-ai/memory-engine/internal/summarizer"
	"github.com/counsel-ai/memory-engine/pkg/logger"
	"github.com/counsel-ai/memory-engine/pkg/tracing"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting memory engine API server")

	// Initialize tracing if enabled
	ctx := context.Background()
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "memory-engine", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to NATS
	nc, err := natsclient.Connect(ctx, natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer nc.Close()

	// Open the conversation record bucket
	records, err := natsclient.NewRecordBucket(ctx, nc)
	if err != nil {
		log.Error("failed to open record bucket", zap.Error(err))
		os.Exit(1)
	}

	// Initialize LLM client; the gateway degrades to truncation without one
	var llmClient llm.Client
	switch {
	case cfg.DefaultLLM == string(llm.ProviderOpenAI) && cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	case cfg.AnthropicAPIKey != "":
		llmClient, err = llm.NewAnthropicClient(cfg.AnthropicAPIKey)
	case cfg.OpenAIAPIKey != "":
		llmClient, err = llm.NewOpenAIClient(cfg.OpenAIAPIKey)
	}
	if err != nil {
		log.Warn("failed to create LLM client, summarization will degrade to truncation", zap.Error(err))
		llmClient = nil
	}

	// Build the memory engine; invalid thresholds fail fast here
	gateway := summarizer.New(llmClient, summarizer.Config{
		Timeout: cfg.SummarizerTimeout,
		Model:   cfg.SummarizerModel,
	}, log)

	policy, err := memory.NewPolicy(cfg.Memory, gateway, log)
	if err != nil {
		log.Error("invalid memory configuration", zap.Error(err))
		os.Exit(1)
	}

	manager, err := memory.NewManager(records, policy, log)
	if err != nil {
		log.Error("failed to create memory manager", zap.Error(err))
		os.Exit(1)
	}

	// Initialize services and handlers
	recordSvc := service.NewRecordService(records, log)

	healthHandler := handler.NewHealthHandler(nc)
	memoryHandler := handler.NewMemoryHandler(manager, log)
	recordHandler := handler.NewRecordHandler(recordSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		// Assembled memory
		r.Route("/memory", func(r chi.Router) {
			r.Get("/", memoryHandler.Assemble)
			r.Get("/stats", memoryHandler.Stats)
			r.Get("/continuity", memoryHandler.Continuity)
		})

		// Conversation records
		r.Route("/records", func(r chi.Router) {
			r.Post("/", recordHandler.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", recordHandler.Get)
				r.Post("/messages", recordHandler.AppendMessage)
			})
		})
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
