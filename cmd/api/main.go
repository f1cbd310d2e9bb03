package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IANDYI/lifeclock-service/internal/adapters/handler"
	"github.com/IANDYI/lifeclock-service/internal/adapters/middleware"
	"github.com/IANDYI/lifeclock-service/internal/adapters/predictor"
	"github.com/IANDYI/lifeclock-service/internal/adapters/repository"
	"github.com/IANDYI/lifeclock-service/internal/adapters/websocket"
	"github.com/IANDYI/lifeclock-service/internal/config"
	"github.com/IANDYI/lifeclock-service/internal/core/domain"
	"github.com/IANDYI/lifeclock-service/internal/core/ports"
	"github.com/IANDYI/lifeclock-service/internal/core/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Country baselines: embedded reference table, optionally overlaid
	// from PostgreSQL at startup
	baselines := domain.DefaultBaselines()
	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = config.ConnectDatabase(cfg.DatabaseURL, 5, 2*time.Second)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		baselineRepo := repository.NewBaselineRepository(db)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := baselineRepo.EnsureSchema(ctx, baselines); err != nil {
			log.Printf("Baseline schema setup failed, using embedded table: %v", err)
		} else if loaded, err := baselineRepo.Load(ctx); err != nil {
			log.Printf("Baseline load failed, using embedded table: %v", err)
		} else if loaded.Len() > 0 {
			baselines = loaded
			log.Printf("Loaded %d country baselines from database", loaded.Len())
		}
		cancel()
	}

	// Optional external ML model server
	var lifespanPredictor ports.LifespanPredictor
	if cfg.PredictorURL != "" {
		lifespanPredictor = predictor.NewHTTPPredictor(cfg.PredictorURL)
	} else {
		log.Println("PREDICTOR_URL not set, ml estimates will fall back to the who strategy")
	}

	// Optional summary publisher (share/export collaborator boundary)
	var summaryPublisher ports.SummaryPublisher = repository.NoopSummaryPublisher{}
	if cfg.RabbitMQURL != "" {
		publisher, err := repository.NewSummaryPublisher(cfg.RabbitMQURL, cfg.SummaryQueueName)
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ publisher: %v", err)
		}
		defer publisher.Close()
		summaryPublisher = publisher
	}

	// Initialize repositories and services
	estimateRepo := repository.NewMemoryRepository()
	estimator := services.NewEstimator(baselines, lifespanPredictor)
	estimationService := services.NewEstimationService(estimator, estimateRepo, summaryPublisher)

	// Optional RabbitMQ consumer for queued submissions from other services
	consumerCtx, consumerCancel := context.WithCancel(context.Background())
	defer consumerCancel()
	if cfg.RabbitMQURL != "" {
		submissionConsumer, err := repository.NewSubmissionConsumer(cfg.RabbitMQURL, cfg.SubmissionQueueName, estimationService)
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ submission consumer: %v", err)
		}
		defer submissionConsumer.Close()

		go func() {
			if err := submissionConsumer.StartConsuming(consumerCtx); err != nil {
				log.Printf("Submission consumer error: %v", err)
			}
		}()
		log.Println("Submission consumer started in background, listening for estimation requests")
	}

	// Countdown hub for live WebSocket tick streams
	hub := websocket.NewHub()
	hub.OnDisconnect(handler.CountdownStreams.Dec)

	// Initialize JWT middleware (anonymous mode when no key configured)
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTPublicKey)

	// Initialize handlers
	estimateHandler := handler.NewEstimateHandler(estimationService, hub.StopEstimate)
	wsHandler := handler.NewWebSocketHandler(hub, estimationService, authMiddleware)
	healthHandler := handler.NewHealthHandler(db)
	handler.RegisterEstimateMetrics()

	// Setup HTTP router
	mux := http.NewServeMux()

	// Health endpoints (no auth required)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /health/ready", healthHandler.Ready)
	mux.HandleFunc("GET /health/live", healthHandler.Live)

	// Estimation pipeline endpoints
	mux.HandleFunc("POST /estimates", authMiddleware.RequireAuth(estimateHandler.SubmitEstimate))
	mux.HandleFunc("GET /estimates/{estimate_id}", authMiddleware.RequireAuth(estimateHandler.GetEstimate))
	mux.HandleFunc("GET /estimates/{estimate_id}/summary", authMiddleware.RequireAuth(estimateHandler.GetSummary))
	mux.HandleFunc("DELETE /estimates/{estimate_id}", authMiddleware.RequireAuth(estimateHandler.ResetEstimate))

	// Live countdown stream (token via header or query string)
	mux.HandleFunc("GET /estimates/{estimate_id}/countdown", wsHandler.HandleCountdown)

	// Wrap mux with metrics middleware to track all HTTP requests
	loggedRouter := middleware.MetricsMiddleware(mux)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      loggedRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting Lifeclock Service on :%s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop the submission consumer first so no new estimates arrive
	consumerCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
