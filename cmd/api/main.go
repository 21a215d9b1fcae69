package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/evaltrace/viewer/internal/api/handlers"
	"github.com/evaltrace/viewer/internal/api/middleware"
	"github.com/evaltrace/viewer/internal/config"
	"github.com/evaltrace/viewer/internal/ingest"
	"github.com/evaltrace/viewer/internal/observability"
	"github.com/evaltrace/viewer/internal/repository"
	"github.com/evaltrace/viewer/internal/service"
	"github.com/evaltrace/viewer/pkg/database"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Configure slog with the log level from config
	setupLogging(cfg.LogLevel)

	// Initialize database connection
	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	evalRunsRepo := repository.NewEvalRunsRepository(db)
	evalSamplesRepo := repository.NewEvalSamplesRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	questionsRepo := repository.NewQuestionsRepository(db)

	// Initialize the ingestion pipeline over the same stores
	ingestor := ingest.NewIngestor(evalRunsRepo, evalSamplesRepo, cfg.ResultsDir)

	// Initialize services
	evalRunsService := service.NewEvalRunsService(evalRunsRepo, ingestor)
	evalSamplesService := service.NewEvalSamplesService(evalSamplesRepo)
	feedbackService := service.NewFeedbackService(feedbackRepo, evalSamplesRepo)
	questionsService := service.NewQuestionsService(questionsRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	evalRunsHandler := handlers.NewEvalRunsHandler(evalRunsService)
	evalSamplesHandler := handlers.NewEvalSamplesHandler(evalSamplesService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)
	questionsHandler := handlers.NewQuestionsHandler(questionsService)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", healthHandler.Check)

	mux.HandleFunc("GET /api/evals", evalRunsHandler.List)
	mux.HandleFunc("GET /api/evals/files/list", evalRunsHandler.ListFiles)
	mux.HandleFunc("POST /api/evals/ingest", evalRunsHandler.Ingest)
	mux.HandleFunc("GET /api/evals/{id}", evalRunsHandler.Get)
	mux.HandleFunc("DELETE /api/evals/{id}", evalRunsHandler.Delete)

	mux.HandleFunc("GET /api/samples/eval/{evalId}/samples", evalSamplesHandler.List)
	mux.HandleFunc("GET /api/samples/compare", evalSamplesHandler.Compare)
	mux.HandleFunc("GET /api/samples/{id}", evalSamplesHandler.Get)

	mux.HandleFunc("GET /api/questions", questionsHandler.List)
	mux.HandleFunc("GET /api/questions/samples", questionsHandler.Samples)

	mux.HandleFunc("GET /api/feedback/sample/{sampleId}/feedback", feedbackHandler.ListForSample)
	mux.HandleFunc("POST /api/feedback/sample/{sampleId}/feedback", feedbackHandler.Create)
	mux.HandleFunc("GET /api/feedback/stats", feedbackHandler.Stats)
	mux.HandleFunc("PATCH /api/feedback/{id}", feedbackHandler.Update)
	mux.HandleFunc("DELETE /api/feedback/{id}", feedbackHandler.Delete)

	// Middleware chain. RequestID runs first so the access log and all
	// handler logs carry request_id; CORS answers preflights before MaxBody.
	var handler http.Handler = mux
	handler = middleware.MaxBody(cfg.MaxRequestBodyBytes)(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	handler = middleware.Logging(handler)
	handler = middleware.RequestID(handler)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Starting server", "port", cfg.Port, "results_dir", cfg.ResultsDir)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("Server exited")
}

// setupLogging configures slog with the specified log level
func setupLogging(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: logLevel,
	}

	handler := observability.NewRequestContextHandler(slog.NewTextHandler(os.Stdout, opts))
	slog.SetDefault(slog.New(handler))
}
