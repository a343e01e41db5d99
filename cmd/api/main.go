package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-qa/internal/app"
	"resume-qa/internal/config"
	"resume-qa/internal/http"
	"resume-qa/internal/service"
	"resume-qa/internal/session"
	"resume-qa/internal/storage"
	"resume-qa/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := app.NewLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("Failed to configure logging: %v", err)
	}
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.LogLevel, "format", cfg.LogFormat)

	flush, err := telemetry.Init(telemetry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
	})
	if err != nil {
		log.Fatalf("Failed to initialize Sentry: %v", err)
	}
	defer flush()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	components, err := app.Build(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	defer func() {
		if err := components.Close(); err != nil {
			slog.Warn("Failed to close vector store", "error", err)
		}
	}()
	slog.Info("RAG engine initialized",
		"index_backend", cfg.IndexBackend,
		"primary_model", cfg.PrimaryModel,
		"fallback_model", cfg.FallbackModel,
		"embedding_model", cfg.EmbeddingModel,
		"k", cfg.RetrievalK,
	)

	sessions := session.NewManager()
	qa := service.NewQAService(
		components.Engine,
		sessions,
		storage.NewSessionRepo(db),
		storage.NewMessageRepo(db),
		telemetry.NewReporter(),
		service.Config{MinResumeChars: cfg.MinResumeChars},
	)

	router := http.NewRouter(&http.Deps{
		QAService:      qa,
		HealthChecks:   components.HealthChecks(db),
		MaxUploadBytes: cfg.MaxUploadBytes,
		DefaultK:       cfg.RetrievalK,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting API server", "addr", server.Addr)
		slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "embedding_base_url", cfg.EmbeddingBaseURL)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			slog.Error("API server failed", "error", err)
		}
	case <-ctx.Done():
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}

	sessions.Close(context.Background())
	slog.Info("Shutdown complete")
}
