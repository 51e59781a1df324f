package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/visualmatch/client/config"
	httpDelivery "github.com/visualmatch/client/internal/delivery/http"
	"github.com/visualmatch/client/internal/infrastructure/logging"
	"github.com/visualmatch/client/internal/infrastructure/matcher"
	"github.com/visualmatch/client/internal/infrastructure/metrics"
	"github.com/visualmatch/client/internal/infrastructure/preview"
	"github.com/visualmatch/client/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.Server.Environment, cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logger.Info("starting visualmatch",
		zap.String("environment", cfg.Server.Environment),
		zap.String("port", cfg.Server.Port),
		zap.String("search_base_url", cfg.Search.BaseURL),
	)

	// Initialize infrastructure dependencies
	recorder := metrics.NewRecorder()

	previews, err := preview.NewStore(cfg.Preview.Dir, cfg.Preview.MaxDimension, logger.Named("preview"))
	if err != nil {
		logger.Fatal("failed to create preview store", zap.Error(err))
	}
	defer func() {
		if err := previews.Close(); err != nil {
			logger.Warn("failed to remove preview directory", zap.Error(err))
		}
	}()

	client := matcher.NewClient(
		cfg.Search.BaseURL,
		matcher.WithRateLimit(cfg.Search.RatePerSecond, cfg.Search.Burst),
		matcher.WithLogger(logger.Named("matcher")),
	)

	// Initialize usecase layer
	workflow := usecase.NewWorkflow(client, previews, recorder, logger.Named("workflow"))

	handler := httpDelivery.NewHandler(workflow, previews, recorder.Handler(), logger.Named("http"))
	router := httpDelivery.SetupRouter(cfg, handler, logger.Named("http"))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("server error", zap.Error(err))
		}
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown error", zap.Error(err))
	}
	workflow.Close(shutdownCtx)
	logger.Info("server stopped")
}
