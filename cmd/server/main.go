package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/config"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/health"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/server"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/storage"
)

const version = "v1.0.0"

func main() {
	configPath := flag.String("config", "configs/server.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadAppConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.Logging)

	logger.Info().
		Str("version", version).
		Int("port", cfg.Server.Port).
		Msg("Starting plant monitor service")

	// Ensure the data directory exists before SQLite opens the file
	if cfg.Storage.DatabaseURL == "" {
		dataDir := filepath.Dir(cfg.Storage.DBPath)
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create data directory")
		}
	}

	store, err := storage.Open(context.Background(), cfg.Storage.DatabaseURL, cfg.Storage.DBPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open store")
	}

	evaluator := health.NewEvaluator(cfg.Health.StalenessThreshold)
	logger.Info().Dur("staleness_threshold", evaluator.Threshold()).Msg("Health evaluator ready")

	feed := server.NewLiveFeed(logger, cfg.Server.AllowedOrigins...)
	api := server.NewAPIHandler(store, evaluator, logger)
	ingest := server.NewIngestHandler(store, feed, logger)
	mux := server.NewRouter(api, ingest, feed)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Shutting down server...")

	// Shutdown does not wait for hijacked connections, so the live feed
	// closes its subscribers itself before the listener drains.
	feed.Close()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
	}

	if err := store.Close(); err != nil {
		logger.Error().Err(err).Msg("Store close error")
	}

	logger.Info().Msg("Server stopped")
}
