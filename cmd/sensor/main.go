package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/client"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/config"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/sensor"

	"github.com/rs/zerolog"
)

const version = "v1.0.0"

func main() {
	configPath := flag.String("config", "configs/sensor.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.LoadAgentConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := config.NewLogger(cfg.Logging)

	logger.Info().
		Str("version", version).
		Str("device_id", cfg.Device.ID).
		Str("probe", cfg.Probe.Type).
		Dur("read_interval", cfg.Device.ReadInterval).
		Msg("Starting plant monitor agent")

	probe, err := newProbe(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open probe")
	}

	reader := sensor.NewReader(probe, cfg.Device.ID, cfg.Device.ReadInterval, logger)
	defer reader.Close()

	api := client.NewAPIClient(client.Config{
		BaseURL:        cfg.Server.BaseURL,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel the pump on shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info().Str("signal", sig.String()).Msg("Shutting down agent...")
		cancel()
	}()

	if err := run(ctx, reader, api, logger); err != nil && err != context.Canceled {
		logger.Fatal().Err(err).Msg("Agent failed")
	}

	logger.Info().Msg("Agent stopped")
}

// newProbe selects the hardware or simulated probe from config
func newProbe(cfg *config.AgentConfig) (sensor.Probe, error) {
	if cfg.Probe.Type == "dht" {
		return sensor.NewDHTProbe(cfg.Probe.GPIOPin, cfg.Probe.MoisturePath)
	}
	return sensor.NewSimProbe(), nil
}

// run pumps readings from the probe to the service until ctx is cancelled.
// A failed post is dropped; the next interval produces a fresher sample
// than anything a retry would deliver.
func run(ctx context.Context, reader *sensor.Reader, api *client.APIClient, logger zerolog.Logger) error {
	go reader.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reading := <-reader.Readings():
			id, err := api.PostReading(ctx, reading)
			if err != nil {
				logger.Warn().Err(err).Msg("failed to deliver reading")
				continue
			}
			logger.Info().
				Int64("id", id).
				Int("moisture", reading.Moisture).
				Float64("temperature", reading.Temperature).
				Msg("reading delivered")
		}
	}
}
