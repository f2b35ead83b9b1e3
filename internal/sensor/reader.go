package sensor

import (
	"context"
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
	"github.com/rs/zerolog"
)

// Reader orchestrates periodic probe readings
type Reader struct {
	probe    Probe
	deviceID string
	interval time.Duration
	logger   zerolog.Logger
	readings chan *models.Reading
}

// NewReader creates a new probe reader. An empty deviceID is fine; the
// service then files the readings under its default device.
func NewReader(probe Probe, deviceID string, interval time.Duration, logger zerolog.Logger) *Reader {
	return &Reader{
		probe:    probe,
		deviceID: deviceID,
		interval: interval,
		logger:   logger,
		readings: make(chan *models.Reading, 10),
	}
}

// Start begins periodic reading from the probe
// Runs in a goroutine until context is cancelled
func (r *Reader) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.readAndPublish()
		}
	}
}

// ReadOnce performs a single reading (useful for testing)
func (r *Reader) ReadOnce() (*models.Reading, error) {
	moisture, temperature, err := r.probe.Read()
	if err != nil {
		return nil, err
	}
	return models.NewReading(r.deviceID, moisture, temperature), nil
}

// readAndPublish performs a read and publishes to the channel. A failed
// read is logged and skipped; the next tick tries again.
func (r *Reader) readAndPublish() {
	reading, err := r.ReadOnce()
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to read from probe")
		return
	}
	r.readings <- reading
	r.logger.Info().Msgf("read from probe: %s", reading.String())
}

// Readings returns the channel where readings are published
func (r *Reader) Readings() <-chan *models.Reading {
	return r.readings
}

// Close stops the reader and cleans up resources
func (r *Reader) Close() error {
	return r.probe.Close()
}
