package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
	"github.com/rs/zerolog"
)

// Config holds configuration for the API client
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// APIClient posts readings to the ingestion service. Delivery is
// fire-and-forget, matching the firmware: a failed post is dropped and the
// next interval produces a fresh reading.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// readingBody is the ingest payload. There is no recorded_at field; the
// service stamps arrival time itself.
type readingBody struct {
	DeviceID    string  `json:"device_id,omitempty"`
	Moisture    int     `json:"moisture"`
	Temperature float64 `json:"temperature"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// NewAPIClient creates a client for the service at cfg.BaseURL
func NewAPIClient(cfg Config, logger zerolog.Logger) *APIClient {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// PostReading sends one reading and returns the id the service assigned
func (c *APIClient) PostReading(ctx context.Context, reading *models.Reading) (int64, error) {
	body, err := json.Marshal(readingBody{
		DeviceID:    reading.DeviceID,
		Moisture:    reading.Moisture,
		Temperature: reading.Temperature,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode reading: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/readings", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to post reading: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("service rejected reading: %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	var created createdResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.Debug().Int64("id", created.ID).Str("device_id", reading.DeviceID).Msg("reading accepted")
	return created.ID, nil
}
