package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/health"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/storage"
)

// Query parameter defaults. History covers the trailing week unless the
// caller narrows it; the summary window defaults to a day.
const (
	defaultHistoryHours  = 168
	defaultHistoryLimit  = 500
	maxHistoryLimit      = 5000
	defaultSummaryWindow = 24 * time.Hour
)

// APIHandler handles the read-side HTTP endpoints.
type APIHandler struct {
	store     ReadingStore
	evaluator *health.Evaluator
	logger    zerolog.Logger
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(store ReadingStore, evaluator *health.Evaluator, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		store:     store,
		evaluator: evaluator,
		logger:    logger,
	}
}

// deviceParam resolves the device partition for a request. Omitting
// device_id addresses the same default partition ingestion uses, so a
// single-device setup never needs the parameter.
func deviceParam(r *http.Request) string {
	if id := r.URL.Query().Get("device_id"); id != "" {
		return id
	}
	return models.DefaultDeviceID
}

// HandleLatest handles GET /readings/latest: the newest stored reading for
// a device, 404 when it has never reported.
func (api *APIHandler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	deviceID := deviceParam(r)

	reading, err := api.store.Latest(r.Context(), deviceID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no readings yet")
		return
	}
	if err != nil {
		api.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to get latest reading")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		return
	}

	writeJSON(w, http.StatusOK, reading)
}

// historyResponse is the GET /readings/history body.
type historyResponse struct {
	DeviceID string            `json:"device_id"`
	Count    int               `json:"count"`
	Readings []*models.Reading `json:"readings"`
}

// HandleHistory handles GET /readings/history. The window is the trailing
// `hours` (default 168) unless explicit from/to bounds override it; limit
// caps the row count, keeping the newest rows when it bites.
func (api *APIHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	deviceID := deviceParam(r)
	q := r.URL.Query()

	now := time.Now().UTC()
	from := now.Add(-defaultHistoryHours * time.Hour)
	to := now

	if s := q.Get("hours"); s != "" {
		hours, err := strconv.Atoi(s)
		if err != nil || hours <= 0 {
			writeError(w, http.StatusBadRequest, "hours must be a positive integer")
			return
		}
		from = now.Add(-time.Duration(hours) * time.Hour)
	}
	if s := q.Get("from"); s != "" {
		t, err := parseTime(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid from: %v", err))
			return
		}
		from = t
	}
	if s := q.Get("to"); s != "" {
		t, err := parseTime(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid to: %v", err))
			return
		}
		to = t
	}

	limit := defaultHistoryLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > maxHistoryLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", maxHistoryLimit))
			return
		}
		limit = n
	}

	// An inverted window (from after to) is a valid empty query, not an
	// error.
	readings, err := api.store.Range(r.Context(), deviceID, from, to, limit)
	if err != nil {
		api.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to query history")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		return
	}
	if readings == nil {
		readings = []*models.Reading{}
	}

	writeJSON(w, http.StatusOK, historyResponse{
		DeviceID: deviceID,
		Count:    len(readings),
		Readings: readings,
	})
}

// summaryResponse is the GET /readings/summary body.
type summaryResponse struct {
	DeviceID    string                   `json:"device_id"`
	Window      string                   `json:"window"`
	Moisture    storage.MoistureStats    `json:"moisture"`
	Temperature storage.TemperatureStats `json:"temperature"`
}

// HandleSummary handles GET /readings/summary: count/min/max/mean for both
// metrics over a trailing window. An empty window reports count 0 and null
// stats rather than fabricated zeros.
func (api *APIHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	deviceID := deviceParam(r)

	window := defaultSummaryWindow
	if s := r.URL.Query().Get("window"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			writeError(w, http.StatusBadRequest, "window must be a positive duration such as 30m or 24h")
			return
		}
		window = d
	}

	since := time.Now().UTC().Add(-window)
	summary, err := api.store.Aggregate(r.Context(), deviceID, since)
	if err != nil {
		api.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to aggregate readings")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		return
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		DeviceID:    deviceID,
		Window:      window.String(),
		Moisture:    summary.Moisture,
		Temperature: summary.Temperature,
	})
}

// HandleStatus handles GET /status: the staleness verdict for a device.
// NoData is a normal answer about an empty partition, so it is 200, not
// 404.
func (api *APIHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	deviceID := deviceParam(r)

	latest, err := api.store.Latest(r.Context(), deviceID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		api.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to get latest reading")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		return
	}

	verdict := api.evaluator.Evaluate(latest, time.Now().UTC())
	writeJSON(w, http.StatusOK, verdict)
}

// HandleDevices handles GET /devices: every device id the store has seen.
func (api *APIHandler) HandleDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := api.store.Devices(r.Context())
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to list devices")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		return
	}
	if devices == nil {
		devices = []string{}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"devices": devices})
}

// HandleStats handles GET /stats: store-wide bookkeeping.
func (api *APIHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := api.store.Stats(r.Context())
	if err != nil {
		api.logger.Error().Err(err).Msg("Failed to get store stats")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// parseTime accepts RFC3339 or unix seconds.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("use RFC3339 or unix seconds")
}
