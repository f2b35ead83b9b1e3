package server

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
)

// maxIngestBytes caps a POST /readings body. A real device payload is under
// 200 bytes; anything approaching the cap is a misbehaving client.
const maxIngestBytes = 1 << 20

// IngestHandler accepts readings posted by devices.
type IngestHandler struct {
	store  ReadingStore
	feed   *LiveFeed
	logger zerolog.Logger
}

// NewIngestHandler creates the ingestion handler. feed may be nil when the
// live feed is disabled.
func NewIngestHandler(store ReadingStore, feed *LiveFeed, logger zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		store:  store,
		feed:   feed,
		logger: logger,
	}
}

// HandleCreate handles POST /readings. The body is shape-checked only;
// out-of-range values are stored exactly as the device sent them.
// recorded_at always comes from the server clock. The 201 response is
// written as soon as the store reports the reading durable; live feed
// fan-out happens after the response so a slow subscriber never delays a
// device or another ingest request.
func (h *IngestHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	payload, err := models.DecodeIngestPayload(http.MaxBytesReader(w, r.Body, maxIngestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reading := payload.Reading()
	id, err := h.store.Append(r.Context(), reading)
	if err != nil {
		h.logger.Error().Err(err).Str("device_id", reading.DeviceID).Msg("Failed to append reading")
		writeError(w, http.StatusServiceUnavailable, "store unavailable, retry later")
		return
	}
	reading.ID = id

	readingsIngested.WithLabelValues(reading.DeviceID).Inc()

	h.logger.Info().
		Int64("id", id).
		Str("device_id", reading.DeviceID).
		Int("moisture", reading.Moisture).
		Float64("temperature", reading.Temperature).
		Msg("Reading stored")

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})

	if h.feed != nil {
		h.feed.Publish(reading)
	}
}
