package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// endpointList is what GET / advertises.
var endpointList = []string{
	"GET /",
	"GET /health",
	"GET /status",
	"POST /readings",
	"GET /readings/latest",
	"GET /readings/history",
	"GET /readings/summary",
	"GET /readings/live",
	"GET /devices",
	"GET /stats",
	"GET /metrics",
}

// NewRouter assembles the full HTTP surface. Method-qualified patterns make
// the mux answer 405 for wrong methods on known paths. feed may be nil to
// run without the live WebSocket endpoint.
func NewRouter(api *APIHandler, ingest *IngestHandler, feed *LiveFeed) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", instrument("/", handleDiscovery))
	mux.HandleFunc("GET /health", instrument("/health", handleLiveness))
	mux.HandleFunc("GET /status", instrument("/status", api.HandleStatus))

	mux.HandleFunc("POST /readings", instrument("/readings", ingest.HandleCreate))
	mux.HandleFunc("GET /readings/latest", instrument("/readings/latest", api.HandleLatest))
	mux.HandleFunc("GET /readings/history", instrument("/readings/history", api.HandleHistory))
	mux.HandleFunc("GET /readings/summary", instrument("/readings/summary", api.HandleSummary))
	if feed != nil {
		mux.Handle("GET /readings/live", feed)
	}

	mux.HandleFunc("GET /devices", instrument("/devices", api.HandleDevices))
	mux.HandleFunc("GET /stats", instrument("/stats", api.HandleStats))

	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}

// handleDiscovery handles GET /: a banner plus the endpoint list, so a
// curl against the bare host shows what the service offers.
func handleDiscovery(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"message":   "Plant Monitor API is running",
		"endpoints": endpointList,
	})
}

// handleLiveness handles GET /health: process liveness only, deliberately
// not touching the store. Data freshness lives at /status.
func handleLiveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
