// Package health derives a freshness verdict for a device from its most
// recent stored reading.
package health

import (
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
)

// State is the health verdict over a device partition.
type State string

const (
	// StateHealthy means the latest reading is within the threshold.
	StateHealthy State = "Healthy"
	// StateStale means a latest reading exists but is older than the
	// threshold.
	StateStale State = "Stale"
	// StateNoData means the device has never reported.
	StateNoData State = "NoData"
)

// Verdict is the wire shape of GET /status. LastSeen is null when the
// device has never reported.
type Verdict struct {
	State    State      `json:"state"`
	LastSeen *time.Time `json:"last_seen"`
}

// Evaluator computes verdicts from reading age. It holds no state of its
// own: the verdict is a pure function of (latest reading, now, threshold),
// so it is correct immediately after a restart.
type Evaluator struct {
	threshold time.Duration
}

// NewEvaluator creates an evaluator with the given staleness threshold.
func NewEvaluator(threshold time.Duration) *Evaluator {
	return &Evaluator{threshold: threshold}
}

// Threshold returns the configured staleness threshold.
func (e *Evaluator) Threshold() time.Duration {
	return e.threshold
}

// Evaluate returns the verdict for a device's latest reading. A nil latest
// means the device has never reported. An age exactly equal to the
// threshold still counts as Healthy.
func (e *Evaluator) Evaluate(latest *models.Reading, now time.Time) Verdict {
	if latest == nil {
		return Verdict{State: StateNoData}
	}

	seen := latest.RecordedAt
	if now.Sub(seen) <= e.threshold {
		return Verdict{State: StateHealthy, LastSeen: &seen}
	}
	return Verdict{State: StateStale, LastSeen: &seen}
}
