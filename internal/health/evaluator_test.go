// internal/health/evaluator_test.go
package health

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
)

func TestEvaluate(t *testing.T) {
	threshold := 10 * time.Minute
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		age      time.Duration
		expected State
	}{
		{
			name:     "fresh reading",
			age:      30 * time.Second,
			expected: StateHealthy,
		},
		{
			name:     "age just under threshold",
			age:      threshold - time.Millisecond,
			expected: StateHealthy,
		},
		{
			name:     "age exactly at threshold",
			age:      threshold,
			expected: StateHealthy,
		},
		{
			name:     "age just over threshold",
			age:      threshold + time.Millisecond,
			expected: StateStale,
		},
		{
			name:     "very old reading",
			age:      72 * time.Hour,
			expected: StateStale,
		},
		{
			name:     "reading from the future",
			age:      -time.Minute,
			expected: StateHealthy,
		},
	}

	evaluator := NewEvaluator(threshold)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			latest := models.NewReading("esp32-1", 500, 22.0)
			latest.RecordedAt = now.Add(-tt.age)

			verdict := evaluator.Evaluate(latest, now)

			if verdict.State != tt.expected {
				t.Errorf("State = %q, expected %q", verdict.State, tt.expected)
			}
			if verdict.LastSeen == nil {
				t.Fatal("LastSeen = nil, expected the reading timestamp")
			}
			if !verdict.LastSeen.Equal(latest.RecordedAt) {
				t.Errorf("LastSeen = %v, expected %v", verdict.LastSeen, latest.RecordedAt)
			}
		})
	}
}

func TestEvaluate_NoData(t *testing.T) {
	evaluator := NewEvaluator(10 * time.Minute)

	verdict := evaluator.Evaluate(nil, time.Now().UTC())

	if verdict.State != StateNoData {
		t.Errorf("State = %q, expected %q", verdict.State, StateNoData)
	}
	if verdict.LastSeen != nil {
		t.Errorf("LastSeen = %v, expected nil", verdict.LastSeen)
	}
}

// The NoData verdict serializes with an explicit null, not a missing field
// or a zero timestamp.
func TestVerdict_NoDataJSON(t *testing.T) {
	verdict := Verdict{State: StateNoData}

	data, err := json.Marshal(verdict)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	body := string(data)
	if !strings.Contains(body, `"last_seen":null`) {
		t.Errorf("serialized verdict = %s, expected last_seen to be null", body)
	}
	if !strings.Contains(body, `"state":"NoData"`) {
		t.Errorf("serialized verdict = %s, expected state NoData", body)
	}
}

func TestVerdict_HealthyJSON(t *testing.T) {
	seen := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	verdict := Verdict{State: StateHealthy, LastSeen: &seen}

	data, err := json.Marshal(verdict)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	body := string(data)
	if !strings.Contains(body, `"last_seen":"2026-03-14T09:26:53Z"`) {
		t.Errorf("serialized verdict = %s, expected RFC3339 last_seen", body)
	}
}
