package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
)

// ErrNotFound is returned when a device partition holds no matching reading.
var ErrNotFound = errors.New("reading not found")

// Store defines the interface for durable reading storage. Both backends
// (SQLite for single-box deployments, Postgres for managed hosting) satisfy
// it; everything above this interface is backend-agnostic.
type Store interface {
	Close() error

	// Append persists a reading and returns its assigned id. Ids strictly
	// increase in insertion order across all devices and are never reused.
	// A nil error means the reading has been durably committed.
	Append(ctx context.Context, reading *models.Reading) (int64, error)

	// Latest returns the reading with the greatest id for a device, or
	// ErrNotFound when the partition is empty.
	Latest(ctx context.Context, deviceID string) (*models.Reading, error)

	// Range returns up to limit readings recorded in [from, to] inclusive,
	// ascending by id. When more than limit rows match, the newest win.
	// An inverted range yields an empty result, not an error.
	Range(ctx context.Context, deviceID string, from, to time.Time, limit int) ([]*models.Reading, error)

	// Aggregate summarizes both metrics over readings recorded at or after
	// since. Min/max/mean are nil, not zero, when the window is empty.
	Aggregate(ctx context.Context, deviceID string, since time.Time) (*Summary, error)

	// Devices returns the distinct device ids present in the store.
	Devices(ctx context.Context) ([]string, error)

	// Stats returns store-wide bookkeeping for the stats endpoint.
	Stats(ctx context.Context) (*StoreStats, error)
}

// MoistureStats summarizes the integer moisture metric over a window.
type MoistureStats struct {
	Count int      `json:"count"`
	Min   *int     `json:"min"`
	Max   *int     `json:"max"`
	Mean  *float64 `json:"mean"`
}

// TemperatureStats summarizes the temperature metric over a window.
type TemperatureStats struct {
	Count int      `json:"count"`
	Min   *float64 `json:"min"`
	Max   *float64 `json:"max"`
	Mean  *float64 `json:"mean"`
}

// Summary carries both per-metric summaries for one aggregate call.
type Summary struct {
	Moisture    MoistureStats    `json:"moisture"`
	Temperature TemperatureStats `json:"temperature"`
}

// StoreStats contains information about the whole store.
type StoreStats struct {
	TotalReadings  int64      `json:"total_readings"`
	UniqueDevices  int        `json:"unique_devices"`
	OldestReading  *time.Time `json:"oldest_reading,omitempty"`
	NewestReading  *time.Time `json:"newest_reading,omitempty"`
	DatabaseSizeMB float64    `json:"database_size_mb"`
}

// buildSummary converts the nullable scan targets shared by both backends
// into a Summary. SQL MIN/MAX/AVG return NULL over zero rows, which is
// exactly the null-not-zero contract of the summary endpoint.
func buildSummary(count int, minMoist, maxMoist sql.NullInt64, meanMoist sql.NullFloat64, minTemp, maxTemp, meanTemp sql.NullFloat64) *Summary {
	summary := &Summary{
		Moisture:    MoistureStats{Count: count},
		Temperature: TemperatureStats{Count: count},
	}

	if minMoist.Valid {
		v := int(minMoist.Int64)
		summary.Moisture.Min = &v
	}
	if maxMoist.Valid {
		v := int(maxMoist.Int64)
		summary.Moisture.Max = &v
	}
	if meanMoist.Valid {
		v := meanMoist.Float64
		summary.Moisture.Mean = &v
	}
	if minTemp.Valid {
		v := minTemp.Float64
		summary.Temperature.Min = &v
	}
	if maxTemp.Valid {
		v := maxTemp.Float64
		summary.Temperature.Max = &v
	}
	if meanTemp.Valid {
		v := meanTemp.Float64
		summary.Temperature.Mean = &v
	}

	return summary
}
