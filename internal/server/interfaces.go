package server

import (
	"context"
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
	"github.com/KKumarrC/esp32-plant-monitor-api/internal/storage"
)

// ReadingStore defines the durable-store surface the HTTP layer depends on.
// storage.SQLiteStore and storage.PostgresStore implement this interface.
type ReadingStore interface {
	// Append persists a reading and returns its assigned id
	Append(ctx context.Context, reading *models.Reading) (int64, error)

	// Latest returns the newest reading for a device, or storage.ErrNotFound
	Latest(ctx context.Context, deviceID string) (*models.Reading, error)

	// Range returns readings recorded in [from, to], ascending by id
	Range(ctx context.Context, deviceID string, from, to time.Time, limit int) ([]*models.Reading, error)

	// Aggregate summarizes both metrics over readings since a cutoff
	Aggregate(ctx context.Context, deviceID string, since time.Time) (*storage.Summary, error)

	// Devices returns all device ids present in the store
	Devices(ctx context.Context) ([]string, error)

	// Stats returns store-wide statistics
	Stats(ctx context.Context) (*storage.StoreStats, error)
}
