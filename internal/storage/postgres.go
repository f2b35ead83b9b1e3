package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
)

// Compile-time interface check
var _ Store = (*PostgresStore)(nil)

// PostgresStore handles persistent storage of plant readings in PostgreSQL,
// for deployments where DATABASE_URL points at a managed database.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgresStore connects to the database at databaseURL and migrates the
// schema.
func NewPostgresStore(ctx context.Context, databaseURL string, logger zerolog.Logger) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		pool:   pool,
		logger: logger,
	}

	if err := store.Migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Msg("Postgres store initialized")

	return store, nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the database schema if it doesn't exist. BIGSERIAL ids
// strictly increase and are never reused.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id BIGSERIAL PRIMARY KEY,
		device_id TEXT NOT NULL,
		moisture INTEGER NOT NULL,
		temperature DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_readings_device_id ON readings(device_id, id DESC);
	CREATE INDEX IF NOT EXISTS idx_readings_device_time ON readings(device_id, recorded_at);
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Debug().Msg("Database schema migrated")
	return nil
}

// Append inserts a single reading and returns the id Postgres assigned.
func (s *PostgresStore) Append(ctx context.Context, reading *models.Reading) (int64, error) {
	query := `
		INSERT INTO readings (device_id, moisture, temperature, recorded_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		reading.DeviceID,
		reading.Moisture,
		reading.Temperature,
		reading.RecordedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reading: %w", err)
	}

	return id, nil
}

// Latest returns the most recent reading for a device, by id.
func (s *PostgresStore) Latest(ctx context.Context, deviceID string) (*models.Reading, error) {
	query := `
		SELECT id, device_id, moisture, temperature, recorded_at
		FROM readings
		WHERE device_id = $1
		ORDER BY id DESC
		LIMIT 1
	`

	var r models.Reading
	err := s.pool.QueryRow(ctx, query, deviceID).
		Scan(&r.ID, &r.DeviceID, &r.Moisture, &r.Temperature, &r.RecordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}

	r.RecordedAt = r.RecordedAt.UTC()
	return &r, nil
}

// Range returns readings recorded within [from, to], ascending by id.
func (s *PostgresStore) Range(ctx context.Context, deviceID string, from, to time.Time, limit int) ([]*models.Reading, error) {
	// Fetch newest-first so the limit keeps the most recent rows, then
	// flip back to ascending id.
	query := `
		SELECT id, device_id, moisture, temperature, recorded_at
		FROM readings
		WHERE device_id = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY id DESC
		LIMIT $4
	`

	rows, err := s.pool.Query(ctx, query, deviceID, from.UTC(), to.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []*models.Reading
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.ID, &r.DeviceID, &r.Moisture, &r.Temperature, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		r.RecordedAt = r.RecordedAt.UTC()
		readings = append(readings, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}

	return readings, nil
}

// Aggregate computes count/min/max/mean for both metrics over readings
// recorded at or after since.
func (s *PostgresStore) Aggregate(ctx context.Context, deviceID string, since time.Time) (*Summary, error) {
	query := `
		SELECT COUNT(*),
			MIN(moisture), MAX(moisture), AVG(moisture)::float8,
			MIN(temperature), MAX(temperature), AVG(temperature)
		FROM readings
		WHERE device_id = $1 AND recorded_at >= $2
	`

	var (
		count              int
		minMoist, maxMoist sql.NullInt64
		meanMoist          sql.NullFloat64
		minTemp, maxTemp   sql.NullFloat64
		meanTemp           sql.NullFloat64
	)

	err := s.pool.QueryRow(ctx, query, deviceID, since.UTC()).
		Scan(&count, &minMoist, &maxMoist, &meanMoist, &minTemp, &maxTemp, &meanTemp)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate readings: %w", err)
	}

	return buildSummary(count, minMoist, maxMoist, meanMoist, minTemp, maxTemp, meanTemp), nil
}

// Devices returns a list of all unique device IDs in the database
func (s *PostgresStore) Devices(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, "SELECT DISTINCT device_id FROM readings ORDER BY device_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query device IDs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan device ID: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

// Stats returns statistics about the database
func (s *PostgresStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM readings").Scan(&stats.TotalReadings)
	if err != nil {
		return nil, fmt.Errorf("failed to count readings: %w", err)
	}

	// If no readings, return early with zero values
	if stats.TotalReadings == 0 {
		return stats, nil
	}

	var oldest, newest time.Time
	err = s.pool.QueryRow(ctx, "SELECT MIN(recorded_at), MAX(recorded_at) FROM readings").
		Scan(&oldest, &newest)
	if err != nil {
		return nil, fmt.Errorf("failed to get timestamp range: %w", err)
	}
	oldest, newest = oldest.UTC(), newest.UTC()
	stats.OldestReading = &oldest
	stats.NewestReading = &newest

	err = s.pool.QueryRow(ctx, "SELECT COUNT(DISTINCT device_id) FROM readings").Scan(&stats.UniqueDevices)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	err = s.pool.QueryRow(ctx, "SELECT pg_total_relation_size('readings')::float8 / (1024 * 1024)").
		Scan(&stats.DatabaseSizeMB)
	if err != nil {
		return nil, fmt.Errorf("failed to get table size: %w", err)
	}

	return stats, nil
}
