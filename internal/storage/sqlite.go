package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
)

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// sqliteTimeFormat is fixed-width (millisecond precision, UTC) so the
// lexicographic comparisons SQLite performs on stored timestamps agree with
// chronological order.
const sqliteTimeFormat = "2006-01-02 15:04:05.000"

// SQLiteStore handles persistent storage of plant readings in a local
// SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath.
func NewSQLiteStore(dbPath string, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL keeps committed appends durable across restarts while letting
	// reads proceed during a write.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=10000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	// Configure connection pool for SQLite (single writer)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	// Auto-migrate schema
	if err := store.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info().Str("path", dbPath).Msg("SQLite store initialized")

	return store, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate creates the database schema if it doesn't exist. AUTOINCREMENT
// guarantees ids strictly increase and are never reused, even if rows were
// ever deleted by hand.
func (s *SQLiteStore) Migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id TEXT NOT NULL,
		moisture INTEGER NOT NULL,
		temperature REAL NOT NULL,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_readings_device_id ON readings(device_id, id DESC);
	CREATE INDEX IF NOT EXISTS idx_readings_device_time ON readings(device_id, recorded_at);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	s.logger.Debug().Msg("Database schema migrated")
	return nil
}

// Append inserts a single reading and returns the id SQLite assigned.
func (s *SQLiteStore) Append(ctx context.Context, reading *models.Reading) (int64, error) {
	query := `
		INSERT INTO readings (device_id, moisture, temperature, recorded_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		reading.DeviceID,
		reading.Moisture,
		reading.Temperature,
		reading.RecordedAt.UTC().Format(sqliteTimeFormat),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert reading: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted id: %w", err)
	}

	return id, nil
}

// Latest returns the most recent reading for a device, by id.
func (s *SQLiteStore) Latest(ctx context.Context, deviceID string) (*models.Reading, error) {
	query := `
		SELECT id, device_id, moisture, temperature, recorded_at
		FROM readings
		WHERE device_id = ?
		ORDER BY id DESC
		LIMIT 1
	`

	row := s.db.QueryRowContext(ctx, query, deviceID)
	reading, err := s.scanReading(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest reading: %w", err)
	}

	return reading, nil
}

// Range returns readings recorded within [from, to], ascending by id.
func (s *SQLiteStore) Range(ctx context.Context, deviceID string, from, to time.Time, limit int) ([]*models.Reading, error) {
	// Fetch newest-first so the limit keeps the most recent rows, then
	// flip back to ascending id.
	query := `
		SELECT id, device_id, moisture, temperature, recorded_at
		FROM readings
		WHERE device_id = ? AND recorded_at BETWEEN ? AND ?
		ORDER BY id DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query,
		deviceID,
		from.UTC().Format(sqliteTimeFormat),
		to.UTC().Format(sqliteTimeFormat),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	readings, err := s.scanReadings(rows)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(readings)-1; i < j; i, j = i+1, j-1 {
		readings[i], readings[j] = readings[j], readings[i]
	}

	return readings, nil
}

// Aggregate computes count/min/max/mean for both metrics over readings
// recorded at or after since.
func (s *SQLiteStore) Aggregate(ctx context.Context, deviceID string, since time.Time) (*Summary, error) {
	query := `
		SELECT COUNT(*),
			MIN(moisture), MAX(moisture), AVG(moisture),
			MIN(temperature), MAX(temperature), AVG(temperature)
		FROM readings
		WHERE device_id = ? AND recorded_at >= ?
	`

	var (
		count              int
		minMoist, maxMoist sql.NullInt64
		meanMoist          sql.NullFloat64
		minTemp, maxTemp   sql.NullFloat64
		meanTemp           sql.NullFloat64
	)

	err := s.db.QueryRowContext(ctx, query, deviceID, since.UTC().Format(sqliteTimeFormat)).
		Scan(&count, &minMoist, &maxMoist, &meanMoist, &minTemp, &maxTemp, &meanTemp)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate readings: %w", err)
	}

	return buildSummary(count, minMoist, maxMoist, meanMoist, minTemp, maxTemp, meanTemp), nil
}

// Devices returns a list of all unique device IDs in the database
func (s *SQLiteStore) Devices(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT device_id FROM readings ORDER BY device_id")
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
func (s *SQLiteStore) Stats(ctx context.Context) (*StoreStats, error) {
	stats := &StoreStats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings").Scan(&stats.TotalReadings)
	if err != nil {
		return nil, fmt.Errorf("failed to count readings: %w", err)
	}

	// If no readings, return early with zero values
	if stats.TotalReadings == 0 {
		return stats, nil
	}

	var oldestStr, newestStr string
	err = s.db.QueryRowContext(ctx, "SELECT MIN(recorded_at), MAX(recorded_at) FROM readings").
		Scan(&oldestStr, &newestStr)
	if err != nil {
		return nil, fmt.Errorf("failed to get timestamp range: %w", err)
	}

	if oldest, err := s.parseTimestamp(oldestStr); err == nil {
		stats.OldestReading = &oldest
	}
	if newest, err := s.parseTimestamp(newestStr); err == nil {
		stats.NewestReading = &newest
	}

	err = s.db.QueryRowContext(ctx, "SELECT COUNT(DISTINCT device_id) FROM readings").Scan(&stats.UniqueDevices)
	if err != nil {
		return nil, fmt.Errorf("failed to count devices: %w", err)
	}

	// Get database size using PRAGMA
	var pageCount, pageSize int64
	s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats.DatabaseSizeMB = float64(pageCount*pageSize) / (1024 * 1024)

	return stats, nil
}

// scanReading is a helper to scan a row into a Reading struct
func (s *SQLiteStore) scanReading(row interface{ Scan(...interface{}) error }) (*models.Reading, error) {
	var r models.Reading
	var recordedAt string

	err := row.Scan(&r.ID, &r.DeviceID, &r.Moisture, &r.Temperature, &recordedAt)
	if err != nil {
		return nil, err
	}

	r.RecordedAt, err = s.parseTimestamp(recordedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recorded_at: %w", err)
	}

	return &r, nil
}

// scanReadings scans multiple rows into a slice of readings
func (s *SQLiteStore) scanReadings(rows *sql.Rows) ([]*models.Reading, error) {
	var readings []*models.Reading

	for rows.Next() {
		var r models.Reading
		var recordedAt string

		err := rows.Scan(&r.ID, &r.DeviceID, &r.Moisture, &r.Temperature, &recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}

		r.RecordedAt, err = s.parseTimestamp(recordedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}

		readings = append(readings, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return readings, nil
}

// parseTimestamp tries multiple formats to parse a SQLite timestamp.
// Timestamps are stored without a zone marker and are always UTC.
func (s *SQLiteStore) parseTimestamp(ts string) (time.Time, error) {
	formats := []string{
		sqliteTimeFormat,
		"2006-01-02 15:04:05",
		time.RFC3339,
		time.RFC3339Nano,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse timestamp: %s", ts)
}
