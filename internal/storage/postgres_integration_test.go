//go:build integration
// +build integration

package storage

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

// setupPostgres connects to the database named by TEST_DATABASE_URL and
// isolates the run in a throwaway table namespace.
// Run with: go test -tags=integration -v ./internal/storage/
func setupPostgres(t *testing.T) (*PostgresStore, func()) {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres integration tests")
	}

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, databaseURL, testLogger())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	// Each run starts from an empty table.
	if _, err := store.pool.Exec(ctx, "TRUNCATE readings RESTART IDENTITY"); err != nil {
		store.Close()
		t.Fatalf("Failed to truncate readings: %v", err)
	}

	cleanup := func() {
		store.pool.Exec(ctx, "TRUNCATE readings RESTART IDENTITY")
		store.Close()
	}

	return store, cleanup
}

// TestPostgres_AppendAndLatest tests the basic write/read cycle against a
// real Postgres instance
func TestPostgres_AppendAndLatest(t *testing.T) {
	store, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	id, err := store.Append(ctx, createTestReading("esp32-1", 510, 22.7, now))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if id != 1 {
		t.Errorf("first Append id = %d, want 1", id)
	}

	latest, err := store.Latest(ctx, "esp32-1")
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.ID != id || latest.Moisture != 510 || latest.Temperature != 22.7 {
		t.Errorf("Latest = %+v, want stored reading back", latest)
	}
	if !latest.RecordedAt.Equal(now) {
		t.Errorf("RecordedAt = %v, want %v", latest.RecordedAt, now)
	}

	_, err = store.Latest(ctx, "nonexistent-device")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Latest error = %v, want ErrNotFound", err)
	}
}

// TestPostgres_RangeAndAggregate tests window queries against a real
// Postgres instance
func TestPostgres_RangeAndAggregate(t *testing.T) {
	store, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Now().UTC().Add(-1 * time.Hour).Truncate(time.Second)

	for i := 0; i < 10; i++ {
		if _, err := store.Append(ctx, createTestReading("esp32-1", 400+i, 18.0+float64(i), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	readings, err := store.Range(ctx, "esp32-1", base.Add(2*time.Minute), base.Add(7*time.Minute), 100)
	if err != nil {
		t.Fatalf("Range failed: %v", err)
	}
	if len(readings) != 6 {
		t.Fatalf("Got %d readings, want 6 (inclusive bounds)", len(readings))
	}
	for i := 1; i < len(readings); i++ {
		if readings[i].ID <= readings[i-1].ID {
			t.Errorf("Readings not in ascending id order at index %d", i)
		}
	}

	summary, err := store.Aggregate(ctx, "esp32-1", base.Add(-time.Hour))
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if summary.Moisture.Count != 10 {
		t.Errorf("Moisture.Count = %d, want 10", summary.Moisture.Count)
	}
	if summary.Moisture.Min == nil || *summary.Moisture.Min != 400 {
		t.Errorf("Moisture.Min = %v, want 400", summary.Moisture.Min)
	}
	if summary.Moisture.Max == nil || *summary.Moisture.Max != 409 {
		t.Errorf("Moisture.Max = %v, want 409", summary.Moisture.Max)
	}
	if summary.Moisture.Mean == nil || *summary.Moisture.Mean != 404.5 {
		t.Errorf("Moisture.Mean = %v, want 404.5", summary.Moisture.Mean)
	}

	empty, err := store.Aggregate(ctx, "nonexistent-device", base)
	if err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if empty.Moisture.Count != 0 || empty.Moisture.Min != nil {
		t.Errorf("Empty aggregate = %+v, want count 0 and nil stats", empty.Moisture)
	}
}

// TestPostgres_StatsAndDevices tests store-wide bookkeeping against a real
// Postgres instance
func TestPostgres_StatsAndDevices(t *testing.T) {
	store, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	for i, device := range []string{"esp32-1", "greenhouse-7", "esp32-1"} {
		if _, err := store.Append(ctx, createTestReading(device, 500+i, 22.0, now.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	devices, err := store.Devices(ctx)
	if err != nil {
		t.Fatalf("Devices failed: %v", err)
	}
	if len(devices) != 2 {
		t.Errorf("Got %d devices, want 2", len(devices))
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalReadings != 3 {
		t.Errorf("TotalReadings = %d, want 3", stats.TotalReadings)
	}
	if stats.UniqueDevices != 2 {
		t.Errorf("UniqueDevices = %d, want 2", stats.UniqueDevices)
	}
	if stats.OldestReading == nil || stats.NewestReading == nil {
		t.Fatalf("Stats timestamps missing: %+v", stats)
	}
	if !stats.NewestReading.After(*stats.OldestReading) {
		t.Errorf("NewestReading %v not after OldestReading %v", stats.NewestReading, stats.OldestReading)
	}
}

// TestPostgres_IDsNeverReused tests that the sequence does not reset after
// deletes, mirroring the append-only id contract
func TestPostgres_IDsNeverReused(t *testing.T) {
	store, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now().UTC()

	first, err := store.Append(ctx, createTestReading("esp32-1", 500, 22.0, now))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	// Simulate an operator deleting rows by hand; the sequence must not
	// give the id back.
	if _, err := store.pool.Exec(ctx, "DELETE FROM readings"); err != nil {
		t.Fatalf("manual delete failed: %v", err)
	}

	second, err := store.Append(ctx, createTestReading("esp32-1", 501, 22.1, now))
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if second <= first {
		t.Errorf("id after delete = %d, want > %d", second, first)
	}
}
