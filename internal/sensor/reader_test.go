// internal/sensor/reader_test.go
package sensor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KKumarrC/esp32-plant-monitor-api/internal/models"
	"github.com/rs/zerolog"
)

// mockProbe implements Probe for testing
type mockProbe struct {
	moisture    int
	temperature float64
	err         error
	readCount   atomic.Int64
}

func (m *mockProbe) Read() (int, float64, error) {
	m.readCount.Add(1)
	return m.moisture, m.temperature, m.err
}

func (m *mockProbe) Close() error {
	return nil
}

func TestReader_ReadOnce(t *testing.T) {
	mock := &mockProbe{
		moisture:    512,
		temperature: 22.5,
	}

	logger := zerolog.Nop()
	reader := NewReader(mock, "greenhouse-01", 30*time.Second, logger)

	reading, err := reader.ReadOnce()
	if err != nil {
		t.Fatalf("ReadOnce() failed: %v", err)
	}

	if reading == nil {
		t.Fatal("ReadOnce() returned nil reading")
	}

	if reading.DeviceID != "greenhouse-01" {
		t.Errorf("DeviceID = %v, want greenhouse-01", reading.DeviceID)
	}
	if reading.Moisture != 512 {
		t.Errorf("Moisture = %v, want 512", reading.Moisture)
	}
	if reading.Temperature != 22.5 {
		t.Errorf("Temperature = %v, want 22.5", reading.Temperature)
	}
	if reading.RecordedAt.IsZero() {
		t.Error("RecordedAt should not be zero")
	}
}

func TestReader_ReadOnce_EmptyDeviceUsesDefault(t *testing.T) {
	mock := &mockProbe{moisture: 512, temperature: 22.5}
	reader := NewReader(mock, "", 30*time.Second, zerolog.Nop())

	reading, err := reader.ReadOnce()
	if err != nil {
		t.Fatalf("ReadOnce() failed: %v", err)
	}

	if reading.DeviceID != models.DefaultDeviceID {
		t.Errorf("DeviceID = %v, want %v", reading.DeviceID, models.DefaultDeviceID)
	}
}

func TestReader_ReadOnce_ProbeError(t *testing.T) {
	mock := &mockProbe{err: errors.New("sensor timeout")}
	reader := NewReader(mock, "greenhouse-01", 30*time.Second, zerolog.Nop())

	if _, err := reader.ReadOnce(); err == nil {
		t.Error("ReadOnce() expected error, got nil")
	}
}

func TestReader_Start(t *testing.T) {
	mock := &mockProbe{
		moisture:    512,
		temperature: 22.5,
	}

	logger := zerolog.Nop()

	// Use short interval for testing
	reader := NewReader(mock, "greenhouse-01", 100*time.Millisecond, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	// Start reader
	go reader.Start(ctx)

	// Collect readings
	readings := []*models.Reading{}
	timeout := time.After(600 * time.Millisecond)

readLoop:
	for {
		select {
		case reading, ok := <-reader.Readings():
			if !ok {
				break readLoop
			}
			readings = append(readings, reading)
		case <-timeout:
			break readLoop
		}
	}

	// Should have gotten ~4-5 readings (500ms / 100ms)
	if len(readings) < 3 {
		t.Errorf("Got %d readings, expected at least 3", len(readings))
	}

	// Check that mock was called
	if mock.readCount.Load() < 3 {
		t.Errorf("Mock read count = %d, expected at least 3", mock.readCount.Load())
	}
}

func TestReader_Start_SkipsFailedReads(t *testing.T) {
	mock := &mockProbe{err: errors.New("sensor timeout")}
	reader := NewReader(mock, "greenhouse-01", 50*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	go reader.Start(ctx)
	<-ctx.Done()

	// The loop kept ticking past the failures without publishing anything.
	if mock.readCount.Load() < 3 {
		t.Errorf("Mock read count = %d, expected at least 3", mock.readCount.Load())
	}
	select {
	case reading := <-reader.Readings():
		t.Errorf("got unexpected reading %v from a failing probe", reading)
	default:
	}
}
