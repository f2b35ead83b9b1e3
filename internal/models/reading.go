package models

import (
	"fmt"
	"time"
)

// DefaultDeviceID is the partition used when a caller omits device_id.
// The current fleet is a single ESP32, so both ingestion and queries fall
// back to the same sentinel.
const DefaultDeviceID = "esp32-1"

// Reading is one stored soil-moisture/temperature sample. IDs are assigned
// by the store and strictly increase in insertion order across all devices;
// RecordedAt is assigned by the service clock, never by the device.
type Reading struct {
	ID          int64     `json:"id"`
	DeviceID    string    `json:"device_id"`
	Moisture    int       `json:"moisture"`
	Temperature float64   `json:"temperature"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// NewReading stamps a candidate reading with the current time. The ID stays
// zero until the store persists it.
func NewReading(deviceID string, moisture int, temperature float64) *Reading {
	if deviceID == "" {
		deviceID = DefaultDeviceID
	}
	return &Reading{
		DeviceID:    deviceID,
		Moisture:    moisture,
		Temperature: temperature,
		RecordedAt:  time.Now().UTC(),
	}
}

// get the reading as a string
func (r *Reading) String() string {
	return fmt.Sprintf("DeviceID: %s, RecordedAt: %s, Moisture: %d, Temperature: %.1f°C",
		r.DeviceID,
		r.RecordedAt.Format(time.RFC3339),
		r.Moisture,
		r.Temperature)
}
