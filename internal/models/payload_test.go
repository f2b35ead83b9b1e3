// internal/models/payload_test.go
package models

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeIngestPayload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string // substring of the error, empty for success
	}{
		{
			name: "valid full payload",
			body: `{"device_id": "esp32-1", "moisture": 510, "temperature": 22.7}`,
		},
		{
			name: "device_id omitted",
			body: `{"moisture": 480, "temperature": 21.0}`,
		},
		{
			name: "zero values are valid",
			body: `{"moisture": 0, "temperature": 0}`,
		},
		{
			name: "out of range values pass shape checks",
			body: `{"moisture": -40, "temperature": 300}`,
		},
		{
			name:    "moisture missing",
			body:    `{"temperature": 22.7}`,
			wantErr: "moisture data is missing",
		},
		{
			name:    "temperature missing",
			body:    `{"moisture": 510}`,
			wantErr: "temperature data is missing",
		},
		{
			name:    "moisture null",
			body:    `{"moisture": null, "temperature": 22.7}`,
			wantErr: "moisture data is missing",
		},
		{
			name:    "moisture as string",
			body:    `{"moisture": "510", "temperature": 22.7}`,
			wantErr: "moisture must be an integer",
		},
		{
			name:    "moisture as float",
			body:    `{"moisture": 510.5, "temperature": 22.7}`,
			wantErr: "moisture must be an integer",
		},
		{
			name:    "temperature as string",
			body:    `{"moisture": 510, "temperature": "warm"}`,
			wantErr: "temperature must be a number",
		},
		{
			name:    "device_id as number",
			body:    `{"device_id": 7, "moisture": 510, "temperature": 22.7}`,
			wantErr: "device_id must be a string",
		},
		{
			name:    "empty body",
			body:    ``,
			wantErr: "no data provided",
		},
		{
			name:    "malformed JSON",
			body:    `{"moisture": 510,`,
			wantErr: "malformed JSON body",
		},
		{
			name:    "JSON array instead of object",
			body:    `[510, 22.7]`,
			wantErr: "wrong type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := DecodeIngestPayload(strings.NewReader(tt.body))

			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("DecodeIngestPayload() error = %v, expected success", err)
				}
				if payload.Moisture == nil || payload.Temperature == nil {
					t.Fatalf("DecodeIngestPayload() returned incomplete payload: %+v", payload)
				}
				return
			}

			if err == nil {
				t.Fatalf("DecodeIngestPayload() = %+v, expected error containing %q", payload, tt.wantErr)
			}
			if !errors.Is(err, ErrInvalidPayload) {
				t.Errorf("error %v does not wrap ErrInvalidPayload", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, expected to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

// TestDecodeIngestPayload_BodyTooLarge checks a body cut off by an
// http.MaxBytesReader limit maps to a size error, not a generic JSON one.
func TestDecodeIngestPayload_BodyTooLarge(t *testing.T) {
	body := `{"device_id": "` + strings.Repeat("x", 4096) + `", "moisture": 510, "temperature": 22.7}`
	limited := http.MaxBytesReader(httptest.NewRecorder(), io.NopCloser(strings.NewReader(body)), 1024)

	_, err := DecodeIngestPayload(limited)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("error = %v, expected ErrInvalidPayload", err)
	}
	if !strings.Contains(err.Error(), "request body too large") {
		t.Errorf("error = %q, expected to mention the body cap", err.Error())
	}
}

func TestIngestPayload_Reading(t *testing.T) {
	moisture := 510
	temperature := 22.7

	payload := &IngestPayload{Moisture: &moisture, Temperature: &temperature}
	reading := payload.Reading()

	if reading.DeviceID != DefaultDeviceID {
		t.Errorf("DeviceID = %q, expected default %q", reading.DeviceID, DefaultDeviceID)
	}
	if reading.Moisture != 510 || reading.Temperature != 22.7 {
		t.Errorf("Reading() = %+v, expected values carried over", reading)
	}
	if reading.RecordedAt.IsZero() {
		t.Error("Reading() left RecordedAt unset")
	}
}
