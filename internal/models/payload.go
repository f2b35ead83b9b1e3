package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidPayload covers everything wrong with an ingest body: malformed
// JSON, wrong field types, missing required fields. Handlers map it to 400.
var ErrInvalidPayload = errors.New("invalid payload")

var validate = validator.New()

// IngestPayload is the request body of POST /readings. Moisture and
// temperature are pointers so a missing field is distinguishable from a
// zero value. There are no range checks: a buggy device may send moisture
// -40 and it is stored as sent, so the history shows what the device
// actually reported.
type IngestPayload struct {
	DeviceID    string   `json:"device_id"`
	Moisture    *int     `json:"moisture" validate:"required"`
	Temperature *float64 `json:"temperature" validate:"required"`
}

// DecodeIngestPayload is the single validation pass over an ingest body.
// It returns either a fully validated payload or an error wrapping
// ErrInvalidPayload; partially validated data never escapes.
func DecodeIngestPayload(r io.Reader) (*IngestPayload, error) {
	var p IngestPayload
	if err := json.NewDecoder(r).Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: no data provided", ErrInvalidPayload)
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("%w: request body too large", ErrInvalidPayload)
		}
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			switch typeErr.Field {
			case "moisture":
				return nil, fmt.Errorf("%w: moisture must be an integer", ErrInvalidPayload)
			case "temperature":
				return nil, fmt.Errorf("%w: temperature must be a number", ErrInvalidPayload)
			case "device_id":
				return nil, fmt.Errorf("%w: device_id must be a string", ErrInvalidPayload)
			}
			return nil, fmt.Errorf("%w: wrong type for field %q", ErrInvalidPayload, typeErr.Field)
		}
		return nil, fmt.Errorf("%w: malformed JSON body", ErrInvalidPayload)
	}

	if err := validate.Struct(&p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				switch fe.StructField() {
				case "Moisture":
					return nil, fmt.Errorf("%w: moisture data is missing", ErrInvalidPayload)
				case "Temperature":
					return nil, fmt.Errorf("%w: temperature data is missing", ErrInvalidPayload)
				}
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	return &p, nil
}

// Reading builds the storage candidate from a validated payload, applying
// the device default and the service timestamp.
func (p *IngestPayload) Reading() *Reading {
	return NewReading(p.DeviceID, *p.Moisture, *p.Temperature)
}
