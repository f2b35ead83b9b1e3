package sensor

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/afroash/dht"
)

// DHTProbe implements Probe for real hardware: a DHT11 on a GPIO pin for
// temperature, and a capacitive soil probe on an ADC channel exposed
// through the IIO sysfs interface.
type DHTProbe struct {
	pin          int
	maxRetries   int
	moisturePath string
	sensor       *dht.Sensor
}

// NewDHTProbe creates a probe for a DHT11 on the given pin and a soil
// moisture channel at moisturePath, e.g.
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
func NewDHTProbe(pin int, moisturePath string) (*DHTProbe, error) {
	sensor, err := dht.NewDHT11(pin)
	if err != nil {
		return nil, fmt.Errorf("failed to open DHT11 on pin %d: %w", pin, err)
	}
	return &DHTProbe{
		pin:          pin,
		maxRetries:   3,
		moisturePath: moisturePath,
		sensor:       sensor,
	}, nil
}

// Read performs a reading from both probes with retry logic on the DHT11.
// Values are reported as measured; a detached soil probe shows up as an
// out-of-range count, which the service stores so the fault is visible.
func (p *DHTProbe) Read() (int, float64, error) {
	reading, err := p.sensor.ReadRetry(p.maxRetries)
	if err != nil {
		return 0, 0, fmt.Errorf("after %d retries, failed to read from DHT11", p.maxRetries)
	}

	moisture, err := readMoistureRaw(p.moisturePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read soil moisture: %w", err)
	}

	return moisture, reading.Temperature, nil
}

// Close cleans up GPIO resources
func (p *DHTProbe) Close() error {
	return p.sensor.Close()
}

// readMoistureRaw reads one ADC sample from an IIO sysfs channel file. The
// kernel writes the count as decimal text with a trailing newline.
func readMoistureRaw(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(string(data))
	raw, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("unexpected ADC value %q in %s", text, path)
	}
	return raw, nil
}
