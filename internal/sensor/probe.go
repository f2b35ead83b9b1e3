package sensor

// Probe defines the interface for reading the plant probes attached to a
// node: a soil moisture channel and an air temperature sensor.
type Probe interface {
	// Read performs a single reading from both probes.
	// Returns the raw soil moisture count, temperature (°C), and any error.
	Read() (moisture int, temperature float64, err error)

	// Close cleans up GPIO resources
	Close() error
}
