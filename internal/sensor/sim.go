package sensor

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

const (
	simMoistureMin  = 200
	simMoistureMax  = 1800
	simMoistureSeed = 900
	simTempSeed     = 21.5
)

// SimProbe implements Probe without hardware. It random-walks plausible
// greenhouse values so the full pipeline can run on a laptop.
type SimProbe struct {
	mu          sync.Mutex
	rng         *rand.Rand
	moisture    float64
	temperature float64
}

// NewSimProbe creates a simulated probe seeded with mid-range values
func NewSimProbe() *SimProbe {
	return &SimProbe{
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		moisture:    simMoistureSeed,
		temperature: simTempSeed,
	}
}

// Read returns the next step of the random walk. Moisture stays clamped to
// the range a real capacitive probe produces in soil.
func (p *SimProbe) Read() (int, float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.moisture += (p.rng.Float64() - 0.5) * 40
	if p.moisture < simMoistureMin {
		p.moisture = simMoistureMin
	}
	if p.moisture > simMoistureMax {
		p.moisture = simMoistureMax
	}

	p.temperature += (p.rng.Float64() - 0.5) * 0.4

	return int(math.Round(p.moisture)), p.temperature, nil
}

// Close is a no-op; there is no hardware to release
func (p *SimProbe) Close() error {
	return nil
}
