// internal/sensor/sim_test.go
package sensor

import (
	"testing"
)

func TestSimProbe_StaysInRange(t *testing.T) {
	probe := NewSimProbe()
	defer probe.Close()

	for i := 0; i < 500; i++ {
		moisture, temperature, err := probe.Read()
		if err != nil {
			t.Fatalf("Read() failed: %v", err)
		}
		if moisture < simMoistureMin || moisture > simMoistureMax {
			t.Fatalf("moisture = %d, want between %d and %d", moisture, simMoistureMin, simMoistureMax)
		}
		// The walk steps at most 0.2°C per read, so 500 reads cannot
		// plausibly drift this far from the seed.
		if temperature < simTempSeed-20 || temperature > simTempSeed+20 {
			t.Fatalf("temperature = %v drifted too far from seed %v", temperature, simTempSeed)
		}
	}
}

func TestSimProbe_ValuesVary(t *testing.T) {
	probe := NewSimProbe()
	defer probe.Close()

	_, first, err := probe.Read()
	if err != nil {
		t.Fatalf("Read() failed: %v", err)
	}

	varied := false
	for i := 0; i < 50; i++ {
		_, temperature, err := probe.Read()
		if err != nil {
			t.Fatalf("Read() failed: %v", err)
		}
		if temperature != first {
			varied = true
			break
		}
	}

	if !varied {
		t.Error("SimProbe returned the same temperature 50 times in a row")
	}
}

func TestSimProbe_Close(t *testing.T) {
	probe := NewSimProbe()
	if err := probe.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}
