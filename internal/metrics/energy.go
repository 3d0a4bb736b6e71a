package metrics

import "math"

// EnergyTrace keeps the most recent kinetic-energy samples of a layout and
// reports when it has settled. It implements sim.Hooks.
type EnergyTrace struct {
	capacity  int
	threshold float64

	samples []float64
	next    int
	full    bool

	total float64
	count int
	peak  float64
	calm  int
}

// NewEnergyTrace keeps up to capacity samples. A frame whose energy per
// node is below threshold counts as calm.
func NewEnergyTrace(capacity int, threshold float64) *EnergyTrace {
	if capacity <= 0 {
		capacity = 1
	}
	return &EnergyTrace{
		capacity:  capacity,
		threshold: threshold,
		samples:   make([]float64, 0, capacity),
	}
}

func (e *EnergyTrace) Name() string { return "kinetic_energy" }

func (e *EnergyTrace) OnFrame(_, energy float64) { e.Observe(energy) }
func (e *EnergyTrace) OnRestart()                {}
func (e *EnergyTrace) OnWarning(error)           {}

func (e *EnergyTrace) Observe(energy float64) {
	if math.IsNaN(energy) || math.IsInf(energy, 0) {
		return
	}
	if len(e.samples) < e.capacity {
		e.samples = append(e.samples, energy)
	} else {
		e.samples[e.next] = energy
		e.full = true
	}
	e.next = (e.next + 1) % e.capacity

	e.total += energy
	e.count++
	e.peak = math.Max(e.peak, energy)
	if energy < e.threshold {
		e.calm++
	} else {
		e.calm = 0
	}
}

// Value returns the mean energy over every sample observed.
func (e *EnergyTrace) Value() float64 {
	if e.count == 0 {
		return 0
	}
	return e.total / float64(e.count)
}

func (e *EnergyTrace) Peak() float64 { return e.peak }

func (e *EnergyTrace) Last() float64 {
	if len(e.samples) == 0 {
		return 0
	}
	return e.samples[(e.next-1+e.capacity)%e.capacity]
}

// Series returns the retained samples, oldest first.
func (e *EnergyTrace) Series() []float64 {
	out := make([]float64, 0, len(e.samples))
	if e.full {
		out = append(out, e.samples[e.next:]...)
		out = append(out, e.samples[:e.next]...)
		return out
	}
	return append(out, e.samples...)
}

// Settled reports whether the last n frames were all calm.
func (e *EnergyTrace) Settled(n int) bool {
	return n > 0 && e.calm >= n
}

func (e *EnergyTrace) Reset() {
	e.samples = e.samples[:0]
	e.next = 0
	e.full = false
	e.total = 0
	e.count = 0
	e.peak = 0
	e.calm = 0
}
