// Package timing provides the discrete-event engine that replays clock edges
// into the checker.
package timing

import (
	"fmt"
	"math"
)

// VTimeInCycle is simulated time counted in clock cycles.
type VTimeInCycle uint64

// VTimeInSec defines the time in the simulated space in the unit of second.
type VTimeInSec float64

// Freq defines the type of frequency.
type Freq float64

// Defines the unit of frequency.
const (
	Hz  Freq = 1
	KHz Freq = 1e3
	MHz Freq = 1e6
	GHz Freq = 1e9
)

// Period returns the time between two consecutive ticks.
func (f Freq) Period() VTimeInSec {
	f.mustBeValid()
	return VTimeInSec(1.0 / f)
}

// TimeOf converts a cycle count into seconds.
func (f Freq) TimeOf(cycle VTimeInCycle) VTimeInSec {
	f.mustBeValid()
	return VTimeInSec(float64(cycle) / float64(f))
}

// Cycle converts a time to the number of cycles passed since time 0.
func (f Freq) Cycle(time VTimeInSec) VTimeInCycle {
	f.mustBeValid()
	if math.IsNaN(float64(time)) || time < 0 {
		panic(fmt.Sprintf("timing: invalid time %v", time))
	}

	return VTimeInCycle(math.Round(float64(time) * float64(f)))
}

// String formats the frequency with the largest unit that keeps it >= 1.
func (f Freq) String() string {
	switch {
	case f >= GHz:
		return fmt.Sprintf("%gGHz", float64(f/GHz))
	case f >= MHz:
		return fmt.Sprintf("%gMHz", float64(f/MHz))
	case f >= KHz:
		return fmt.Sprintf("%gKHz", float64(f/KHz))
	default:
		return fmt.Sprintf("%gHz", float64(f))
	}
}

func (f Freq) mustBeValid() {
	if f <= 0 || math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		panic("timing: frequency must be positive")
	}
}
