// Package clock replays sampled bus values as a sequence of rising clock
// edges.
package clock

import (
	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

// An Edge is one rising clock edge together with the values sampled at it.
type Edge struct {
	// Cycle numbers the edge, starting from 0.
	Cycle timing.VTimeInCycle

	// Time is the simulated time of the edge.
	Time timing.VTimeInSec

	// Reset is the raw level of the reset signal.
	Reset signal.Logic

	// ResetAsserted tells if the bus is held in reset at this edge.
	ResetAsserted bool

	// Snapshot holds the bus values. Observers must treat it as read-only.
	Snapshot *signal.Snapshot
}

// An EdgeObserver consumes clock edges.
type EdgeObserver interface {
	ObserveEdge(edge Edge) error
}

// A Sample is what a SampleSource produces for one edge.
type Sample struct {
	Reset    signal.Logic
	Snapshot *signal.Snapshot
}

// A SampleSource supplies the samples of consecutive edges.
type SampleSource interface {
	// Next returns the next sample. ok is false once the source is exhausted.
	Next() (sample Sample, ok bool, err error)
}

// A Sized source knows how many samples it holds in total.
type Sized interface {
	Len() int
}

// SliceSource serves samples from memory.
type SliceSource struct {
	samples []Sample
	next    int
}

// NewSliceSource creates a SliceSource over the given samples.
func NewSliceSource(samples ...Sample) *SliceSource {
	return &SliceSource{samples: samples}
}

// Append adds samples to the end of the source.
func (s *SliceSource) Append(samples ...Sample) {
	s.samples = append(s.samples, samples...)
}

// Next returns the next sample.
func (s *SliceSource) Next() (Sample, bool, error) {
	if s.next >= len(s.samples) {
		return Sample{}, false, nil
	}

	sample := s.samples[s.next]
	s.next++

	return sample, true, nil
}

// Len returns the total number of samples.
func (s *SliceSource) Len() int {
	return len(s.samples)
}

// ResetAsserted derives the reset state from the raw reset level. Unknown and
// undriven levels count as asserted.
func ResetAsserted(level signal.Logic, activeLow bool) bool {
	if activeLow {
		return !level.IsHigh()
	}

	return !level.IsLow()
}
