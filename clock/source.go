package clock

import (
	"errors"
	"fmt"

	"github.com/sarchlab/awcheck/hooking"
	"github.com/sarchlab/awcheck/timing"
)

// HookPosEdge is triggered for every edge before observers see it. The hook
// item is the Edge.
var HookPosEdge = &hooking.HookPos{Name: "Edge"}

// HookPosExhausted is triggered once the sample source runs dry.
var HookPosExhausted = &hooking.HookPos{Name: "Exhausted"}

// EdgeSource is a component that produces one Edge per cycle of the engine
// until its SampleSource is exhausted.
type EdgeSource struct {
	*hooking.HookableBase
	*timing.TickingComponent

	engine         timing.EventScheduler
	freq           timing.Freq
	resetActiveLow bool

	source    SampleSource
	observers []EdgeObserver

	numEdges  uint64
	exhausted bool
}

// RegisterObserver adds an observer. Observers see edges in registration
// order.
func (s *EdgeSource) RegisterObserver(o EdgeObserver) {
	s.observers = append(s.observers, o)
}

// Start schedules the first edge at the current cycle.
func (s *EdgeSource) Start() {
	s.TickNow()
}

// NumEdges returns how many edges have been produced.
func (s *EdgeSource) NumEdges() uint64 {
	return s.numEdges
}

// Exhausted tells if the sample source has run dry.
func (s *EdgeSource) Exhausted() bool {
	return s.exhausted
}

// Total returns the number of samples in the source, or -1 if unknown.
func (s *EdgeSource) Total() int {
	sized, ok := s.source.(Sized)
	if !ok {
		return -1
	}

	return sized.Len()
}

// Tick produces the edge of the current cycle. It stops making progress once
// the sample source is exhausted.
func (s *EdgeSource) Tick() (bool, error) {
	sample, ok, err := s.source.Next()
	if err != nil {
		return false, fmt.Errorf("%s: edge %d: %w", s.Name(), s.numEdges, err)
	}

	if !ok {
		s.exhausted = true
		s.InvokeHook(hooking.HookCtx{Domain: s, Pos: HookPosExhausted})

		return false, nil
	}

	if sample.Snapshot == nil {
		return false, fmt.Errorf("%s: edge %d: %w",
			s.Name(), s.numEdges, errNoSnapshot)
	}

	now := s.engine.CurrentTime()
	edge := Edge{
		Cycle:         now,
		Time:          s.freq.TimeOf(now),
		Reset:         sample.Reset,
		ResetAsserted: ResetAsserted(sample.Reset, s.resetActiveLow),
		Snapshot:      sample.Snapshot,
	}
	s.numEdges++

	s.InvokeHook(hooking.HookCtx{Domain: s, Pos: HookPosEdge, Item: edge})

	for _, o := range s.observers {
		err := o.ObserveEdge(edge)
		if err != nil {
			return false, err
		}
	}

	return true, nil
}

var errNoSnapshot = errors.New("sample has no snapshot")
