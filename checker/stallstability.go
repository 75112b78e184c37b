package checker

import (
	"fmt"
	"strings"

	"github.com/looplab/fsm"

	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

const (
	stallIdle    = "IDLE"
	stallStalled = "STALLED"
)

func newStallFSM() *fsm.FSM {
	return fsm.NewFSM(
		stallIdle,
		fsm.Events{
			{Name: "stall", Src: []string{stallIdle}, Dst: stallStalled},
			{Name: "release", Src: []string{stallStalled}, Dst: stallIdle},
		},
		fsm.Callbacks{},
	)
}

// StallStabilityWatcher enforces CHECK3: while w_valid is high and w_ready is
// low, w_data, w_strb and w_last keep the values latched when the stall began.
type StallStabilityWatcher struct {
	watcherBase

	state      *fsm.FSM
	stallCycle timing.VTimeInCycle
	heldData   signal.Vector
	heldStrb   signal.Vector
	heldLast   signal.Logic
}

// NewStallStabilityWatcher creates a CHECK3 watcher.
func NewStallStabilityWatcher(name string) *StallStabilityWatcher {
	return &StallStabilityWatcher{
		watcherBase: watcherBase{name: name, rule: Check3},
		state:       newStallFSM(),
	}
}

// State returns IDLE or STALLED.
func (w *StallStabilityWatcher) State() string {
	return w.state.Current()
}

// Reset returns to IDLE.
func (w *StallStabilityWatcher) Reset() {
	w.state.SetState(stallIdle)
	w.stallCycle = 0
	w.heldData = signal.Vector{}
	w.heldStrb = signal.Vector{}
	w.heldLast = signal.Low
}

// Observe latches values on stall entry and compares every later stalled edge
// against them. Each mismatching edge is reported once.
func (w *StallStabilityWatcher) Observe(edge clock.Edge, r ViolationReporter) {
	s := edge.Snapshot

	if !s.WStalled() {
		if w.state.Is(stallStalled) {
			fireEvent(w.state, "release")
		}

		return
	}

	if w.state.Is(stallIdle) {
		fireEvent(w.state, "stall")
		w.stallCycle = edge.Cycle
		w.heldData = s.WData()
		w.heldStrb = s.WStrb()
		w.heldLast = s.WLast()

		return
	}

	changes := w.changedFields(s)
	if len(changes) == 0 {
		return
	}

	w.report(r, edge, fmt.Sprintf(
		"%s changed during stall started at cycle %d",
		strings.Join(changes, ", "), w.stallCycle))
}

func (w *StallStabilityWatcher) changedFields(s *signal.Snapshot) []string {
	var changes []string

	if !s.WData().Equal(w.heldData) {
		changes = append(changes, fmt.Sprintf(
			"w_data held %s observed %s", w.heldData, s.WData()))
	}

	if !s.WStrb().Equal(w.heldStrb) {
		changes = append(changes, fmt.Sprintf(
			"w_strb held %s observed %s", w.heldStrb, s.WStrb()))
	}

	if s.WLast() != w.heldLast {
		changes = append(changes, fmt.Sprintf(
			"w_last held %s observed %s", w.heldLast, s.WLast()))
	}

	return changes
}
