package checker

import (
	"fmt"

	"github.com/looplab/fsm"

	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/timing"
)

const (
	burstWaitingForAW  = "WAITING_FOR_AW"
	burstCountingBeats = "COUNTING_BEATS"
)

func newBurstFSM() *fsm.FSM {
	return fsm.NewFSM(
		burstWaitingForAW,
		fsm.Events{
			{Name: "open", Src: []string{burstWaitingForAW}, Dst: burstCountingBeats},
			{Name: "complete", Src: []string{burstCountingBeats}, Dst: burstWaitingForAW},
		},
		fsm.Callbacks{},
	)
}

// BurstLastWatcher enforces CHECK4: a burst declared with aw_len = n is
// followed by n+1 data beats, and w_last is high on the final beat only.
//
// Only one burst may be outstanding. An address handshake that arrives before
// the previous burst has received all its beats is reported and starts a new
// count.
type BurstLastWatcher struct {
	watcherBase

	state      *fsm.FSM
	beats      uint64
	beatIndex  uint64
	burstCycle timing.VTimeInCycle
	burstAddr  uint64
}

// NewBurstLastWatcher creates a CHECK4 watcher.
func NewBurstLastWatcher(name string) *BurstLastWatcher {
	return &BurstLastWatcher{
		watcherBase: watcherBase{name: name, rule: Check4},
		state:       newBurstFSM(),
	}
}

// State returns the name of the current state.
func (w *BurstLastWatcher) State() string {
	return w.state.Current()
}

// Progress returns the beats received and expected for the current burst.
func (w *BurstLastWatcher) Progress() (beatIndex, beats uint64) {
	return w.beatIndex, w.beats
}

// Reset returns to WAITING_FOR_AW.
func (w *BurstLastWatcher) Reset() {
	w.state.SetState(burstWaitingForAW)
	w.beats = 0
	w.beatIndex = 0
	w.burstCycle = 0
	w.burstAddr = 0
}

// Observe counts the beat of this edge, if any, against the open burst and
// then opens a new burst on an address handshake. Beats are only counted on
// edges after the one that opened the burst.
func (w *BurstLastWatcher) Observe(edge clock.Edge, r ViolationReporter) {
	s := edge.Snapshot

	if w.state.Is(burstCountingBeats) && s.WHandshake() {
		w.countBeat(edge, r)
	}

	if !s.AWHandshake() {
		return
	}

	if w.state.Is(burstCountingBeats) {
		w.report(r, edge, fmt.Sprintf(
			"burst overlap: address handshake at 0x%x while burst at 0x%x "+
				"(cycle %d) has received beat %d of %d",
			s.AWAddr(), w.burstAddr, w.burstCycle, w.beatIndex, w.beats))
	}

	if w.state.Is(burstWaitingForAW) {
		fireEvent(w.state, "open")
	}

	w.beats = s.Beats()
	w.beatIndex = 0
	w.burstCycle = edge.Cycle
	w.burstAddr = s.AWAddr()
}

func (w *BurstLastWatcher) countBeat(edge clock.Edge, r ViolationReporter) {
	s := edge.Snapshot
	w.beatIndex++

	if w.beatIndex < w.beats && s.WLast().IsHigh() {
		w.report(r, edge, fmt.Sprintf(
			"early last: w_last=1 on beat %d of %d (burst at cycle %d)",
			w.beatIndex, w.beats, w.burstCycle))
	}

	if w.beatIndex == w.beats {
		if !s.WLast().IsHigh() {
			w.report(r, edge, fmt.Sprintf(
				"missing last: w_last=%s on beat %d of %d, expected 1 "+
					"(burst at cycle %d)",
				s.WLast(), w.beatIndex, w.beats, w.burstCycle))
		}

		fireEvent(w.state, "complete")
	}
}
