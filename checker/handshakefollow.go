package checker

import (
	"fmt"

	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/timing"
)

type handshakeFollowState int

const (
	waitingForAW handshakeFollowState = iota
	waitingForNextEdge
)

func (s handshakeFollowState) String() string {
	if s == waitingForNextEdge {
		return "WAITING_FOR_NEXT_EDGE"
	}

	return "WAITING_FOR_AW"
}

// HandshakeFollowWatcher enforces CHECK1: the edge right after an address
// handshake must have w_valid high.
type HandshakeFollowWatcher struct {
	watcherBase

	state          handshakeFollowState
	handshakeCycle timing.VTimeInCycle
}

// NewHandshakeFollowWatcher creates a CHECK1 watcher.
func NewHandshakeFollowWatcher(name string) *HandshakeFollowWatcher {
	return &HandshakeFollowWatcher{
		watcherBase: watcherBase{name: name, rule: Check1},
	}
}

// State returns the name of the current state.
func (w *HandshakeFollowWatcher) State() string {
	return w.state.String()
}

// Reset returns to WAITING_FOR_AW.
func (w *HandshakeFollowWatcher) Reset() {
	w.state = waitingForAW
	w.handshakeCycle = 0
}

// Observe checks the edge following a handshake, then arms again if this edge
// is itself a handshake. Back-to-back handshakes are each checked.
func (w *HandshakeFollowWatcher) Observe(edge clock.Edge, r ViolationReporter) {
	s := edge.Snapshot

	if w.state == waitingForNextEdge {
		if !s.WValid().IsHigh() {
			w.report(r, edge, fmt.Sprintf(
				"w_valid=%s, expected 1 on the edge after the address "+
					"handshake at cycle %d",
				s.WValid(), w.handshakeCycle))
		}

		w.state = waitingForAW
	}

	if s.AWHandshake() {
		w.state = waitingForNextEdge
		w.handshakeCycle = edge.Cycle
	}
}
