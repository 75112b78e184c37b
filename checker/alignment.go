package checker

import (
	"fmt"

	"github.com/sarchlab/awcheck/clock"
)

// AlignmentWatcher enforces CHECK2: the address of every handshake is aligned
// to the number of bytes per beat. It keeps no state between edges.
type AlignmentWatcher struct {
	watcherBase
}

// NewAlignmentWatcher creates a CHECK2 watcher.
func NewAlignmentWatcher(name string) *AlignmentWatcher {
	return &AlignmentWatcher{
		watcherBase: watcherBase{name: name, rule: Check2},
	}
}

// Reset does nothing.
func (w *AlignmentWatcher) Reset() {}

// Observe checks the alignment of an address handshake.
func (w *AlignmentWatcher) Observe(edge clock.Edge, r ViolationReporter) {
	s := edge.Snapshot
	if !s.AWHandshake() {
		return
	}

	bytes := s.BytesPerBeat()
	mask := bytes - 1

	if s.AWAddr()&mask != 0 {
		w.report(r, edge, fmt.Sprintf(
			"aw_addr=0x%x not aligned to %d bytes (aw_size=%d)",
			s.AWAddr(), bytes, s.AWSize()))
	}
}
