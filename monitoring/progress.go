package monitoring

import (
	"sync"
	"time"

	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/hooking"
)

// A ProgressBar is a tracker of the progress
type ProgressBar struct {
	sync.Mutex
	ID         string
	Name       string
	StartTime  time.Time
	Total      uint64
	Finished   uint64
	InProgress uint64
}

// ProgressBarStatus is a copy of a progress bar taken under its lock.
type ProgressBarStatus struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// Status returns the current state of the bar.
func (b *ProgressBar) Status() ProgressBarStatus {
	b.Lock()
	defer b.Unlock()

	return ProgressBarStatus{
		ID:         b.ID,
		Name:       b.Name,
		StartTime:  b.StartTime,
		Total:      b.Total,
		Finished:   b.Finished,
		InProgress: b.InProgress,
	}
}

// IncrementInProgress adds the number of in-progress element.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress += amount
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MoveInProgressToFinished reduces the number of in progress item by a certain
// amount and increase the finished item by the same amount.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.InProgress -= amount
	b.Finished += amount
}

// EdgeProgress is a hook that advances a progress bar on every clock edge and
// removes the bar once the clock runs out of samples.
type EdgeProgress struct {
	monitor *Monitor
	bar     *ProgressBar
}

// TrackEdges creates a progress bar for an edge source. The total is the
// number of samples if the source knows it, and 0 otherwise.
func (m *Monitor) TrackEdges(src *clock.EdgeSource) *EdgeProgress {
	total := uint64(0)
	if n := src.Total(); n > 0 {
		total = uint64(n)
	}

	h := &EdgeProgress{
		monitor: m,
		bar:     m.CreateProgressBar(src.Name(), total),
	}
	src.AcceptHook(h)

	return h
}

// Bar returns the tracked progress bar.
func (h *EdgeProgress) Bar() *ProgressBar {
	return h.bar
}

// Func counts edges.
func (h *EdgeProgress) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case clock.HookPosEdge:
		h.bar.IncrementFinished(1)
	case clock.HookPosExhausted:
		h.monitor.CompleteProgressBar(h.bar)
	}
}
