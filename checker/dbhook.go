package checker

import (
	"github.com/sarchlab/awcheck/datarecording"
	"github.com/sarchlab/awcheck/hooking"
)

// ViolationTable is the name of the table that DBRecorder writes to.
const ViolationTable = "violations"

// ViolationEntry is one row of the violations table.
type ViolationEntry struct {
	ID      string
	Cycle   uint64
	Time    float64
	Rule    string
	Watcher string
	Message string
}

// NewViolationEntry converts a violation into a table row.
func NewViolationEntry(v Violation) ViolationEntry {
	return ViolationEntry{
		ID:      v.ID,
		Cycle:   uint64(v.Cycle),
		Time:    float64(v.Time),
		Rule:    v.Rule.String(),
		Watcher: v.Watcher,
		Message: v.Message,
	}
}

// DBRecorder is a hook that stores violations through a DataRecorder.
type DBRecorder struct {
	recorder datarecording.DataRecorder
}

// NewDBRecorder creates the violations table and returns a hook that fills it.
func NewDBRecorder(recorder datarecording.DataRecorder) *DBRecorder {
	recorder.CreateTable(ViolationTable, ViolationEntry{})

	return &DBRecorder{recorder: recorder}
}

// Func buffers one row per violation.
func (h *DBRecorder) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosViolation {
		return
	}

	v, ok := ctx.Item.(Violation)
	if !ok {
		return
	}

	h.recorder.InsertData(ViolationTable, NewViolationEntry(v))
}
