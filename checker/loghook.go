package checker

import (
	"log"

	"github.com/sarchlab/awcheck/hooking"
)

// ViolationLogger is a hook that prints every violation it sees.
type ViolationLogger struct {
	*log.Logger
}

// NewViolationLogger creates a ViolationLogger that writes to logger.
func NewViolationLogger(logger *log.Logger) *ViolationLogger {
	return &ViolationLogger{Logger: logger}
}

// Func writes one line per violation.
func (h *ViolationLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosViolation {
		return
	}

	v, ok := ctx.Item.(Violation)
	if !ok {
		return
	}

	h.Printf("%s %s", v.ID, v)
}
