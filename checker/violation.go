package checker

import (
	"fmt"
	"sync"

	"github.com/sarchlab/awcheck/hooking"
	"github.com/sarchlab/awcheck/id"
	"github.com/sarchlab/awcheck/timing"
)

// A Violation records one broken rule at one edge.
type Violation struct {
	ID      string              `json:"id"`
	Cycle   timing.VTimeInCycle `json:"cycle"`
	Time    timing.VTimeInSec   `json:"time"`
	Rule    RuleID              `json:"rule"`
	Watcher string              `json:"watcher"`
	Message string              `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("[cycle %d] %s (%s): %s",
		v.Cycle, v.Rule, v.Rule.Description(), v.Message)
}

// A ViolationReporter receives violations as soon as they are detected.
type ViolationReporter interface {
	Report(v Violation)
}

// HookPosViolation is triggered for every violation added to a ViolationLog.
// The hook item is the Violation.
var HookPosViolation = &hooking.HookPos{Name: "Violation"}

// ViolationLog is an append-only, ordered record of violations. It is safe to
// report from multiple goroutines. Hooks run while the log is locked, so they
// never run concurrently with each other.
type ViolationLog struct {
	*hooking.HookableBase

	lock       sync.Mutex
	idGen      id.Generator
	violations []Violation
}

// NewViolationLog creates an empty log that numbers violations sequentially.
func NewViolationLog() *ViolationLog {
	return NewViolationLogWithIDGenerator(id.NewSequentialGenerator())
}

// NewViolationLogWithIDGenerator creates an empty log that draws violation IDs
// from g.
func NewViolationLogWithIDGenerator(g id.Generator) *ViolationLog {
	return &ViolationLog{
		HookableBase: hooking.NewHookableBase(),
		idGen:        g,
	}
}

// Report appends a violation. Every call adds exactly one record.
func (l *ViolationLog) Report(v Violation) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if v.ID == "" {
		v.ID = l.idGen.Generate()
	}

	l.violations = append(l.violations, v)

	l.InvokeHook(hooking.HookCtx{
		Domain: l,
		Pos:    HookPosViolation,
		Item:   v,
	})
}

// Len returns the number of recorded violations.
func (l *ViolationLog) Len() int {
	l.lock.Lock()
	defer l.lock.Unlock()

	return len(l.violations)
}

// Violations returns a copy of all recorded violations in detection order.
func (l *ViolationLog) Violations() []Violation {
	return l.Since(0)
}

// Since returns a copy of the violations recorded after the first i.
func (l *ViolationLog) Since(i int) []Violation {
	l.lock.Lock()
	defer l.lock.Unlock()

	if i < 0 {
		i = 0
	}

	if i >= len(l.violations) {
		return nil
	}

	out := make([]Violation, len(l.violations)-i)
	copy(out, l.violations[i:])

	return out
}

// CountByRule returns the number of violations of each rule. Every rule has
// an entry.
func (l *ViolationLog) CountByRule() map[RuleID]int {
	l.lock.Lock()
	defer l.lock.Unlock()

	counts := make(map[RuleID]int, len(AllRules))
	for _, r := range AllRules {
		counts[r] = 0
	}

	for _, v := range l.violations {
		counts[v.Rule]++
	}

	return counts
}
