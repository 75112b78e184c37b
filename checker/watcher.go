// Package checker verifies the write address and write data channels of a
// ready/valid bus against four protocol rules.
//
// Each rule is evaluated by its own Watcher, a small state machine that sees
// every clock edge after reset and keeps private state between edges. The
// Checker hands the same read-only snapshot to all watchers on each edge.
// Watchers report violations to a ViolationReporter and never stop on a
// violation.
package checker

import (
	"context"
	"errors"

	"github.com/looplab/fsm"

	"github.com/sarchlab/awcheck/clock"
)

// A Watcher evaluates one rule edge by edge.
type Watcher interface {
	// Name returns the name of the watcher.
	Name() string

	// Rule returns the rule the watcher enforces.
	Rule() RuleID

	// Observe advances the watcher by one edge. Violations found at this
	// edge are sent to r.
	Observe(edge clock.Edge, r ViolationReporter)

	// Reset returns the watcher to its initial state.
	Reset()
}

type watcherBase struct {
	name string
	rule RuleID
}

func (w *watcherBase) Name() string {
	return w.name
}

func (w *watcherBase) Rule() RuleID {
	return w.rule
}

func (w *watcherBase) report(
	r ViolationReporter,
	edge clock.Edge,
	msg string,
) {
	r.Report(Violation{
		Cycle:   edge.Cycle,
		Time:    edge.Time,
		Rule:    w.rule,
		Watcher: w.name,
		Message: msg,
	})
}

// fireEvent moves a watcher state machine. Callers check the current state
// first, so any error other than a transition to the same state is a bug.
func fireEvent(f *fsm.FSM, event string) {
	err := f.Event(context.Background(), event)
	if err == nil {
		return
	}

	var noTransition fsm.NoTransitionError
	if errors.As(err, &noTransition) {
		return
	}

	panic(err)
}
