package checker

import (
	"github.com/sarchlab/awcheck/hooking"
	"github.com/sarchlab/awcheck/signal"
)

// Builder can build checkers.
type Builder struct {
	widths   signal.Widths
	reporter ViolationReporter
	parallel bool
	rules    []RuleID
}

// MakeBuilder creates a builder for a checker with default widths, all four
// rules, and a fresh ViolationLog.
func MakeBuilder() Builder {
	return Builder{
		widths: signal.DefaultWidths(),
		rules:  AllRules,
	}
}

// WithWidths sets the bus widths.
func (b Builder) WithWidths(w signal.Widths) Builder {
	b.widths = w
	return b
}

// WithReporter sets where violations go.
func (b Builder) WithReporter(r ViolationReporter) Builder {
	b.reporter = r
	return b
}

// WithParallelWatchers makes the checker run each watcher on its own
// goroutine for every edge. Violations of the same edge then arrive in no
// particular order. Report is never called concurrently, so the reporter does
// not need to be safe for concurrent use.
func (b Builder) WithParallelWatchers() Builder {
	b.parallel = true
	return b
}

// WithRules limits the checker to the given rules.
func (b Builder) WithRules(rules ...RuleID) Builder {
	b.rules = rules
	return b
}

// Build creates a checker. It panics if the widths are invalid or a rule is
// unknown.
func (b Builder) Build(name string) *Checker {
	err := b.widths.Validate()
	if err != nil {
		panic(err)
	}

	reporter := b.reporter
	if reporter == nil {
		reporter = NewViolationLog()
	}

	c := &Checker{
		HookableBase: hooking.NewHookableBase(),
		name:         name,
		widths:       b.widths,
		reporter:     reporter,
		parallel:     b.parallel,
	}

	if b.parallel {
		c.serialized = &serializedReporter{reporter: reporter}
	}

	for _, r := range b.rules {
		c.watchers = append(c.watchers, newWatcher(name, r))
	}

	return c
}

func newWatcher(checkerName string, r RuleID) Watcher {
	name := checkerName + "." + r.String()

	switch r {
	case Check1:
		return NewHandshakeFollowWatcher(name)
	case Check2:
		return NewAlignmentWatcher(name)
	case Check3:
		return NewStallStabilityWatcher(name)
	case Check4:
		return NewBurstLastWatcher(name)
	default:
		panic("unknown rule " + r.String())
	}
}
