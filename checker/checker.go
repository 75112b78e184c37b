package checker

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/hooking"
	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

// HookPosCheckerStart is triggered when reset is first seen deasserted and the
// watchers start. The hook item is the starting Edge.
var HookPosCheckerStart = &hooking.HookPos{Name: "CheckerStart"}

// HookPosEdgeChecked is triggered after all watchers have observed an edge.
// The hook item is the Edge.
var HookPosEdgeChecked = &hooking.HookPos{Name: "EdgeChecked"}

// ErrEdgeOutOfOrder is returned when an edge is not later than the previous
// one.
var ErrEdgeOutOfOrder = errors.New("edge out of order")

// Checker supervises the watchers. It holds them back until reset deasserts
// and then feeds every edge to all of them.
type Checker struct {
	*hooking.HookableBase

	name     string
	widths   signal.Widths
	reporter ViolationReporter
	watchers []Watcher
	parallel bool

	// serialized guards the reporter while watchers run concurrently.
	serialized *serializedReporter

	started       bool
	startCycle    timing.VTimeInCycle
	hasLastEdge   bool
	lastCycle     timing.VTimeInCycle
	edgesObserved uint64
	edgesSkipped  uint64
}

// Name returns the name of the checker.
func (c *Checker) Name() string {
	return c.name
}

// Widths returns the bus widths the checker validates against.
func (c *Checker) Widths() signal.Widths {
	return c.widths
}

// Watchers returns the watchers in evaluation order.
func (c *Checker) Watchers() []Watcher {
	return c.watchers
}

// Watcher returns the watcher with the given name, or nil.
func (c *Checker) Watcher(name string) Watcher {
	for _, w := range c.watchers {
		if w.Name() == name {
			return w
		}
	}

	return nil
}

// Reporter returns where violations are sent.
func (c *Checker) Reporter() ViolationReporter {
	return c.reporter
}

// Started tells if reset has been seen deasserted.
func (c *Checker) Started() bool {
	return c.started
}

// ObserveEdge feeds one edge to the watchers. Edges before the first
// deasserted reset are skipped. Once started, the watchers see every edge,
// even if reset asserts again.
//
// The returned error is about the input itself (a missing or malformed
// snapshot, or an edge out of order). Protocol violations are never returned
// as errors.
func (c *Checker) ObserveEdge(edge clock.Edge) error {
	err := c.edgeMustBeWellFormed(edge)
	if err != nil {
		return fmt.Errorf("%s: %w", c.name, err)
	}

	c.hasLastEdge = true
	c.lastCycle = edge.Cycle

	if !c.started {
		if edge.ResetAsserted {
			c.edgesSkipped++
			return nil
		}

		c.start(edge)
	}

	c.edgesObserved++
	c.dispatch(edge)

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosEdgeChecked,
		Item:   edge,
	})

	return nil
}

func (c *Checker) edgeMustBeWellFormed(edge clock.Edge) error {
	if c.hasLastEdge && edge.Cycle <= c.lastCycle {
		return fmt.Errorf("%w: cycle %d after cycle %d",
			ErrEdgeOutOfOrder, edge.Cycle, c.lastCycle)
	}

	if edge.Snapshot == nil {
		return fmt.Errorf("cycle %d: edge has no snapshot", edge.Cycle)
	}

	err := edge.Snapshot.Validate(c.widths)
	if err != nil {
		return fmt.Errorf("cycle %d: %w", edge.Cycle, err)
	}

	return nil
}

func (c *Checker) start(edge clock.Edge) {
	for _, w := range c.watchers {
		w.Reset()
	}

	c.started = true
	c.startCycle = edge.Cycle

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    HookPosCheckerStart,
		Item:   edge,
	})
}

func (c *Checker) dispatch(edge clock.Edge) {
	if !c.parallel {
		for _, w := range c.watchers {
			w.Observe(edge, c.reporter)
		}

		return
	}

	var wg sync.WaitGroup
	for _, w := range c.watchers {
		wg.Add(1)
		go func(w Watcher) {
			defer wg.Done()
			w.Observe(edge, c.serialized)
		}(w)
	}
	wg.Wait()
}

// serializedReporter forwards one violation at a time, so reporters that are
// not safe for concurrent use still work with parallel watchers.
type serializedReporter struct {
	lock     sync.Mutex
	reporter ViolationReporter
}

func (r *serializedReporter) Report(v Violation) {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.reporter.Report(v)
}

// Summary describes the progress of a checker.
type Summary struct {
	Name          string              `json:"name"`
	Started       bool                `json:"started"`
	StartCycle    timing.VTimeInCycle `json:"start_cycle"`
	EdgesObserved uint64              `json:"edges_observed"`
	EdgesSkipped  uint64              `json:"edges_skipped"`
	Violations    map[RuleID]int      `json:"violations"`
	Total         int                 `json:"total"`
}

type ruleCounter interface {
	CountByRule() map[RuleID]int
}

// Summary returns the edge counters and, if the reporter can count them, the
// number of violations per rule.
func (c *Checker) Summary() Summary {
	s := Summary{
		Name:          c.name,
		Started:       c.started,
		StartCycle:    c.startCycle,
		EdgesObserved: c.edgesObserved,
		EdgesSkipped:  c.edgesSkipped,
	}

	counter, ok := c.reporter.(ruleCounter)
	if !ok {
		return s
	}

	s.Violations = counter.CountByRule()
	for _, n := range s.Violations {
		s.Total += n
	}

	return s
}
