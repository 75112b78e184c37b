package clock

import (
	"github.com/sarchlab/awcheck/hooking"
	"github.com/sarchlab/awcheck/timing"
)

// Builder can build edge sources.
type Builder struct {
	engine         timing.EventScheduler
	freq           timing.Freq
	resetActiveLow bool
}

// MakeBuilder creates a builder with a 100MHz active-low-reset clock.
func MakeBuilder() Builder {
	return Builder{
		freq:           100 * timing.MHz,
		resetActiveLow: true,
	}
}

// WithEngine sets the engine that drives the clock.
func (b Builder) WithEngine(engine timing.EventScheduler) Builder {
	b.engine = engine
	return b
}

// WithFreq sets the clock frequency. It only affects edge timestamps.
func (b Builder) WithFreq(freq timing.Freq) Builder {
	b.freq = freq
	return b
}

// WithResetActiveLow sets the reset polarity.
func (b Builder) WithResetActiveLow(activeLow bool) Builder {
	b.resetActiveLow = activeLow
	return b
}

// Build creates an EdgeSource that replays the given samples.
func (b Builder) Build(name string, source SampleSource) *EdgeSource {
	if b.engine == nil {
		panic("clock: engine is not set")
	}

	if source == nil {
		panic("clock: sample source is not set")
	}

	if b.freq <= 0 {
		panic("clock: frequency must be positive")
	}

	s := &EdgeSource{
		HookableBase:   hooking.NewHookableBase(),
		engine:         b.engine,
		freq:           b.freq,
		resetActiveLow: b.resetActiveLow,
		source:         source,
	}
	s.TickingComponent = timing.NewTickingComponent(name, b.engine, s)

	return s
}
