package timing

import (
	"fmt"
	"sync"
)

// TickEvent asks a ticking component to advance by one cycle.
type TickEvent struct {
	Cycle VTimeInCycle
}

// A Ticker is an object that updates states with ticks. Tick returns false
// once the ticker has nothing more to do.
type Ticker interface {
	Tick() (progress bool, err error)
}

// TickScheduler schedules tick events for a handler, at most one per cycle.
type TickScheduler struct {
	lock    sync.Mutex
	handler Handler
	engine  EventScheduler

	scheduled    bool
	nextTickTime VTimeInCycle
}

// NewTickScheduler creates a scheduler for tick events.
func NewTickScheduler(handler Handler, engine EventScheduler) *TickScheduler {
	return &TickScheduler{
		handler: handler,
		engine:  engine,
	}
}

// TickNow schedules a tick in the current cycle.
func (t *TickScheduler) TickNow() {
	t.schedule(t.engine.CurrentTime())
}

// TickLater schedules a tick in the next cycle.
func (t *TickScheduler) TickLater() {
	t.schedule(t.engine.CurrentTime() + 1)
}

func (t *TickScheduler) schedule(time VTimeInCycle) {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.scheduled && t.nextTickTime >= time {
		return
	}

	t.scheduled = true
	t.nextTickTime = time
	t.engine.Schedule(ScheduledEvent{
		Event:   &TickEvent{Cycle: time},
		Time:    time,
		Handler: t.handler,
	})
}

// TickingComponent keeps ticking every cycle as long as its Ticker makes
// progress.
type TickingComponent struct {
	*TickScheduler

	name   string
	ticker Ticker
}

// NewTickingComponent creates a new ticking component.
func NewTickingComponent(
	name string,
	engine EventScheduler,
	ticker Ticker,
) *TickingComponent {
	tc := &TickingComponent{name: name, ticker: ticker}
	tc.TickScheduler = NewTickScheduler(tc, engine)

	return tc
}

// Name returns the name of the component.
func (c *TickingComponent) Name() string {
	return c.name
}

// Handle triggers the tick function of the Ticker.
func (c *TickingComponent) Handle(e any) error {
	if _, ok := e.(*TickEvent); !ok {
		return fmt.Errorf("%s: unexpected event %T", c.name, e)
	}

	progress, err := c.ticker.Tick()
	if err != nil {
		return err
	}

	if progress {
		c.TickLater()
	}

	return nil
}
