package timing

import (
	"log"
	"reflect"

	"github.com/sarchlab/awcheck/hooking"
)

type named interface {
	Name() string
}

// EventLogger is a hook that prints the event information.
type EventLogger struct {
	*log.Logger
}

// NewEventLogger returns a new EventLogger which will write in to the logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{Logger: logger}
}

// Func writes the event information into the logger.
func (h *EventLogger) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(*ScheduledEvent)
	if !ok {
		return
	}

	comp, ok := evt.Handler.(named)
	if ok {
		h.Printf("%d, %s -> %s", evt.Time, reflect.TypeOf(evt.Event), comp.Name())
	} else {
		h.Printf("%d, %s", evt.Time, reflect.TypeOf(evt.Event))
	}
}
