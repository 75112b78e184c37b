package timing

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/awcheck/hooking"
)

type labelEvent struct {
	label string
}

type recordingHandler struct {
	engine *SerialEngine
	calls  []string
	times  []VTimeInCycle
	failOn string
}

func (h *recordingHandler) Handle(event any) error {
	evt := event.(*labelEvent)
	h.calls = append(h.calls, evt.label)
	h.times = append(h.times, h.engine.CurrentTime())

	if evt.label == h.failOn {
		return errors.New("boom")
	}

	return nil
}

type hookRecorder struct {
	positions []*hooking.HookPos
}

func (r *hookRecorder) Func(ctx hooking.HookCtx) {
	r.positions = append(r.positions, ctx.Pos)
}

var _ = Describe("SerialEngine", func() {
	var (
		engine  *SerialEngine
		handler *recordingHandler
	)

	schedule := func(label string, t VTimeInCycle, secondary bool) {
		engine.Schedule(ScheduledEvent{
			Event:       &labelEvent{label: label},
			Time:        t,
			Handler:     handler,
			IsSecondary: secondary,
		})
	}

	BeforeEach(func() {
		engine = NewSerialEngine()
		handler = &recordingHandler{engine: engine}
	})

	It("should run events in time order", func() {
		schedule("c", 3, false)
		schedule("a", 1, false)
		schedule("b", 2, false)

		Expect(engine.Run()).To(Succeed())

		Expect(handler.calls).To(Equal([]string{"a", "b", "c"}))
		Expect(handler.times).To(Equal([]VTimeInCycle{1, 2, 3}))
		Expect(engine.CurrentTime()).To(Equal(VTimeInCycle(3)))
	})

	It("should keep insertion order within a cycle", func() {
		schedule("first", 5, false)
		schedule("second", 5, false)
		schedule("third", 5, false)

		Expect(engine.Run()).To(Succeed())

		Expect(handler.calls).To(Equal([]string{"first", "second", "third"}))
	})

	It("should run secondary events after primary events of the same cycle", func() {
		schedule("secondary", 2, true)
		schedule("primary", 2, false)
		schedule("early", 1, true)

		Expect(engine.Run()).To(Succeed())

		Expect(handler.calls).To(Equal([]string{"early", "primary", "secondary"}))
	})

	It("should stop at the first handler error", func() {
		handler.failOn = "b"
		schedule("a", 1, false)
		schedule("b", 2, false)
		schedule("c", 3, false)

		err := engine.Run()

		Expect(err).To(MatchError(ContainSubstring("cycle 2: boom")))
		Expect(handler.calls).To(Equal([]string{"a", "b"}))
	})

	It("should panic when scheduling in the past", func() {
		schedule("a", 4, false)
		Expect(engine.Run()).To(Succeed())

		Expect(func() { schedule("late", 3, false) }).To(Panic())
	})

	It("should invoke hooks around every event", func() {
		rec := &hookRecorder{}
		engine.AcceptHook(rec)
		schedule("a", 1, false)

		Expect(engine.Run()).To(Succeed())

		Expect(rec.positions).To(Equal(
			[]*hooking.HookPos{HookPosBeforeEvent, HookPosAfterEvent}))
	})

	It("should pause and continue", func() {
		engine.Pause()
		Expect(engine.IsPaused()).To(BeTrue())

		engine.Continue()
		Expect(engine.IsPaused()).To(BeFalse())
	})
})
