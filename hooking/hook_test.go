package hooking

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type countingHook struct {
	positions []*HookPos
}

func (h *countingHook) Func(ctx HookCtx) {
	h.positions = append(h.positions, ctx.Pos)
}

var _ = Describe("HookableBase", func() {
	var (
		base  *HookableBase
		hook  *countingHook
		start = &HookPos{Name: "Start"}
	)

	BeforeEach(func() {
		base = NewHookableBase()
		hook = &countingHook{}
	})

	It("should invoke registered hooks in order", func() {
		second := &countingHook{}
		base.AcceptHook(hook)
		base.AcceptHook(second)

		base.InvokeHook(HookCtx{Domain: base, Pos: start})

		Expect(base.NumHooks()).To(Equal(2))
		Expect(hook.positions).To(Equal([]*HookPos{start}))
		Expect(second.positions).To(Equal([]*HookPos{start}))
	})

	It("should panic on duplicated hooks", func() {
		base.AcceptHook(hook)

		Expect(func() { base.AcceptHook(hook) }).To(Panic())
	})
})
