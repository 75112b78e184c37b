package clock

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/awcheck/hooking"
	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

type edgeHook struct {
	edges     []Edge
	exhausted int
}

func (h *edgeHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case HookPosEdge:
		h.edges = append(h.edges, ctx.Item.(Edge))
	case HookPosExhausted:
		h.exhausted++
	}
}

func idleSample(reset signal.Logic) Sample {
	return Sample{
		Reset:    reset,
		Snapshot: signal.MakeSnapshotBuilder().MustBuild(signal.DefaultWidths()),
	}
}

var _ = Describe("EdgeSource", func() {
	var (
		mockCtrl *gomock.Controller
		observer *MockEdgeObserver
		engine   *timing.SerialEngine
		samples  *SliceSource
		source   *EdgeSource
		hook     *edgeHook
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		observer = NewMockEdgeObserver(mockCtrl)
		engine = timing.NewSerialEngine()
		samples = NewSliceSource(
			idleSample(signal.Low),
			idleSample(signal.High),
			idleSample(signal.Unknown),
		)
		source = MakeBuilder().
			WithEngine(engine).
			WithFreq(1*timing.GHz).
			Build("Clock", samples)
		source.RegisterObserver(observer)

		hook = &edgeHook{}
		source.AcceptHook(hook)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should deliver one edge per cycle", func() {
		var seen []Edge
		observer.EXPECT().
			ObserveEdge(gomock.Any()).
			DoAndReturn(func(e Edge) error {
				seen = append(seen, e)
				return nil
			}).
			Times(3)

		source.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(seen).To(HaveLen(3))
		Expect(seen[0].Cycle).To(Equal(timing.VTimeInCycle(0)))
		Expect(seen[2].Cycle).To(Equal(timing.VTimeInCycle(2)))
		Expect(float64(seen[2].Time)).To(BeNumerically("~", 2e-9, 1e-15))
		Expect(seen[0].ResetAsserted).To(BeTrue())
		Expect(seen[1].ResetAsserted).To(BeFalse())
		Expect(seen[2].ResetAsserted).To(BeTrue())

		Expect(source.NumEdges()).To(Equal(uint64(3)))
		Expect(source.Exhausted()).To(BeTrue())
		Expect(source.Total()).To(Equal(3))
		Expect(hook.edges).To(HaveLen(3))
		Expect(hook.exhausted).To(Equal(1))
	})

	It("should stop on an observer error", func() {
		failure := errors.New("bad edge")
		observer.EXPECT().ObserveEdge(gomock.Any()).Return(nil)
		observer.EXPECT().ObserveEdge(gomock.Any()).Return(failure)

		source.Start()
		err := engine.Run()

		Expect(errors.Is(err, failure)).To(BeTrue())
		Expect(source.NumEdges()).To(Equal(uint64(2)))
		Expect(source.Exhausted()).To(BeFalse())
	})

	It("should reject a sample without a snapshot", func() {
		samples = NewSliceSource(Sample{Reset: signal.High})
		source = MakeBuilder().WithEngine(engine).Build("Clock", samples)

		source.Start()
		err := engine.Run()

		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no snapshot"))
	})

	It("should pass on errors from the sample source", func() {
		failure := errors.New("read failed")
		mockSamples := NewMockSampleSource(mockCtrl)
		mockSamples.EXPECT().Next().Return(Sample{}, false, failure)

		source = MakeBuilder().WithEngine(engine).Build("Clock", mockSamples)
		source.Start()

		Expect(errors.Is(engine.Run(), failure)).To(BeTrue())
		Expect(source.Total()).To(Equal(-1))
	})

	It("should reject foreign events", func() {
		err := source.Handle("tick")

		Expect(err).To(MatchError(ContainSubstring("Clock")))
		Expect(source.NumEdges()).To(Equal(uint64(0)))
	})
})

var _ = Describe("Builder", func() {
	It("should require an engine and a source", func() {
		Expect(func() {
			MakeBuilder().Build("Clock", NewSliceSource())
		}).To(Panic())

		Expect(func() {
			MakeBuilder().WithEngine(timing.NewSerialEngine()).Build("Clock", nil)
		}).To(Panic())
	})

	It("should reject a non-positive frequency", func() {
		Expect(func() {
			MakeBuilder().
				WithEngine(timing.NewSerialEngine()).
				WithFreq(0).
				Build("Clock", NewSliceSource())
		}).To(Panic())
	})
})

var _ = Describe("ResetAsserted", func() {
	It("should follow the polarity", func() {
		Expect(ResetAsserted(signal.Low, true)).To(BeTrue())
		Expect(ResetAsserted(signal.High, true)).To(BeFalse())
		Expect(ResetAsserted(signal.High, false)).To(BeTrue())
		Expect(ResetAsserted(signal.Low, false)).To(BeFalse())
	})

	It("should treat unknown levels as asserted", func() {
		Expect(ResetAsserted(signal.Unknown, true)).To(BeTrue())
		Expect(ResetAsserted(signal.HighZ, false)).To(BeTrue())
	})
})
