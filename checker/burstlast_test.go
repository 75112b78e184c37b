package checker

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

func beat(last signal.Logic) signal.SnapshotBuilder {
	return bus().
		WithWValid(signal.High).
		WithWReady(signal.High).
		WithWLast(last)
}

func burst(addr, length uint64) signal.SnapshotBuilder {
	return bus().WithAWHandshake().WithAWAddr(addr).WithAWLen(length)
}

var _ = Describe("BurstLastWatcher", func() {
	var (
		w   *BurstLastWatcher
		log *ViolationLog
	)

	BeforeEach(func() {
		w = NewBurstLastWatcher("c.CHECK4")
		log = NewViolationLog()
	})

	It("should accept a well formed burst", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 3)),
			edgeAt(1, beat(signal.Low)),
			edgeAt(2, beat(signal.Low)),
			edgeAt(3, beat(signal.Low)),
			edgeAt(4, beat(signal.High)),
		)

		Expect(log.Len()).To(Equal(0))
		Expect(w.State()).To(Equal("WAITING_FOR_AW"))
	})

	It("should report an early last", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 3)),
			edgeAt(1, beat(signal.Low)),
			edgeAt(2, beat(signal.High)),
			edgeAt(3, beat(signal.Low)),
			edgeAt(4, beat(signal.High)),
		)

		vs := log.Violations()
		Expect(vs).To(HaveLen(1))
		Expect(vs[0].Rule).To(Equal(Check4))
		Expect(vs[0].Cycle).To(Equal(timing.VTimeInCycle(2)))
		Expect(vs[0].Message).To(Equal(
			"early last: w_last=1 on beat 2 of 4 (burst at cycle 0)"))
	})

	It("should report a missing last", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 1)),
			edgeAt(1, beat(signal.Low)),
			edgeAt(2, beat(signal.Low)),
			edgeAt(3, beat(signal.High)),
		)

		vs := log.Violations()
		Expect(vs).To(HaveLen(1))
		Expect(vs[0].Cycle).To(Equal(timing.VTimeInCycle(2)))
		Expect(vs[0].Message).To(Equal(
			"missing last: w_last=0 on beat 2 of 2, expected 1 " +
				"(burst at cycle 0)"))
		Expect(w.State()).To(Equal("WAITING_FOR_AW"))
	})

	It("should treat an unknown w_last as missing", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 0)),
			edgeAt(1, beat(signal.Unknown)),
		)

		vs := log.Violations()
		Expect(vs).To(HaveLen(1))
		Expect(vs[0].Message).To(ContainSubstring("w_last=x"))
	})

	It("should not count a beat on the address edge", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 0).
				WithWValid(signal.High).
				WithWReady(signal.High).
				WithWLast(signal.High)),
		)

		beatIndex, beats := w.Progress()
		Expect(beatIndex).To(Equal(uint64(0)))
		Expect(beats).To(Equal(uint64(1)))
		Expect(w.State()).To(Equal("COUNTING_BEATS"))

		w.Observe(edgeAt(1, beat(signal.High)), log)

		Expect(log.Len()).To(Equal(0))
	})

	It("should not count stalled beats", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 1)),
			edgeAt(1, beat(signal.Low).WithWReady(signal.Low)),
			edgeAt(2, beat(signal.Low)),
			edgeAt(3, beat(signal.Low).WithWReady(signal.Unknown)),
			edgeAt(4, beat(signal.High)),
		)

		Expect(log.Len()).To(Equal(0))
	})

	It("should report an address handshake during a burst", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 3)),
			edgeAt(1, beat(signal.Low)),
			edgeAt(2, burst(0x200, 0).
				WithWValid(signal.High).
				WithWReady(signal.High)),
			edgeAt(3, beat(signal.High)),
		)

		vs := log.Violations()
		Expect(vs).To(HaveLen(1))
		Expect(vs[0].Cycle).To(Equal(timing.VTimeInCycle(2)))
		Expect(vs[0].Message).To(Equal(
			"burst overlap: address handshake at 0x200 while burst at 0x100 " +
				"(cycle 0) has received beat 2 of 4"))
		Expect(w.State()).To(Equal("WAITING_FOR_AW"))
	})

	It("should accept a new burst on the edge of the final beat", func() {
		observeAll(w, log,
			edgeAt(0, burst(0x100, 0)),
			edgeAt(1, burst(0x200, 0).
				WithWValid(signal.High).
				WithWReady(signal.High).
				WithWLast(signal.High)),
			edgeAt(2, beat(signal.High)),
		)

		Expect(log.Len()).To(Equal(0))
	})

	It("should ignore beats outside of a burst", func() {
		observeAll(w, log,
			edgeAt(0, beat(signal.High)),
			edgeAt(1, beat(signal.Low)),
		)

		Expect(log.Len()).To(Equal(0))
	})

	It("should forget the burst on reset", func() {
		w.Observe(edgeAt(0, burst(0x100, 3)), log)
		w.Reset()
		w.Observe(edgeAt(1, beat(signal.High)), log)

		Expect(log.Len()).To(Equal(0))
		Expect(w.State()).To(Equal("WAITING_FOR_AW"))
	})
})
