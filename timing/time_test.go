package timing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Freq", func() {
	It("should convert between cycles and seconds", func() {
		f := 100 * MHz

		Expect(float64(f.Period())).To(BeNumerically("~", 1e-8, 1e-20))
		Expect(float64(f.TimeOf(250))).To(BeNumerically("~", 2.5e-6, 1e-18))
		Expect(f.Cycle(2.5e-6)).To(Equal(VTimeInCycle(250)))
	})

	It("should format with a unit", func() {
		Expect((100 * MHz).String()).To(Equal("100MHz"))
		Expect((1.5 * GHz).String()).To(Equal("1.5GHz"))
		Expect(Freq(10).String()).To(Equal("10Hz"))
	})

	It("should panic on a zero frequency", func() {
		Expect(func() { Freq(0).Period() }).To(Panic())
	})
})
