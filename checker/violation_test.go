package checker

import (
	"encoding/json"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/awcheck/id"
)

var _ = Describe("RuleID", func() {
	It("should parse names and descriptions", func() {
		r, err := ParseRuleID("check3")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(Check3))

		r, err = ParseRuleID("misaligned-address")
		Expect(err).NotTo(HaveOccurred())
		Expect(r).To(Equal(Check2))

		_, err = ParseRuleID("CHECK5")
		Expect(err).To(HaveOccurred())
	})

	It("should encode as text in JSON", func() {
		out, err := json.Marshal(map[RuleID]int{Check4: 2})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(out)).To(Equal(`{"CHECK4":2}`))

		var decoded map[RuleID]int
		Expect(json.Unmarshal(out, &decoded)).To(Succeed())
		Expect(decoded).To(HaveKeyWithValue(Check4, 2))
	})

	It("should name unknown rules", func() {
		Expect(RuleID(9).String()).To(Equal("RuleID(9)"))
		Expect(RuleID(9).IsValid()).To(BeFalse())
	})
})

var _ = Describe("ViolationLog", func() {
	var (
		log  *ViolationLog
		hook *recordingHook
	)

	BeforeEach(func() {
		log = NewViolationLog()
		hook = &recordingHook{}
		log.AcceptHook(hook)
	})

	It("should keep violations in report order", func() {
		log.Report(Violation{Cycle: 4, Rule: Check2})
		log.Report(Violation{Cycle: 2, Rule: Check1})

		vs := log.Violations()
		Expect(vs).To(HaveLen(2))
		Expect(vs[0].ID).To(Equal("1"))
		Expect(vs[0].Rule).To(Equal(Check2))
		Expect(vs[1].ID).To(Equal("2"))
		Expect(hook.at(HookPosViolation)).To(HaveLen(2))
	})

	It("should keep an ID that is already set", func() {
		log.Report(Violation{ID: "x", Rule: Check1})

		Expect(log.Violations()[0].ID).To(Equal("x"))
	})

	It("should return violations after an index", func() {
		for i := 0; i < 3; i++ {
			log.Report(Violation{Rule: Check4})
		}

		Expect(log.Since(1)).To(HaveLen(2))
		Expect(log.Since(3)).To(BeEmpty())
		Expect(log.Since(-1)).To(HaveLen(3))
	})

	It("should count every rule", func() {
		log.Report(Violation{Rule: Check3})

		Expect(log.CountByRule()).To(Equal(map[RuleID]int{
			Check1: 0, Check2: 0, Check3: 1, Check4: 0,
		}))
	})

	It("should accept reports from many goroutines", func() {
		log = NewViolationLogWithIDGenerator(id.NewParallelGenerator())

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				log.Report(Violation{Rule: Check1})
			}()
		}
		wg.Wait()

		ids := map[string]bool{}
		for _, v := range log.Violations() {
			ids[v.ID] = true
		}

		Expect(log.Len()).To(Equal(50))
		Expect(ids).To(HaveLen(50))
	})
})
