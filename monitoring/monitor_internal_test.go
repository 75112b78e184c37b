package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/awcheck/checker"
	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

func misalignedSample() clock.Sample {
	return clock.Sample{
		Reset: signal.High,
		Snapshot: signal.MakeSnapshotBuilder().
			WithAWHandshake().
			WithAWAddr(0x3).
			WithAWSize(2).
			WithWValid(signal.High).
			MustBuild(signal.DefaultWidths()),
	}
}

var _ = Describe("Monitor", func() {
	var (
		m       *Monitor
		engine  *timing.SerialEngine
		log     *checker.ViolationLog
		c       *checker.Checker
		source  *clock.EdgeSource
		handler http.Handler
	)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		return rec
	}

	BeforeEach(func() {
		engine = timing.NewSerialEngine()
		log = checker.NewViolationLog()
		c = checker.MakeBuilder().WithReporter(log).Build("Checker")

		source = clock.MakeBuilder().
			WithEngine(engine).
			Build("Clock", clock.NewSliceSource(
				misalignedSample(),
				misalignedSample(),
				misalignedSample(),
			))
		source.RegisterObserver(c)

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterChecker(c)
		m.RegisterViolationLog(log)
		handler = m.newRouter()
	})

	It("should not use privileged ports", func() {
		Expect(m.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(0).portNumber).To(Equal(0))
		Expect(m.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should pause and continue the engine", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))
		Expect(engine.IsPaused()).To(BeTrue())

		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
		Expect(engine.IsPaused()).To(BeFalse())
	})

	It("should report the current cycle", func() {
		source.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(get("/api/now").Body.String()).To(Equal(`{"now":3}`))
	})

	It("should list checkers and their summaries", func() {
		source.Start()
		Expect(engine.Run()).To(Succeed())

		var names []string
		Expect(json.Unmarshal(get("/api/list_checkers").Body.Bytes(), &names)).
			To(Succeed())
		Expect(names).To(Equal([]string{"Checker"}))

		var summaries []checker.Summary
		Expect(json.Unmarshal(get("/api/summary").Body.Bytes(), &summaries)).
			To(Succeed())
		Expect(summaries).To(HaveLen(1))
		Expect(summaries[0].EdgesObserved).To(Equal(uint64(3)))
		Expect(summaries[0].Violations[checker.Check2]).To(Equal(3))
	})

	It("should read summaries and watchers while the engine runs", func() {
		samples := make([]clock.Sample, 2000)
		for i := range samples {
			samples[i] = misalignedSample()
		}

		long := clock.MakeBuilder().
			WithEngine(engine).
			Build("LongClock", clock.NewSliceSource(samples...))
		long.RegisterObserver(c)
		long.Start()

		done := make(chan error, 1)
		go func() { done <- engine.Run() }()

		for i := 0; i < 20; i++ {
			Expect(get("/api/summary").Code).To(Equal(http.StatusOK))
			Expect(get("/api/watcher/Checker.CHECK4").Code).
				To(Equal(http.StatusOK))
		}

		Eventually(done, 10*time.Second).Should(Receive(BeNil()))
		Expect(engine.IsPaused()).To(BeFalse())
		Expect(c.Summary().EdgesObserved).To(Equal(uint64(2000)))
	})

	It("should keep a paused engine paused after reading state", func() {
		Expect(get("/api/pause").Code).To(Equal(http.StatusOK))

		Expect(get("/api/summary").Code).To(Equal(http.StatusOK))
		Expect(get("/api/watcher/Checker.CHECK4").Code).To(Equal(http.StatusOK))
		Expect(engine.IsPaused()).To(BeTrue())

		Expect(get("/api/continue").Code).To(Equal(http.StatusOK))
		Expect(get("/api/summary").Code).To(Equal(http.StatusOK))
		Expect(engine.IsPaused()).To(BeFalse())
	})

	It("should filter violations", func() {
		source.Start()
		Expect(engine.Run()).To(Succeed())

		var vs []checker.Violation
		body := get("/api/violations?rule=CHECK2&since=1").Body.Bytes()
		Expect(json.Unmarshal(body, &vs)).To(Succeed())

		Expect(vs).To(HaveLen(2))
		for _, v := range vs {
			Expect(v.Rule).To(Equal(checker.Check2))
		}
	})

	It("should reject bad violation queries", func() {
		Expect(get("/api/violations?since=abc").Code).
			To(Equal(http.StatusBadRequest))
		Expect(get("/api/violations?rule=CHECK9").Code).
			To(Equal(http.StatusBadRequest))
	})

	It("should serialize a watcher", func() {
		Expect(get("/api/watcher/Checker.CHECK4").Code).To(Equal(http.StatusOK))
		Expect(get("/api/watcher/Nothing").Code).To(Equal(http.StatusNotFound))
	})

	It("should reject a malformed field request", func() {
		path := "/api/field/" + url.PathEscape("{not json")

		Expect(get(path).Code).To(Equal(http.StatusBadRequest))
	})

	It("should track edges with a progress bar", func() {
		progress := m.TrackEdges(source)
		Expect(progress.Bar().Total).To(Equal(uint64(3)))

		var bars []ProgressBarStatus
		Expect(json.Unmarshal(get("/api/progress").Body.Bytes(), &bars)).
			To(Succeed())
		Expect(bars).To(HaveLen(1))
		Expect(bars[0].Name).To(Equal("Clock"))

		source.Start()
		Expect(engine.Run()).To(Succeed())

		Expect(progress.Bar().Status().Finished).To(Equal(uint64(3)))
		Expect(get("/api/progress").Body.String()).To(Equal("[]"))
	})

	It("should report resource usage", func() {
		var rsp map[string]any
		Expect(json.Unmarshal(get("/api/resource").Body.Bytes(), &rsp)).
			To(Succeed())

		Expect(rsp).To(HaveKey("cpu_percent"))
		Expect(rsp).To(HaveKey("memory_size"))
	})

	It("should serve the page", func() {
		rec := get("/")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring("awcheck monitor"))
	})
})
