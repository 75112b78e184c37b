// Package monitoring serves the state of a running check over HTTP.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/sarchlab/awcheck/checker"
	"github.com/sarchlab/awcheck/id"
	"github.com/sarchlab/awcheck/monitoring/web"
	"github.com/sarchlab/awcheck/timing"
)

// Monitor turns a check run into a server that can be inspected and paused
// from a browser.
type Monitor struct {
	engine     timing.Engine
	checkers   []*checker.Checker
	violations *checker.ViolationLog
	portNumber int

	server *http.Server

	// engineLock orders pause requests from the page and from state reads.
	engineLock   sync.Mutex
	pausedByUser bool

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// RegisterEngine registers the engine that drives the clock.
func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
}

// RegisterChecker registers a checker to be monitored.
func (m *Monitor) RegisterChecker(c *checker.Checker) {
	m.checkers = append(m.checkers, c)
}

// RegisterViolationLog registers the log that the violations endpoint reads.
func (m *Monitor) RegisterViolationLog(l *checker.ViolationLog) {
	m.violations = l
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        id.Generate(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

func (m *Monitor) newRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseEngine)
	r.HandleFunc("/api/continue", m.continueEngine)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/list_checkers", m.listCheckers)
	r.HandleFunc("/api/summary", m.listSummaries)
	r.HandleFunc("/api/violations", m.listViolations)
	r.HandleFunc("/api/watcher/{name}", m.listWatcherDetails)
	r.HandleFunc("/api/field/{json}", m.listFieldValue)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(http.FileServer(web.GetAssets()))

	return r
}

// StartServer starts the monitor as a web server and returns its URL. Both
// HTTP/1.1 and cleartext HTTP/2 clients are accepted.
func (m *Monitor) StartServer() string {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring check with %s\n", url)

	m.server = &http.Server{
		Handler:           h2c.NewHandler(m.newRouter(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := m.server.Serve(listener)
		if err != nil && err != http.ErrServerClosed {
			dieOnErr(err)
		}
	}()

	return url
}

// StopServer shuts the server down.
func (m *Monitor) StopServer(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	m.engineLock.Lock()
	m.engine.Pause()
	m.pausedByUser = true
	m.engineLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	m.engineLock.Lock()
	m.engine.Continue()
	m.pausedByUser = false
	m.engineLock.Unlock()

	_, err := w.Write(nil)
	dieOnErr(err)
}

// whileEnginePaused runs f between two events, so that f sees checker and
// watcher state that the engine goroutine is not changing. An engine paused
// from the page stays paused.
func (m *Monitor) whileEnginePaused(f func()) {
	m.engineLock.Lock()
	defer m.engineLock.Unlock()

	if m.engine != nil && !m.pausedByUser {
		m.engine.Pause()
		defer m.engine.Continue()
	}

	f()
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	now := m.engine.CurrentTime()
	fmt.Fprintf(w, "{\"now\":%d}", now)
}

func (m *Monitor) listCheckers(w http.ResponseWriter, _ *http.Request) {
	names := make([]string, 0, len(m.checkers))
	for _, c := range m.checkers {
		names = append(names, c.Name())
	}

	writeJSON(w, names)
}

func (m *Monitor) listSummaries(w http.ResponseWriter, _ *http.Request) {
	summaries := make([]checker.Summary, 0, len(m.checkers))

	m.whileEnginePaused(func() {
		for _, c := range m.checkers {
			summaries = append(summaries, c.Summary())
		}
	})

	writeJSON(w, summaries)
}

func (m *Monitor) listViolations(w http.ResponseWriter, r *http.Request) {
	if m.violations == nil {
		writeJSON(w, []checker.Violation{})
		return
	}

	since, rule, err := violationParams(r)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	vs := make([]checker.Violation, 0)
	for _, v := range m.violations.Since(since) {
		if rule == 0 || v.Rule == rule {
			vs = append(vs, v)
		}
	}

	writeJSON(w, vs)
}

func violationParams(r *http.Request) (since int, rule checker.RuleID, err error) {
	sinceStr := r.URL.Query().Get("since")
	if sinceStr != "" {
		since, err = strconv.Atoi(sinceStr)
		if err != nil {
			return 0, 0, err
		}
	}

	ruleStr := r.URL.Query().Get("rule")
	if ruleStr != "" {
		rule, err = checker.ParseRuleID(ruleStr)
		if err != nil {
			return 0, 0, err
		}
	}

	return since, rule, nil
}

func (m *Monitor) listWatcherDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	watcher := m.findWatcherOr404(w, name)
	if watcher == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(watcher)
	serializer.SetMaxDepth(1)

	var buf bytes.Buffer
	var err error
	m.whileEnginePaused(func() {
		err = serializer.Serialize(&buf)
	})
	dieOnErr(err)

	_, err = buf.WriteTo(w)
	dieOnErr(err)
}

type fieldReq struct {
	WatcherName string `json:"watcher_name,omitempty"`
	FieldName   string `json:"field_name,omitempty"`
}

func (m *Monitor) listFieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	watcher := m.findWatcherOr404(w, req.WatcherName)
	if watcher == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(watcher)
	serializer.SetMaxDepth(1)

	err = serializer.SetEntryPoint(strings.Split(req.FieldName, "."))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	var buf bytes.Buffer
	m.whileEnginePaused(func() {
		err = serializer.Serialize(&buf)
	})
	dieOnErr(err)

	_, err = buf.WriteTo(w)
	dieOnErr(err)
}

func (m *Monitor) findWatcherOr404(
	w http.ResponseWriter,
	name string,
) checker.Watcher {
	for _, c := range m.checkers {
		watcher := c.Watcher(name)
		if watcher != nil {
			return watcher
		}
	}

	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write([]byte("Watcher not found"))
	dieOnErr(err)

	return nil
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]ProgressBarStatus, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.Status())
	}
	m.progressBarsLock.Unlock()

	writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
