package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/awcheck/checker"
	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/datarecording"
	"github.com/sarchlab/awcheck/id"
	"github.com/sarchlab/awcheck/monitoring"
	"github.com/sarchlab/awcheck/timing"
	"github.com/sarchlab/awcheck/trace"
)

// autoName asks for a generated output file name.
const autoName = "auto"

var (
	boldStr  = color.New(color.Bold).SprintFunc()
	redStr   = color.New(color.FgRed).SprintFunc()
	greenStr = color.New(color.FgGreen).SprintFunc()
)

type checkOptions struct {
	tracePath   string
	dbPath      string
	csvPath     string
	clickhouse  string
	parallel    bool
	monitor     bool
	monitorPort int
	openBrowser bool
	logEvents   bool
	uniqueIDs   bool
	quiet       bool
}

var checkCmd = &cobra.Command{
	Use:   "check TRACE.yaml",
	Short: "Check a trace file.",
	Long: "`check TRACE.yaml` replays the trace and prints every protocol " +
		"violation. Violations can also be stored in SQLite or CSV files.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := checkOptionsFromFlags(cmd, args[0])
		if err != nil {
			return err
		}

		summary, err := runCheck(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		failOnViolation, _ := cmd.Flags().GetBool("fail-on-violation")
		if failOnViolation && summary.Total > 0 {
			return errViolationsFound
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)

	f := checkCmd.Flags()
	f.String("db", "",
		"Record violations in PATH.sqlite3. Use --db alone for a generated name.")
	f.Lookup("db").NoOptDefVal = autoName
	f.String("csv", "",
		"Write violations to PATH.csv. Use --csv alone for a generated name.")
	f.Lookup("csv").NoOptDefVal = autoName
	f.String("clickhouse", "",
		"Record violations in the ClickHouse database named by this DSN.")
	f.Bool("parallel", false, "Evaluate the rules of each edge concurrently.")
	f.Bool("monitor", false, "Serve the monitoring page while checking.")
	f.Int("monitor-port", 0, "Port of the monitoring server, random if 0.")
	f.Bool("open-browser", false, "Open the monitoring page in a browser.")
	f.Bool("log-events", false, "Log every engine event to stderr.")
	f.Bool("fail-on-violation", false, "Exit with status 1 on violations.")
	f.Bool("unique-ids", false,
		"Give violations globally unique IDs instead of 1, 2, 3, ...")
	f.BoolP("quiet", "q", false, "Only print the summary.")
}

func checkOptionsFromFlags(cmd *cobra.Command, tracePath string) (
	checkOptions,
	error,
) {
	port, err := intFlagOrEnv(cmd, "monitor-port", envMonitorPort)
	if err != nil {
		return checkOptions{}, err
	}

	opts := checkOptions{
		tracePath:   tracePath,
		dbPath:      stringFlagOrEnv(cmd, "db", envDB),
		csvPath:     stringFlagOrEnv(cmd, "csv", envCSV),
		clickhouse:  stringFlagOrEnv(cmd, "clickhouse", envClickHouse),
		monitorPort: port,
	}
	opts.parallel, _ = cmd.Flags().GetBool("parallel")
	opts.monitor, _ = cmd.Flags().GetBool("monitor")
	opts.openBrowser, _ = cmd.Flags().GetBool("open-browser")
	opts.logEvents, _ = cmd.Flags().GetBool("log-events")
	opts.uniqueIDs, _ = cmd.Flags().GetBool("unique-ids")
	opts.quiet, _ = cmd.Flags().GetBool("quiet")

	return opts, nil
}

// A checkRun holds everything wired together for one trace.
type checkRun struct {
	engine     *timing.SerialEngine
	checker    *checker.Checker
	violations *checker.ViolationLog
	clock      *clock.EdgeSource
	closers    []func() error
}

func runCheck(opts checkOptions, out, errOut io.Writer) (
	checker.Summary,
	error,
) {
	tr, err := trace.Load(opts.tracePath)
	if err != nil {
		return checker.Summary{}, err
	}

	run, err := buildCheckRun(tr, opts, out, errOut)
	if err != nil {
		return checker.Summary{}, err
	}

	if opts.monitor {
		stop := startMonitor(run, opts, errOut)
		defer stop()
	}

	run.clock.Start()
	runErr := run.engine.Run()

	closeErr := run.close()

	if runErr != nil {
		return checker.Summary{}, runErr
	}

	if closeErr != nil {
		return checker.Summary{}, closeErr
	}

	summary := run.checker.Summary()
	printSummary(out, summary)

	return summary, nil
}

func buildCheckRun(
	tr *trace.Trace,
	opts checkOptions,
	out, errOut io.Writer,
) (*checkRun, error) {
	ids := id.NewSequentialGenerator()
	if opts.uniqueIDs {
		ids = id.NewParallelGenerator()
	}

	run := &checkRun{
		engine:     timing.NewSerialEngine(),
		violations: checker.NewViolationLogWithIDGenerator(ids),
	}

	if opts.logEvents {
		run.engine.AcceptHook(
			timing.NewEventLogger(log.New(errOut, "", 0)))
	}

	if !opts.quiet {
		run.violations.AcceptHook(
			checker.NewViolationLogger(log.New(out, "", 0)))
	}

	err := run.attachRecorders(opts)
	if err != nil {
		return nil, err
	}

	b := checker.MakeBuilder().
		WithWidths(tr.Widths).
		WithReporter(run.violations)
	if opts.parallel {
		b = b.WithParallelWatchers()
	}

	run.checker = b.Build("Checker")

	run.clock = clock.MakeBuilder().
		WithEngine(run.engine).
		WithFreq(tr.Freq).
		WithResetActiveLow(tr.ResetActiveLow).
		Build("Clock", tr.Source())
	run.clock.RegisterObserver(run.checker)

	return run, nil
}

// attachRecorders opens the requested recorders. If one fails, the ones
// already opened are closed again.
func (r *checkRun) attachRecorders(opts checkOptions) error {
	err := r.openRecorders(opts)
	if err != nil {
		_ = r.close()
		return err
	}

	return nil
}

func (r *checkRun) openRecorders(opts checkOptions) error {
	if opts.dbPath != "" {
		recorder, err := datarecording.New(outputBase(opts.dbPath, ".sqlite3"))
		if err != nil {
			return err
		}

		r.violations.AcceptHook(checker.NewDBRecorder(recorder))
		r.closers = append(r.closers, recorder.Close)
	}

	if opts.clickhouse != "" {
		recorder, err := datarecording.NewWithConfig(datarecording.RecorderConfig{
			Type:    datarecording.BackendClickHouse,
			ConnStr: opts.clickhouse,
		})
		if err != nil {
			return err
		}

		r.violations.AcceptHook(checker.NewDBRecorder(recorder))
		r.closers = append(r.closers, recorder.Close)
	}

	if opts.csvPath != "" {
		writer := checker.NewCSVViolationWriter(outputBase(opts.csvPath, ".csv"))

		err := writer.Init()
		if err != nil {
			return err
		}

		r.violations.AcceptHook(writer)
		r.closers = append(r.closers, writer.Close)
	}

	return nil
}

// close runs every closer once.
func (r *checkRun) close() error {
	var firstErr error

	for _, c := range r.closers {
		err := c()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	r.closers = nil

	return firstErr
}

func outputBase(path, ext string) string {
	if path == autoName {
		return ""
	}

	return strings.TrimSuffix(path, ext)
}

func startMonitor(run *checkRun, opts checkOptions, errOut io.Writer) func() {
	m := monitoring.NewMonitor().WithPortNumber(opts.monitorPort)
	m.RegisterEngine(run.engine)
	m.RegisterChecker(run.checker)
	m.RegisterViolationLog(run.violations)
	m.TrackEdges(run.clock)

	url := m.StartServer()

	if opts.openBrowser {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(errOut, "Cannot open browser: %v\n", err)
		}
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		err := m.StopServer(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to stop monitor: %v\n", err)
		}
	}
}

func printSummary(out io.Writer, s checker.Summary) {
	total := greenStr(s.Total)
	if s.Total > 0 {
		total = redStr(s.Total)
	}

	fmt.Fprintf(out, "%d edges checked, %d skipped in reset, %s violations\n",
		s.EdgesObserved, s.EdgesSkipped, total)

	for _, r := range checker.AllRules {
		fmt.Fprintf(out, "  %s %-34s %d\n",
			boldStr(r), r.Description(), s.Violations[r])
	}
}
