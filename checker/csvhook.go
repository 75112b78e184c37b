package checker

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tebeka/atexit"

	"github.com/sarchlab/awcheck/hooking"
	"github.com/sarchlab/awcheck/id"
)

// CSVViolationWriter is a hook that writes violations into a CSV file.
type CSVViolationWriter struct {
	path   string
	create func(name string) (io.WriteCloser, error)
	file   io.WriteCloser
	writer *csv.Writer

	buffered   []Violation
	bufferSize int
}

// NewCSVViolationWriter creates a writer for path + ".csv". Init must be
// called before use.
func NewCSVViolationWriter(path string) *CSVViolationWriter {
	return &CSVViolationWriter{
		path:       path,
		create:     createFile,
		bufferSize: 1000,
	}
}

// Filename returns the name of the CSV file.
func (t *CSVViolationWriter) Filename() string {
	return t.path + ".csv"
}

// Init creates the file and writes the header. It fails if the file already
// exists. The file is flushed and closed when the program exits through
// atexit.
func (t *CSVViolationWriter) Init() error {
	if t.path == "" {
		t.path = id.RunName("awcheck")
	}

	filename := t.Filename()

	_, err := os.Stat(filename)
	if err == nil {
		return fmt.Errorf("file %s already exists", filename)
	}

	file, err := t.create(filename)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)

	err = writeCSVHeader(writer)
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to write header to %s: %w", filename, err)
	}

	t.file = file
	t.writer = writer

	atexit.Register(func() {
		err := t.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to close %s: %v\n", filename, err)
		}
	})

	return nil
}

func createFile(name string) (io.WriteCloser, error) {
	return os.Create(name)
}

func writeCSVHeader(w *csv.Writer) error {
	err := w.Write([]string{
		"ID", "Cycle", "Time", "Rule", "Watcher", "Message",
	})
	if err != nil {
		return err
	}

	w.Flush()

	return w.Error()
}

// Func buffers one row per violation.
func (t *CSVViolationWriter) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosViolation {
		return
	}

	v, ok := ctx.Item.(Violation)
	if !ok {
		return
	}

	t.buffered = append(t.buffered, v)
	if len(t.buffered) >= t.bufferSize {
		t.Flush()
	}
}

// Flush writes the buffered violations to the file.
func (t *CSVViolationWriter) Flush() {
	if t.writer == nil {
		return
	}

	for _, v := range t.buffered {
		err := t.writer.Write([]string{
			v.ID,
			strconv.FormatUint(uint64(v.Cycle), 10),
			strconv.FormatFloat(float64(v.Time), 'e', 10, 64),
			v.Rule.String(),
			v.Watcher,
			v.Message,
		})
		if err != nil {
			panic(err)
		}
	}

	t.buffered = nil
	t.writer.Flush()
}

// Close flushes and closes the file. Calling it again does nothing.
func (t *CSVViolationWriter) Close() error {
	if t.file == nil {
		return nil
	}

	t.Flush()

	err := t.writer.Error()
	if err != nil {
		return err
	}

	err = t.file.Close()
	t.file = nil
	t.writer = nil

	return err
}
