// Package trace reads and writes recorded bus activity as YAML.
//
// A trace file has a header and one entry per rising clock edge:
//
//	widths: {addr: 32, data: 32, strb: 4, len: 8, size: 3}
//	freq_mhz: 100
//	reset_active_low: true
//	edges:
//	  - {rst_n: 0}
//	  - {aw_valid: 1, aw_ready: 1, aw_addr: 0x1000, aw_len: 0, aw_size: 2}
//	  - {w_valid: 1, w_ready: 1, w_data: deadbeef, w_strb: f, w_last: 1}
//	  - {repeat: 10}
//
// Logic signals take 0, 1, x or z. Numeric fields take decimal or 0x-prefixed
// hex. w_data and w_strb are hex with an optional 0x prefix. An omitted signal
// is 0, except rst_n, which defaults to its deasserted level. repeat replays
// the entry that many times.
package trace

import (
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

// DefaultFreq is the clock frequency of a trace that does not name one.
const DefaultFreq = 100 * timing.MHz

// A Trace is a decoded trace file.
type Trace struct {
	Widths         signal.Widths
	Freq           timing.Freq
	ResetActiveLow bool
	Samples        []clock.Sample
}

// New creates an empty trace with default settings.
func New() *Trace {
	return &Trace{
		Widths:         signal.DefaultWidths(),
		Freq:           DefaultFreq,
		ResetActiveLow: true,
	}
}

// Source returns a sample source that replays the trace.
func (t *Trace) Source() *clock.SliceSource {
	return clock.NewSliceSource(t.Samples...)
}

// Value is the text of one scalar field. It keeps the exact spelling of the
// file so that hex and decimal numbers are both accepted.
type Value string

// UnmarshalYAML accepts any scalar.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return errors.Errorf("line %d: expected a scalar", node.Line)
	}

	*v = Value(node.Value)

	return nil
}

// MarshalYAML writes the value unquoted.
func (v Value) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: string(v)}, nil
}

// An Entry is one item of the edges list.
type Entry struct {
	Reset   Value `yaml:"rst_n,omitempty"`
	AWValid Value `yaml:"aw_valid,omitempty"`
	AWReady Value `yaml:"aw_ready,omitempty"`
	AWAddr  Value `yaml:"aw_addr,omitempty"`
	AWLen   Value `yaml:"aw_len,omitempty"`
	AWSize  Value `yaml:"aw_size,omitempty"`
	WValid  Value `yaml:"w_valid,omitempty"`
	WReady  Value `yaml:"w_ready,omitempty"`
	WData   Value `yaml:"w_data,omitempty"`
	WStrb   Value `yaml:"w_strb,omitempty"`
	WLast   Value `yaml:"w_last,omitempty"`
	Repeat  int   `yaml:"repeat,omitempty"`
}

// File is the document layout of a trace file.
type File struct {
	Widths         *signal.Widths `yaml:"widths,omitempty"`
	FreqMHz        float64        `yaml:"freq_mhz,omitempty"`
	ResetActiveLow *bool          `yaml:"reset_active_low,omitempty"`
	Edges          []Entry        `yaml:"edges"`
}

// Load reads a trace file.
func Load(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read trace")
	}

	t, err := Parse(data)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}

	return t, nil
}

// Parse decodes a trace document.
func Parse(data []byte) (*Trace, error) {
	var f File

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, errors.Wrap(err, "decode yaml")
	}

	t, err := f.header()
	if err != nil {
		return nil, err
	}

	for i, e := range f.Edges {
		sample, err := e.sample(t.Widths, t.ResetActiveLow)
		if err != nil {
			return nil, errors.Wrapf(err, "edge %d", i)
		}

		repeat := e.Repeat
		switch {
		case repeat < 0:
			return nil, errors.Errorf("edge %d: negative repeat %d", i, repeat)
		case repeat == 0:
			repeat = 1
		}

		for j := 0; j < repeat; j++ {
			t.Samples = append(t.Samples, sample)
		}
	}

	return t, nil
}

func (f File) header() (*Trace, error) {
	t := New()

	if f.Widths != nil {
		err := f.Widths.Validate()
		if err != nil {
			return nil, errors.Wrap(err, "widths")
		}

		t.Widths = *f.Widths
	}

	switch {
	case f.FreqMHz < 0:
		return nil, errors.Errorf("freq_mhz %g is negative", f.FreqMHz)
	case f.FreqMHz > 0:
		t.Freq = timing.Freq(f.FreqMHz) * timing.MHz
	}

	if f.ResetActiveLow != nil {
		t.ResetActiveLow = *f.ResetActiveLow
	}

	return t, nil
}

func (e Entry) sample(w signal.Widths, resetActiveLow bool) (clock.Sample, error) {
	p := parser{}

	reset := p.logic("rst_n", e.Reset, signal.Bool(resetActiveLow))

	b := signal.MakeSnapshotBuilder().
		WithAWValid(p.logic("aw_valid", e.AWValid, signal.Low)).
		WithAWReady(p.logic("aw_ready", e.AWReady, signal.Low)).
		WithAWAddr(p.number("aw_addr", e.AWAddr)).
		WithAWLen(p.number("aw_len", e.AWLen)).
		WithAWSize(p.number("aw_size", e.AWSize)).
		WithWValid(p.logic("w_valid", e.WValid, signal.Low)).
		WithWReady(p.logic("w_ready", e.WReady, signal.Low)).
		WithWData(p.vector("w_data", e.WData, w.Data)).
		WithWStrb(p.vector("w_strb", e.WStrb, w.Strb)).
		WithWLast(p.logic("w_last", e.WLast, signal.Low))

	if p.err != nil {
		return clock.Sample{}, p.err
	}

	s, err := b.Build(w)
	if err != nil {
		return clock.Sample{}, err
	}

	return clock.Sample{Reset: reset, Snapshot: s}, nil
}

// parser keeps the first error so that a whole entry can be decoded in one
// expression.
type parser struct {
	err error
}

func (p *parser) logic(field string, v Value, def signal.Logic) signal.Logic {
	if p.err != nil || v == "" {
		return def
	}

	l, err := signal.ParseLogic(string(v))
	if err != nil {
		p.err = errors.Wrap(err, field)
	}

	return l
}

func (p *parser) number(field string, v Value) uint64 {
	if p.err != nil || v == "" {
		return 0
	}

	text := string(v)
	base := 10

	if strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X") {
		text = text[2:]
		base = 16
	}

	n, err := strconv.ParseUint(text, base, 64)
	if err != nil {
		p.err = errors.Wrapf(err, "%s: not a number", field)
	}

	return n
}

func (p *parser) vector(field string, v Value, width int) signal.Vector {
	if p.err != nil || v == "" {
		return signal.NewVector(width)
	}

	vec, err := signal.ParseVector(width, string(v))
	if err != nil {
		p.err = errors.Wrap(err, field)
	}

	return vec
}
