package trace

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/awcheck/clock"
	"github.com/sarchlab/awcheck/signal"
	"github.com/sarchlab/awcheck/timing"
)

// Marshal encodes a trace. Runs of identical samples become one entry with a
// repeat count.
func Marshal(t *Trace) ([]byte, error) {
	widths := t.Widths
	activeLow := t.ResetActiveLow

	f := File{
		Widths:         &widths,
		FreqMHz:        float64(t.Freq / timing.MHz),
		ResetActiveLow: &activeLow,
		Edges:          []Entry{},
	}

	for i, s := range t.Samples {
		if s.Snapshot == nil {
			return nil, errors.Errorf("edge %d: sample has no snapshot", i)
		}

		last := len(f.Edges) - 1
		if last >= 0 && sameSample(t.Samples[i-1], s) {
			f.Edges[last].Repeat = repeatCount(f.Edges[last]) + 1
			continue
		}

		f.Edges = append(f.Edges, entryOf(s, t.ResetActiveLow))
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return nil, errors.Wrap(err, "encode yaml")
	}

	return data, nil
}

// Save writes a trace file. An existing file is replaced.
func Save(path string, t *Trace) error {
	data, err := Marshal(t)
	if err != nil {
		return err
	}

	err = os.WriteFile(path, data, 0o644)
	if err != nil {
		return errors.Wrap(err, "write trace")
	}

	return nil
}

func repeatCount(e Entry) int {
	if e.Repeat == 0 {
		return 1
	}

	return e.Repeat
}

func sameSample(a, b clock.Sample) bool {
	return a.Reset == b.Reset && a.Snapshot.String() == b.Snapshot.String()
}

func entryOf(s clock.Sample, resetActiveLow bool) Entry {
	snap := s.Snapshot

	e := Entry{
		AWValid: logicValue(snap.AWValid()),
		AWReady: logicValue(snap.AWReady()),
		AWAddr:  hexValue(snap.AWAddr()),
		AWLen:   decValue(snap.AWLen()),
		AWSize:  decValue(snap.AWSize()),
		WValid:  logicValue(snap.WValid()),
		WReady:  logicValue(snap.WReady()),
		WData:   vectorValue(snap.WData()),
		WStrb:   vectorValue(snap.WStrb()),
		WLast:   logicValue(snap.WLast()),
	}

	if s.Reset != signal.Bool(resetActiveLow) {
		e.Reset = Value(s.Reset.String())
	}

	return e
}

func logicValue(l signal.Logic) Value {
	if l == signal.Low {
		return ""
	}

	return Value(l.String())
}

func hexValue(n uint64) Value {
	if n == 0 {
		return ""
	}

	return Value("0x" + strconv.FormatUint(n, 16))
}

func decValue(n uint64) Value {
	if n == 0 {
		return ""
	}

	return Value(strconv.FormatUint(n, 10))
}

func vectorValue(v signal.Vector) Value {
	if v.Equal(signal.NewVector(v.Width())) {
		return ""
	}

	return Value(v.String())
}
