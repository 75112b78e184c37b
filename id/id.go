// Package id generates identifiers for violation records and checker runs.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator can generate IDs.
type Generator interface {
	// Generate an ID
	Generate() string
}

// NewSequentialGenerator returns a generator whose IDs are "1", "2", ... in
// the order Generate is called. Runs that replay the same trace produce the
// same IDs.
func NewSequentialGenerator() Generator {
	return &sequentialGenerator{}
}

// NewParallelGenerator returns a generator backed by globally unique xids. IDs
// are not deterministic.
func NewParallelGenerator() Generator {
	return parallelGenerator{}
}

type sequentialGenerator struct {
	nextID uint64
}

func (g *sequentialGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	return strconv.FormatUint(idNumber, 10)
}

type parallelGenerator struct{}

func (parallelGenerator) Generate() string {
	return xid.New().String()
}

var defaultGenerator = NewSequentialGenerator()

// Generate returns a new ID from the process-wide sequential generator.
func Generate() string {
	return defaultGenerator.Generate()
}

// RunName returns a unique name suitable for output files of one run.
func RunName(prefix string) string {
	return prefix + "_" + xid.New().String()
}
