package perftest

import (
	"time"

	"github.com/ajitpratap0/modelperf/pkg/model"
)

// Module is one scoring implementation under test. A module is constructed
// once per run and reused for every block and repetition.
type Module interface {
	// Name is the report key for results produced in a layout.
	Name(layout Layout) string
	// SupportsLayout reports whether Do accepts blocks in this layout.
	SupportsLayout(layout Layout) bool
	// ComparisonPriority ranks (module, layout) pairs; the highest becomes
	// the baseline every other result is compared to.
	ComparisonPriority(layout Layout) int
	// Do scores one block. For ObjectsFirst the block is block[doc][feature],
	// for FeaturesFirst it is block[feature][doc]. Elapsed must cover the
	// scoring work only.
	Do(layout Layout, block [][]float32) (Measurement, error)
}

// Measurement is the outcome of scoring one block.
type Measurement struct {
	// Elapsed is the wall-clock time of the scoring work
	Elapsed time.Duration
	// Values holds one prediction per document. A module may reuse the
	// slice between calls; nil skips verification.
	Values []float64
}

// Factory builds a module for a model. A factory error excludes the module
// from the run without failing it.
type Factory func(m *model.Model) (Module, error)
