// Package naive scores documents one at a time by walking every tree with
// plain float comparisons. It is the reference every other module is
// compared to.
package naive

import (
	"time"

	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/perftest"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules/internal/compiled"
)

// Key is the registry key of the module.
const Key = "naive"

// Module evaluates float splits directly.
type Module struct {
	model *compiled.Model
	out   []float64
}

// New builds the module for m.
func New(m *model.Model) (perftest.Module, error) {
	c, err := compiled.Compile(m)
	if err != nil {
		return nil, err
	}
	return &Module{model: c}, nil
}

// Register adds the module to r.
func Register(r *perftest.Registry) error {
	return r.Register(Key, New)
}

func (m *Module) Name(layout perftest.Layout) string {
	if layout == perftest.FeaturesFirst {
		return "naive_transposed"
	}
	return "naive"
}

func (m *Module) SupportsLayout(perftest.Layout) bool {
	return true
}

func (m *Module) ComparisonPriority(layout perftest.Layout) int {
	if layout == perftest.FeaturesFirst {
		return 90
	}
	return 100
}

func (m *Module) Do(layout perftest.Layout, block [][]float32) (perftest.Measurement, error) {
	if layout == perftest.FeaturesFirst {
		return m.doFeaturesFirst(block)
	}
	return m.doObjectsFirst(block)
}

func (m *Module) doObjectsFirst(rows [][]float32) (perftest.Measurement, error) {
	if err := m.model.CheckObjectsFirst(rows); err != nil {
		return perftest.Measurement{}, err
	}
	m.out = compiled.Grow(m.out, len(rows))
	out := m.out

	start := time.Now()
	for d, row := range rows {
		sum := 0.0
		for i := range m.model.Trees {
			t := &m.model.Trees[i]
			idx := 0
			for j, f := range t.Features {
				if row[f] > t.Borders[j] {
					idx |= 1 << j
				}
			}
			sum += t.LeafValues[idx]
		}
		out[d] = sum
	}
	m.model.Finish(out)
	elapsed := time.Since(start)

	return perftest.Measurement{Elapsed: elapsed, Values: out}, nil
}

func (m *Module) doFeaturesFirst(columns [][]float32) (perftest.Measurement, error) {
	docs, err := m.model.CheckFeaturesFirst(columns)
	if err != nil {
		return perftest.Measurement{}, err
	}
	m.out = compiled.Grow(m.out, docs)
	out := m.out

	start := time.Now()
	for d := 0; d < docs; d++ {
		sum := 0.0
		for i := range m.model.Trees {
			t := &m.model.Trees[i]
			idx := 0
			for j, f := range t.Features {
				if columns[f][d] > t.Borders[j] {
					idx |= 1 << j
				}
			}
			sum += t.LeafValues[idx]
		}
		out[d] = sum
	}
	m.model.Finish(out)
	elapsed := time.Since(start)

	return perftest.Measurement{Elapsed: elapsed, Values: out}, nil
}
