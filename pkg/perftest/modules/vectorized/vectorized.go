// Package vectorized scores a whole features-first block one tree at a time,
// sweeping each split's column once and accumulating leaf indexes.
package vectorized

import (
	"time"

	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
	"github.com/ajitpratap0/modelperf/pkg/perftest"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules/internal/compiled"
)

// Key is the registry key of the module.
const Key = "vectorized"

// Module evaluates column sweeps over features-first blocks only.
type Module struct {
	model   *compiled.Model
	out     []float64
	indexes []uint32
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

func (m *Module) Name(perftest.Layout) string {
	return "vectorized_transposed"
}

func (m *Module) SupportsLayout(layout perftest.Layout) bool {
	return layout == perftest.FeaturesFirst
}

func (m *Module) ComparisonPriority(perftest.Layout) int {
	return 10
}

func (m *Module) Do(layout perftest.Layout, columns [][]float32) (perftest.Measurement, error) {
	if layout != perftest.FeaturesFirst {
		return perftest.Measurement{}, perferrors.New(perferrors.ErrorTypeModule, "vectorized scoring needs features-first blocks").
			WithDetail("layout", layout.String())
	}
	docs, err := m.model.CheckFeaturesFirst(columns)
	if err != nil {
		return perftest.Measurement{}, err
	}
	m.out = compiled.Grow(m.out, docs)
	if cap(m.indexes) < docs {
		m.indexes = make([]uint32, docs)
	}
	out := m.out
	indexes := m.indexes[:docs]

	start := time.Now()
	for i := range m.model.Trees {
		t := &m.model.Trees[i]
		for d := range indexes {
			indexes[d] = 0
		}
		for j, f := range t.Features {
			col := columns[f][:docs]
			border := t.Borders[j]
			bit := uint32(1) << j
			for d, v := range col {
				if v > border {
					indexes[d] |= bit
				}
			}
		}
		leaves := t.LeafValues
		for d, idx := range indexes {
			out[d] += leaves[idx]
		}
	}
	m.model.Finish(out)
	elapsed := time.Since(start)

	return perftest.Measurement{Elapsed: elapsed, Values: out}, nil
}
