package perftest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/modelperf/pkg/dataset"
	"github.com/ajitpratap0/modelperf/pkg/model"
)

// fakeModule scores a block as the sum of each document's features.
type fakeModule struct {
	name       string
	priorities map[Layout]int
	elapsed    time.Duration
	// offset is added to every output to provoke mismatches
	offset float64
	calls  map[Layout]int
	fail   bool
}

func newFakeModule(name string, priorities map[Layout]int) *fakeModule {
	return &fakeModule{
		name:       name,
		priorities: priorities,
		elapsed:    time.Millisecond,
		calls:      make(map[Layout]int),
	}
}

func (m *fakeModule) Name(layout Layout) string {
	if layout == FeaturesFirst {
		return m.name + "_transposed"
	}
	return m.name
}

func (m *fakeModule) SupportsLayout(layout Layout) bool {
	_, ok := m.priorities[layout]
	return ok
}

func (m *fakeModule) ComparisonPriority(layout Layout) int {
	return m.priorities[layout]
}

func (m *fakeModule) Do(layout Layout, block [][]float32) (Measurement, error) {
	m.calls[layout]++
	if m.fail {
		return Measurement{}, errors.New("scoring failed")
	}

	var values []float64
	if layout == ObjectsFirst {
		values = make([]float64, len(block))
		for d, row := range block {
			for _, v := range row {
				values[d] += float64(v)
			}
		}
	} else {
		if len(block) > 0 {
			values = make([]float64, len(block[0]))
		}
		for _, column := range block {
			for d, v := range column {
				values[d] += float64(v)
			}
		}
	}
	for i := range values {
		values[i] += m.offset
	}
	return Measurement{Elapsed: m.elapsed, Values: values}, nil
}

func factoryFor(module Module) Factory {
	return func(*model.Model) (Module, error) { return module, nil }
}

// rampPool builds a pool of n documents where feature f of document i is
// f*100 + i.
func rampPool(t *testing.T, n, features int) *dataset.Pool {
	t.Helper()
	columns := make([][]float32, features)
	for f := range columns {
		columns[f] = make([]float32, n)
		for i := range columns[f] {
			columns[f][i] = float32(f*100 + i)
		}
	}
	pool, err := dataset.NewPoolFromColumns(columns, nil, nil)
	require.NoError(t, err)
	return pool
}
