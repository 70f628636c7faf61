package vectorized

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
	"github.com/ajitpratap0/modelperf/pkg/perftest"
	"github.com/ajitpratap0/modelperf/pkg/testutil"
)

func TestVectorizedMatchesReference(t *testing.T) {
	m := testutil.RandomModel(testutil.ModelSpec{Features: 6, Trees: 25, Depth: 6, Borders: 32, Seed: 9})
	columns := testutil.RandomColumns(6, 200, 4, testutil.ModelBorders(m))
	rows := testutil.Rows(columns)

	module, err := New(m)
	require.NoError(t, err)

	// run twice to exercise buffer reuse, the second time on a shorter block
	for _, n := range []int{200, 37} {
		block := make([][]float32, len(columns))
		for f := range columns {
			block[f] = columns[f][:n]
		}
		got, err := module.Do(perftest.FeaturesFirst, block)
		require.NoError(t, err)
		require.Len(t, got.Values, n)
		for d := 0; d < n; d++ {
			assert.InDelta(t, m.Predict(rows[d]), got.Values[d], 1e-9, "doc %d", d)
		}
	}
}

func TestVectorizedDescriptor(t *testing.T) {
	module, err := New(testutil.RandomModel(testutil.ModelSpec{Features: 1, Trees: 1, Depth: 1, Borders: 1}))
	require.NoError(t, err)

	assert.False(t, module.SupportsLayout(perftest.ObjectsFirst))
	assert.True(t, module.SupportsLayout(perftest.FeaturesFirst))
	assert.Equal(t, "vectorized_transposed", module.Name(perftest.FeaturesFirst))
	assert.Equal(t, 10, module.ComparisonPriority(perftest.FeaturesFirst))

	_, err = module.Do(perftest.ObjectsFirst, [][]float32{{1}})
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeModule))
}

func TestVectorizedRaggedBlock(t *testing.T) {
	module, err := New(testutil.RandomModel(testutil.ModelSpec{Features: 2, Trees: 1, Depth: 2, Borders: 2, Seed: 2}))
	require.NoError(t, err)

	_, err = module.Do(perftest.FeaturesFirst, [][]float32{{0.1, 0.2}, {0.3}})
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeModule))
}
