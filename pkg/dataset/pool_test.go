package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

func testPool(t *testing.T) *Pool {
	t.Helper()
	pool, err := NewPoolFromColumns(
		[][]float32{
			{0, 1, 2, 3, 4},
			{10, 11, 12, 13, 14},
		},
		[]string{"age", ""},
		[]float32{1, 0, 1, 0, 1},
	)
	require.NoError(t, err)
	return pool
}

func TestPoolAccess(t *testing.T) {
	pool := testPool(t)

	assert.Equal(t, 5, pool.ObjectCount())
	assert.Equal(t, 2, pool.FeatureCount())
	assert.Equal(t, []string{"age", "f1"}, pool.FeatureNames())
	assert.Equal(t, float32(13), pool.Value(3, 1))

	begin, ok := pool.ConsecutiveSubsetBegin()
	assert.True(t, ok)
	assert.Equal(t, 0, begin)
	assert.Equal(t, []float32{10, 11, 12, 13, 14}, pool.FeatureData(1))
}

func TestPoolFeatureDataIsView(t *testing.T) {
	pool := testPool(t)

	a := pool.FeatureData(0)
	b := pool.FeatureData(0)
	assert.Same(t, &a[0], &b[0])
	assert.Equal(t, len(a), cap(a))
}

func TestPoolColumnLengthMismatch(t *testing.T) {
	_, err := NewPoolFromColumns([][]float32{{1, 2}, {3}}, nil, nil)
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeData))

	_, err = NewPoolFromColumns([][]float32{{1, 2}}, nil, []float32{1})
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeData))
}

func TestSubsetConsecutive(t *testing.T) {
	pool := testPool(t)

	sub := pool.Subset([]int{1, 2, 3})
	begin, ok := sub.ConsecutiveSubsetBegin()
	require.True(t, ok)
	assert.Equal(t, 1, begin)
	assert.Equal(t, 3, sub.ObjectCount())
	assert.Equal(t, []float32{11, 12, 13}, sub.FeatureData(1))
	assert.Equal(t, []float32{0, 1, 0}, sub.Labels())

	nested := sub.Subset([]int{1, 2})
	assert.Equal(t, []float32{2, 3}, nested.FeatureData(0))
}

func TestSubsetNotConsecutive(t *testing.T) {
	pool := testPool(t)

	sub := pool.Subset([]int{0, 2, 4})
	_, ok := sub.ConsecutiveSubsetBegin()
	assert.False(t, ok)
	assert.Nil(t, sub.FeatureData(0))
	assert.Equal(t, float32(14), sub.Value(2, 1))
}
