package perftest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingResultStatistics(t *testing.T) {
	res := &TimingResult{Times: []float64{1, 2, 3}}

	assert.Equal(t, 1.0, res.Min())
	assert.Equal(t, 3.0, res.Max())
	assert.Equal(t, 2.0, res.Mean())
	assert.Equal(t, Summary{Min: 1, Max: 3, Mean: 2}, res.Summary())
}

func TestTimingResultOrdering(t *testing.T) {
	samples := [][]float64{
		{0.5},
		{3, 1, 2},
		{1e-9, 4.2, 0.001, 7, 7},
		{2, 2, 2},
	}
	for _, times := range samples {
		res := &TimingResult{Times: times}
		assert.LessOrEqual(t, res.Min(), res.Mean())
		assert.LessOrEqual(t, res.Mean(), res.Max())
	}
}

func TestTimingResultEmpty(t *testing.T) {
	res := &TimingResult{}
	assert.True(t, math.IsNaN(res.Min()))
	assert.True(t, math.IsNaN(res.Max()))
	assert.True(t, math.IsNaN(res.Mean()))
}

func TestTimingResultAddSeconds(t *testing.T) {
	res := &TimingResult{}
	res.Add(1500 * time.Millisecond)
	assert.Equal(t, []float64{1.5}, res.Times)
}

func TestResults(t *testing.T) {
	results := NewResults("base")
	results.UpdateResult("z", time.Second)
	results.UpdateResult("base", time.Second)
	results.UpdateResult("z", 2*time.Second)

	assert.Equal(t, []string{"base", "z"}, results.Names())
	assert.Equal(t, 2, results.Len())

	z, ok := results.Get("z")
	assert.True(t, ok)
	assert.Len(t, z.Times, 2)

	_, ok = results.Get("missing")
	assert.False(t, ok)
}
