package perftest

import (
	"math"
	"sort"
	"time"
)

// TimingResult collects elapsed-time samples, in seconds, for one result name.
type TimingResult struct {
	Times []float64
}

// Add records one sample.
func (t *TimingResult) Add(elapsed time.Duration) {
	t.Times = append(t.Times, elapsed.Seconds())
}

// Min returns the smallest sample, or NaN with no samples.
func (t *TimingResult) Min() float64 {
	if len(t.Times) == 0 {
		return math.NaN()
	}
	m := t.Times[0]
	for _, v := range t.Times[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

// Max returns the largest sample, or NaN with no samples.
func (t *TimingResult) Max() float64 {
	if len(t.Times) == 0 {
		return math.NaN()
	}
	m := t.Times[0]
	for _, v := range t.Times[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// Mean returns the arithmetic mean, or NaN with no samples.
func (t *TimingResult) Mean() float64 {
	if len(t.Times) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range t.Times {
		sum += v
	}
	return sum / float64(len(t.Times))
}

// Summary returns min, max and mean together.
func (t *TimingResult) Summary() Summary {
	return Summary{Min: t.Min(), Max: t.Max(), Mean: t.Mean()}
}

// Summary is the reported statistic triple of one result.
type Summary struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Results maps result names to their samples. The baseline name is the one
// every other result is compared to in the report.
type Results struct {
	BaseResultName string
	results        map[string]*TimingResult
}

// NewResults creates an empty result set.
func NewResults(baseResultName string) *Results {
	return &Results{
		BaseResultName: baseResultName,
		results:        make(map[string]*TimingResult),
	}
}

// UpdateResult appends one sample under name.
func (r *Results) UpdateResult(name string, elapsed time.Duration) {
	res, ok := r.results[name]
	if !ok {
		res = &TimingResult{}
		r.results[name] = res
	}
	res.Add(elapsed)
}

// Get returns the samples recorded under name.
func (r *Results) Get(name string) (*TimingResult, bool) {
	res, ok := r.results[name]
	return res, ok
}

// Names returns every name with at least one sample, sorted.
func (r *Results) Names() []string {
	names := make([]string, 0, len(r.results))
	for name := range r.results {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct result names.
func (r *Results) Len() int {
	return len(r.results)
}
