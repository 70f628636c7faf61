// Package dataset holds the benchmark pool: a read-only set of documents with
// a fixed number of float features, stored feature-major in one contiguous
// buffer so that per-feature ranges can be handed out without copying.
package dataset

import (
	"fmt"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// Pool is an immutable collection of documents with float features.
//
// Feature f of stored object i lives at values[f*stride+i]. A pool produced by
// Subset shares the storage of its parent and addresses it through objects.
type Pool struct {
	values       []float32
	stride       int
	featureCount int
	featureNames []string
	labels       []float32

	// objects maps pool object index -> storage index; nil means identity
	objects []int
}

// NewPoolFromColumns packs per-feature columns into a single consecutive
// buffer. All columns must have the same length. labels may be nil.
func NewPoolFromColumns(columns [][]float32, names []string, labels []float32) (*Pool, error) {
	objectCount := len(labels)
	if len(columns) > 0 {
		objectCount = len(columns[0])
	}

	values := make([]float32, len(columns)*objectCount)
	for f, col := range columns {
		if len(col) != objectCount {
			return nil, perferrors.Newf(perferrors.ErrorTypeData,
				"feature %d has %d values, expected %d", f, len(col), objectCount)
		}
		copy(values[f*objectCount:], col)
	}

	if labels != nil && len(labels) != objectCount {
		return nil, perferrors.Newf(perferrors.ErrorTypeData,
			"label column has %d values, expected %d", len(labels), objectCount)
	}

	if names == nil {
		names = make([]string, len(columns))
	}
	for f := range names {
		if names[f] == "" {
			names[f] = fmt.Sprintf("f%d", f)
		}
	}

	return &Pool{
		values:       values,
		stride:       objectCount,
		featureCount: len(columns),
		featureNames: names,
		labels:       labels,
	}, nil
}

// ObjectCount returns the number of documents in the pool.
func (p *Pool) ObjectCount() int {
	if p.objects != nil {
		return len(p.objects)
	}
	return p.stride
}

// FeatureCount returns the number of float features per document.
func (p *Pool) FeatureCount() int {
	return p.featureCount
}

// FeatureNames returns feature names in flat feature order.
func (p *Pool) FeatureNames() []string {
	return p.featureNames
}

// Labels returns the label of every document, or nil when the pool has none.
func (p *Pool) Labels() []float32 {
	if p.labels == nil || p.objects == nil {
		return p.labels
	}
	out := make([]float32, len(p.objects))
	for i, idx := range p.objects {
		out[i] = p.labels[idx]
	}
	return out
}

// ConsecutiveSubsetBegin returns the storage offset of the first document when
// the pool's documents occupy one consecutive run of storage.
func (p *Pool) ConsecutiveSubsetBegin() (int, bool) {
	if p.objects == nil {
		return 0, true
	}
	if len(p.objects) == 0 {
		return 0, true
	}
	begin := p.objects[0]
	for i, idx := range p.objects {
		if idx != begin+i {
			return 0, false
		}
	}
	return begin, true
}

// FeatureData returns the values of one feature for every document, as a view
// into the pool storage. It returns nil when the pool is not consecutive.
func (p *Pool) FeatureData(flatFeatureIdx int) []float32 {
	begin, ok := p.ConsecutiveSubsetBegin()
	if !ok {
		return nil
	}
	start := flatFeatureIdx*p.stride + begin
	n := p.ObjectCount()
	return p.values[start : start+n : start+n]
}

// Value returns feature f of document i regardless of storage layout.
func (p *Pool) Value(i, f int) float32 {
	if p.objects != nil {
		i = p.objects[i]
	}
	return p.values[f*p.stride+i]
}

// Subset returns a pool of the given documents sharing this pool's storage.
// Indices refer to documents of p.
func (p *Pool) Subset(indices []int) *Pool {
	objects := make([]int, len(indices))
	for i, idx := range indices {
		if p.objects != nil {
			idx = p.objects[idx]
		}
		objects[i] = idx
	}
	return &Pool{
		values:       p.values,
		stride:       p.stride,
		featureCount: p.featureCount,
		featureNames: p.featureNames,
		labels:       p.labels,
		objects:      objects,
	}
}
