// Package compiled flattens a model into the arrays scoring modules index
// in their inner loops.
package compiled

import (
	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// Tree is one oblivious tree with splits resolved to pool columns.
type Tree struct {
	// Features holds the flat feature index read by each level
	Features []int
	// FloatFeatures holds the model float feature index of each level
	FloatFeatures []int
	Borders       []float32
	LeafValues    []float64
}

// Model is a model ready for evaluation.
type Model struct {
	Trees []Tree
	Scale float64
	Bias  float64
	// FeatureCount is the number of flat features a document must carry
	FeatureCount int
}

// Compile resolves every split of m. The model is not retained.
func Compile(m *model.Model) (*Model, error) {
	if m == nil {
		return nil, perferrors.New(perferrors.ErrorTypeModule, "model is nil")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	c := &Model{
		Trees:        make([]Tree, len(m.Trees)),
		Scale:        m.Scale(),
		Bias:         m.Bias(),
		FeatureCount: m.FloatFeatureCount(),
	}
	for i := range m.Trees {
		src := &m.Trees[i]
		t := Tree{
			Features:      make([]int, src.Depth()),
			FloatFeatures: make([]int, src.Depth()),
			Borders:       make([]float32, src.Depth()),
			LeafValues:    src.LeafValues,
		}
		for j, split := range src.Splits {
			t.Features[j] = m.FlatIndex(split.FloatFeatureIndex)
			t.FloatFeatures[j] = split.FloatFeatureIndex
			t.Borders[j] = split.Border
		}
		c.Trees[i] = t
	}
	return c, nil
}

// Finish turns raw leaf sums into predictions in place.
func (c *Model) Finish(sums []float64) {
	for i, s := range sums {
		sums[i] = c.Scale*s + c.Bias
	}
}

// CheckObjectsFirst verifies that every document row has enough features.
func (c *Model) CheckObjectsFirst(rows [][]float32) error {
	for d, row := range rows {
		if len(row) < c.FeatureCount {
			return perferrors.Newf(perferrors.ErrorTypeModule,
				"document %d has %d features, model needs %d", d, len(row), c.FeatureCount)
		}
	}
	return nil
}

// CheckFeaturesFirst verifies that the block has enough equally long columns
// and returns the document count.
func (c *Model) CheckFeaturesFirst(columns [][]float32) (int, error) {
	if len(columns) < c.FeatureCount {
		return 0, perferrors.Newf(perferrors.ErrorTypeModule,
			"block has %d features, model needs %d", len(columns), c.FeatureCount)
	}
	// a block without columns cannot carry its document count
	if len(columns) == 0 {
		return 0, perferrors.New(perferrors.ErrorTypeModule, "features-first block has no columns")
	}
	docs := len(columns[0])
	for f, col := range columns {
		if len(col) != docs {
			return 0, perferrors.Newf(perferrors.ErrorTypeModule,
				"feature %d has %d values, expected %d", f, len(col), docs)
		}
	}
	return docs, nil
}

// Grow returns buf resized to n and zeroed, reallocating only when needed.
func Grow(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	buf = buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}
