// Package model decodes oblivious decision tree ensembles and provides a
// reference scalar evaluator.
//
// The JSON layout follows the CatBoost JSON export for float features:
//
//	{
//	  "features_info": {"float_features": [{"flat_feature_index": 0, "borders": [0.5, 1.5]}]},
//	  "oblivious_trees": [{"splits": [{"float_feature_index": 0, "border": 0.5}], "leaf_values": [0.1, -0.1]}],
//	  "scale_and_bias": [1, [0]]
//	}
package model

import (
	"io"
	"math"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/modelperf/pkg/compression"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// FloatFeature describes one float feature used by the model.
type FloatFeature struct {
	FeatureIndex     int       `json:"feature_index"`
	FlatFeatureIndex int       `json:"flat_feature_index"`
	Borders          []float32 `json:"borders"`
}

// FeaturesInfo lists the features the model reads.
type FeaturesInfo struct {
	FloatFeatures []FloatFeature `json:"float_features"`
}

// Split compares one float feature with a border.
type Split struct {
	FloatFeatureIndex int     `json:"float_feature_index"`
	Border            float32 `json:"border"`
}

// Tree is an oblivious tree: every level uses the same split, so a document's
// leaf is the bit mask of split outcomes.
type Tree struct {
	Splits     []Split   `json:"splits"`
	LeafValues []float64 `json:"leaf_values"`
}

// Depth returns the number of splits.
func (t *Tree) Depth() int {
	return len(t.Splits)
}

// ScaleAndBias is decoded from the [scale, [bias]] pair.
type ScaleAndBias struct {
	Scale float64
	Bias  float64
}

// UnmarshalJSON accepts [scale, [bias]] and [scale, bias].
func (sb *ScaleAndBias) UnmarshalJSON(data []byte) error {
	var raw []gojson.RawMessage
	if err := gojson.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return perferrors.New(perferrors.ErrorTypeData, "scale_and_bias must have two elements")
	}
	if err := gojson.Unmarshal(raw[0], &sb.Scale); err != nil {
		return err
	}
	var biases []float64
	if err := gojson.Unmarshal(raw[1], &biases); err == nil {
		if len(biases) != 1 {
			return perferrors.New(perferrors.ErrorTypeData, "only single-dimension models are supported").
				WithDetail("dimensions", len(biases))
		}
		sb.Bias = biases[0]
		return nil
	}
	return gojson.Unmarshal(raw[1], &sb.Bias)
}

// MarshalJSON writes the [scale, [bias]] form.
func (sb ScaleAndBias) MarshalJSON() ([]byte, error) {
	return gojson.Marshal([]interface{}{sb.Scale, []float64{sb.Bias}})
}

// Model is an ensemble of oblivious trees over float features.
type Model struct {
	FeaturesInfo FeaturesInfo  `json:"features_info"`
	Trees        []Tree        `json:"oblivious_trees"`
	ScaleAndBias *ScaleAndBias `json:"scale_and_bias,omitempty"`
}

// Scale returns the output scale, 1 when absent.
func (m *Model) Scale() float64 {
	if m.ScaleAndBias == nil {
		return 1
	}
	return m.ScaleAndBias.Scale
}

// Bias returns the output bias.
func (m *Model) Bias() float64 {
	if m.ScaleAndBias == nil {
		return 0
	}
	return m.ScaleAndBias.Bias
}

// FloatFeatureCount returns the number of flat features a document must have.
func (m *Model) FloatFeatureCount() int {
	n := 0
	for _, f := range m.FeaturesInfo.FloatFeatures {
		if f.FlatFeatureIndex+1 > n {
			n = f.FlatFeatureIndex + 1
		}
	}
	return n
}

// FlatIndex maps a split's float feature index to the pool column it reads.
func (m *Model) FlatIndex(floatFeatureIndex int) int {
	return m.FeaturesInfo.FloatFeatures[floatFeatureIndex].FlatFeatureIndex
}

// Validate checks tree shapes and feature references.
func (m *Model) Validate() error {
	if len(m.Trees) == 0 {
		return perferrors.New(perferrors.ErrorTypeData, "model has no trees")
	}
	for i, tree := range m.Trees {
		if tree.Depth() > 16 {
			return perferrors.New(perferrors.ErrorTypeData, "tree is too deep").
				WithDetail("tree", i).
				WithDetail("depth", tree.Depth())
		}
		if len(tree.LeafValues) != 1<<tree.Depth() {
			return perferrors.New(perferrors.ErrorTypeData, "leaf count does not match tree depth").
				WithDetail("tree", i).
				WithDetail("leaves", len(tree.LeafValues)).
				WithDetail("depth", tree.Depth())
		}
		for _, split := range tree.Splits {
			if split.FloatFeatureIndex < 0 || split.FloatFeatureIndex >= len(m.FeaturesInfo.FloatFeatures) {
				return perferrors.New(perferrors.ErrorTypeData, "split refers to an unknown float feature").
					WithDetail("tree", i).
					WithDetail("float_feature_index", split.FloatFeatureIndex)
			}
		}
	}
	for i, f := range m.FeaturesInfo.FloatFeatures {
		if f.FlatFeatureIndex < 0 {
			return perferrors.New(perferrors.ErrorTypeData, "negative flat feature index").
				WithDetail("float_feature", i)
		}
	}
	return nil
}

// LeafIndex returns the leaf a document reaches in tree t.
func (m *Model) LeafIndex(t *Tree, row []float32) int {
	idx := 0
	for j, split := range t.Splits {
		if row[m.FlatIndex(split.FloatFeatureIndex)] > split.Border {
			idx |= 1 << j
		}
	}
	return idx
}

// Predict evaluates one document given as a row of flat features.
func (m *Model) Predict(row []float32) float64 {
	sum := 0.0
	for i := range m.Trees {
		t := &m.Trees[i]
		sum += t.LeafValues[m.LeafIndex(t, row)]
	}
	return m.Scale()*sum + m.Bias()
}

// MaxBorderCount returns the largest border count over all float features.
func (m *Model) MaxBorderCount() int {
	n := 0
	for _, f := range m.FeaturesInfo.FloatFeatures {
		if len(f.Borders) > n {
			n = len(f.Borders)
		}
	}
	return n
}

// BorderRank returns the position of border among the sorted borders of a
// float feature, or -1 when the border is not listed.
func (m *Model) BorderRank(floatFeatureIndex int, border float32) int {
	for i, b := range m.FeaturesInfo.FloatFeatures[floatFeatureIndex].Borders {
		if b == border || (math.IsNaN(float64(b)) && math.IsNaN(float64(border))) {
			return i
		}
	}
	return -1
}

// Decode reads a JSON model and validates it.
func Decode(r io.Reader) (*Model, error) {
	var m Model
	dec := gojson.NewDecoder(r)
	if err := dec.Decode(&m); err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to decode model")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Load reads a (possibly compressed) JSON model file.
func Load(path string) (*Model, error) {
	rc, err := compression.Open(path)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to open model").
			WithDetail("path", path)
	}
	defer rc.Close()

	m, err := Decode(rc)
	if err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to load model").
			WithDetail("path", path)
	}
	return m, nil
}
