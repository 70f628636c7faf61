package model

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/modelperf/pkg/compression"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

const testModelJSON = `{
  "features_info": {"float_features": [
    {"feature_index": 0, "flat_feature_index": 0, "borders": [0.5, 1.5]},
    {"feature_index": 1, "flat_feature_index": 2, "borders": [10]}
  ]},
  "oblivious_trees": [
    {"splits": [{"float_feature_index": 0, "border": 0.5}, {"float_feature_index": 1, "border": 10}],
     "leaf_values": [1, 2, 3, 4]},
    {"splits": [{"float_feature_index": 0, "border": 1.5}], "leaf_values": [0.5, -0.5]}
  ],
  "scale_and_bias": [2, [0.25]]
}`

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(testModelJSON))
	require.NoError(t, err)

	assert.Len(t, m.Trees, 2)
	assert.Equal(t, 3, m.FloatFeatureCount())
	assert.Equal(t, 2, m.MaxBorderCount())
	assert.Equal(t, 2.0, m.Scale())
	assert.Equal(t, 0.25, m.Bias())
	assert.Equal(t, 1, m.BorderRank(0, 1.5))
	assert.Equal(t, -1, m.BorderRank(0, 7))
}

func TestPredict(t *testing.T) {
	m, err := Decode(strings.NewReader(testModelJSON))
	require.NoError(t, err)

	tests := []struct {
		row  []float32
		want float64
	}{
		// tree0 leaf 0 (1), tree1 leaf 0 (0.5)
		{[]float32{0, 99, 5}, 2*(1+0.5) + 0.25},
		// tree0 leaf 1|2 = 3 (4), tree1 leaf 1 (-0.5)
		{[]float32{2, 99, 11}, 2*(4-0.5) + 0.25},
		// border comparison is strict
		{[]float32{0.5, 0, 10}, 2*(1+0.5) + 0.25},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, m.Predict(tt.row), 1e-12)
	}
}

func TestScaleAndBiasForms(t *testing.T) {
	var sb ScaleAndBias
	require.NoError(t, sb.UnmarshalJSON([]byte(`[1.5, 3]`)))
	assert.Equal(t, ScaleAndBias{Scale: 1.5, Bias: 3}, sb)

	err := sb.UnmarshalJSON([]byte(`[1, [0, 1]]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single-dimension")

	data, err := ScaleAndBias{Scale: 1, Bias: 2}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[1, [2]]`, string(data))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		msg   string
	}{
		{"no trees", `{"oblivious_trees": []}`, "no trees"},
		{"leaf count", `{"features_info": {"float_features": [{"flat_feature_index": 0}]},
			"oblivious_trees": [{"splits": [{"float_feature_index": 0, "border": 1}], "leaf_values": [1]}]}`, "leaf count"},
		{"unknown feature", `{"oblivious_trees": [{"splits": [{"float_feature_index": 3, "border": 1}], "leaf_values": [1, 2]}]}`, "unknown float feature"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeData))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestLoadCompressed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json.lz4")

	var buf bytes.Buffer
	w, err := compression.NewWriter(&buf, compression.LZ4)
	require.NoError(t, err)
	_, err = w.Write([]byte(testModelJSON))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Trees, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeFile))
}
