// Package testutil provides fixtures shared by modelperf tests: loggers,
// random oblivious-tree models and pools, and temporary input files.
package testutil

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/modelperf/pkg/model"
)

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout.
// The caller must call the returned cancel function to avoid leaks.
func TestContext(_ *testing.T) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// ModelSpec shapes a random model.
type ModelSpec struct {
	Features int
	Trees    int
	Depth    int
	Borders  int
	Seed     int64
}

// RandomModel builds a valid model whose borders fall in [0, 1). Feature f
// reads pool column f.
func RandomModel(spec ModelSpec) *model.Model {
	rng := rand.New(rand.NewSource(spec.Seed))

	m := &model.Model{
		ScaleAndBias: &model.ScaleAndBias{Scale: 0.5, Bias: 0.25},
	}
	for f := 0; f < spec.Features; f++ {
		borders := make([]float32, spec.Borders)
		for i := range borders {
			borders[i] = (float32(i) + rng.Float32()) / float32(spec.Borders)
		}
		sort.Slice(borders, func(a, b int) bool { return borders[a] < borders[b] })
		m.FeaturesInfo.FloatFeatures = append(m.FeaturesInfo.FloatFeatures, model.FloatFeature{
			FeatureIndex:     f,
			FlatFeatureIndex: f,
			Borders:          borders,
		})
	}

	for i := 0; i < spec.Trees; i++ {
		tree := model.Tree{LeafValues: make([]float64, 1<<spec.Depth)}
		for j := 0; j < spec.Depth; j++ {
			f := rng.Intn(spec.Features)
			borders := m.FeaturesInfo.FloatFeatures[f].Borders
			tree.Splits = append(tree.Splits, model.Split{
				FloatFeatureIndex: f,
				Border:            borders[rng.Intn(len(borders))],
			})
		}
		for l := range tree.LeafValues {
			tree.LeafValues[l] = rng.NormFloat64()
		}
		m.Trees = append(m.Trees, tree)
	}
	return m
}

// RandomColumns returns features columns of n values in [0, 1), feature-major.
// Roughly one value in fifty hits a border exactly when borders is given.
func RandomColumns(features, n int, seed int64, borders [][]float32) [][]float32 {
	rng := rand.New(rand.NewSource(seed))
	columns := make([][]float32, features)
	for f := range columns {
		columns[f] = make([]float32, n)
		for i := range columns[f] {
			if borders != nil && len(borders[f]) > 0 && rng.Intn(50) == 0 {
				columns[f][i] = borders[f][rng.Intn(len(borders[f]))]
				continue
			}
			columns[f][i] = rng.Float32()
		}
	}
	return columns
}

// ModelBorders returns the borders of every float feature of m.
func ModelBorders(m *model.Model) [][]float32 {
	out := make([][]float32, len(m.FeaturesInfo.FloatFeatures))
	for i, f := range m.FeaturesInfo.FloatFeatures {
		out[i] = f.Borders
	}
	return out
}

// Rows transposes feature-major columns into document rows.
func Rows(columns [][]float32) [][]float32 {
	if len(columns) == 0 {
		return nil
	}
	rows := make([][]float32, len(columns[0]))
	for d := range rows {
		rows[d] = make([]float32, len(columns))
		for f := range columns {
			rows[d][f] = columns[f][d]
		}
	}
	return rows
}

// WriteFile writes content to name inside a test temp dir and returns its path.
func WriteFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
