// Package binarized scores documents in two passes: every used feature is
// first quantized into a one-byte bin, then trees compare bins against the
// rank of their split borders.
package binarized

import (
	"math"
	"sort"
	"time"

	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
	"github.com/ajitpratap0/modelperf/pkg/perftest"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules/internal/compiled"
)

// Key is the registry key of the module.
const Key = "binarized"

// MaxBorders is the largest border count a feature may have for its bins to
// fit a byte.
const MaxBorders = math.MaxUint8

type quantizedFeature struct {
	flat    int
	borders []float32
}

type binTree struct {
	// slots index Module.features, one per level
	slots      []int
	ranks      []uint8
	leafValues []float64
}

// Module evaluates trees over quantized features.
type Module struct {
	features     []quantizedFeature
	trees        []binTree
	scale, bias  float64
	featureCount int

	// bins[slot*docs+d] is the bin of document d for features[slot]
	bins []uint8
	out  []float64
}

// New builds the module for m. It fails when a feature has more borders than
// a byte can rank.
func New(m *model.Model) (perftest.Module, error) {
	c, err := compiled.Compile(m)
	if err != nil {
		return nil, err
	}

	for i, f := range m.FeaturesInfo.FloatFeatures {
		if len(f.Borders) > MaxBorders {
			return nil, perferrors.Newf(perferrors.ErrorTypeModule,
				"feature has %d borders, at most %d fit in a byte", len(f.Borders), MaxBorders).
				WithDetail("float_feature_index", i)
		}
	}

	mod := &Module{
		scale:        c.Scale,
		bias:         c.Bias,
		featureCount: c.FeatureCount,
	}

	slotOf := make(map[int]int)
	for i := range c.Trees {
		t := &c.Trees[i]
		bt := binTree{
			slots:      make([]int, len(t.Features)),
			ranks:      make([]uint8, len(t.Features)),
			leafValues: t.LeafValues,
		}
		for j, ff := range t.FloatFeatures {
			slot, ok := slotOf[ff]
			if !ok {
				borders := sortedBorders(m, ff)
				slot = len(mod.features)
				slotOf[ff] = slot
				mod.features = append(mod.features, quantizedFeature{flat: t.Features[j], borders: borders})
			}

			borders := mod.features[slot].borders
			rank := sort.Search(len(borders), func(k int) bool { return borders[k] >= t.Borders[j] })
			if rank == len(borders) || borders[rank] != t.Borders[j] {
				return nil, perferrors.New(perferrors.ErrorTypeModule, "split border is not among the feature borders").
					WithDetail("tree", i).
					WithDetail("float_feature_index", ff).
					WithDetail("border", t.Borders[j])
			}
			bt.slots[j] = slot
			bt.ranks[j] = uint8(rank)
		}
		mod.trees = append(mod.trees, bt)
	}
	return mod, nil
}

func sortedBorders(m *model.Model, floatFeature int) []float32 {
	src := m.FeaturesInfo.FloatFeatures[floatFeature].Borders
	borders := make([]float32, len(src))
	copy(borders, src)
	sort.Slice(borders, func(a, b int) bool { return borders[a] < borders[b] })
	return borders
}

// Register adds the module to r.
func Register(r *perftest.Registry) error {
	return r.Register(Key, New)
}

func (m *Module) Name(layout perftest.Layout) string {
	if layout == perftest.FeaturesFirst {
		return "binarized_transposed"
	}
	return "binarized"
}

func (m *Module) SupportsLayout(perftest.Layout) bool {
	return true
}

func (m *Module) ComparisonPriority(layout perftest.Layout) int {
	if layout == perftest.FeaturesFirst {
		return 40
	}
	return 50
}

func (m *Module) Do(layout perftest.Layout, block [][]float32) (perftest.Measurement, error) {
	var docs int
	if layout == perftest.FeaturesFirst {
		if len(block) < m.featureCount {
			return perftest.Measurement{}, perferrors.Newf(perferrors.ErrorTypeModule,
				"block has %d features, model needs %d", len(block), m.featureCount)
		}
		if len(block) == 0 {
			return perftest.Measurement{}, perferrors.New(perferrors.ErrorTypeModule, "features-first block has no columns")
		}
		docs = len(block[0])
		for f, col := range block {
			if len(col) != docs {
				return perftest.Measurement{}, perferrors.Newf(perferrors.ErrorTypeModule,
					"feature %d has %d values, expected %d", f, len(col), docs)
			}
		}
	} else {
		docs = len(block)
		for d, row := range block {
			if len(row) < m.featureCount {
				return perftest.Measurement{}, perferrors.Newf(perferrors.ErrorTypeModule,
					"document %d has %d features, model needs %d", d, len(row), m.featureCount)
			}
		}
	}

	m.reserve(docs)
	bins := m.bins
	out := m.out

	start := time.Now()
	if layout == perftest.FeaturesFirst {
		for slot, f := range m.features {
			quantizeColumn(bins[slot*docs:(slot+1)*docs], block[f.flat][:docs], f.borders)
		}
	} else {
		for slot, f := range m.features {
			dst := bins[slot*docs : (slot+1)*docs]
			for d, row := range block {
				dst[d] = quantize(row[f.flat], f.borders)
			}
		}
	}

	for i := range m.trees {
		t := &m.trees[i]
		for d := 0; d < docs; d++ {
			idx := 0
			for j, slot := range t.slots {
				if bins[slot*docs+d] > t.ranks[j] {
					idx |= 1 << j
				}
			}
			out[d] += t.leafValues[idx]
		}
	}
	for d := range out {
		out[d] = m.scale*out[d] + m.bias
	}
	elapsed := time.Since(start)

	return perftest.Measurement{Elapsed: elapsed, Values: out}, nil
}

func (m *Module) reserve(docs int) {
	need := len(m.features) * docs
	if cap(m.bins) < need {
		m.bins = make([]uint8, need)
	}
	m.bins = m.bins[:need]
	m.out = compiled.Grow(m.out, docs)
}

// quantize returns the number of borders strictly below v. NaN lands in bin 0.
func quantize(v float32, borders []float32) uint8 {
	lo, hi := 0, len(borders)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if borders[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return uint8(lo)
}

func quantizeColumn(dst []uint8, col []float32, borders []float32) {
	for d, v := range col {
		dst[d] = quantize(v, borders)
	}
}
