package perftest

import (
	"math"

	"go.uber.org/zap"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// Epsilon is the largest absolute difference tolerated between two outputs
// for the same document.
const Epsilon = 1e-6

// MismatchObserver is notified of every element that differs from the
// canonical output.
type MismatchObserver func(blockID, index int, value, reference float64)

// CanonData keeps the first output produced for each block and checks every
// later output of the same block against it.
type CanonData struct {
	canon      map[int][]float64
	logger     *zap.Logger
	observer   MismatchObserver
	mismatches int
}

// NewCanonData creates an empty verifier. A nil logger disables diagnostics.
func NewCanonData(logger *zap.Logger) *CanonData {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CanonData{
		canon:  make(map[int][]float64),
		logger: logger,
	}
}

// SetObserver installs a callback run for every mismatched element.
func (c *CanonData) SetObserver(observer MismatchObserver) {
	c.observer = observer
}

// CheckOrSet stores values as the canonical output of blockID when none is
// stored yet, otherwise compares them elementwise. Each element further than
// Epsilon from the reference is logged; mismatches never fail the call. A
// length mismatch means the block itself differs and is returned as an error.
func (c *CanonData) CheckOrSet(blockID int, values []float64) error {
	reference, ok := c.canon[blockID]
	if !ok {
		stored := make([]float64, len(values))
		copy(stored, values)
		c.canon[blockID] = stored
		return nil
	}

	if len(values) != len(reference) {
		return perferrors.New(perferrors.ErrorTypeVerification, "output length differs from canonical output").
			WithDetail("block", blockID).
			WithDetail("length", len(values)).
			WithDetail("canonical_length", len(reference))
	}

	for i, v := range values {
		ref := reference[i]
		if !differs(v, ref) {
			continue
		}
		c.mismatches++
		c.logger.Warn("output differs from canonical output",
			zap.Int("block", blockID),
			zap.Int("index", i),
			zap.Float64("value", v),
			zap.Float64("reference", ref),
			zap.Float64("delta", math.Abs(v-ref)))
		if c.observer != nil {
			c.observer(blockID, i, v, ref)
		}
	}
	return nil
}

// Mismatches returns the number of mismatched elements seen so far.
func (c *CanonData) Mismatches() int {
	return c.mismatches
}

// Canonical returns the stored output of a block.
func (c *CanonData) Canonical(blockID int) ([]float64, bool) {
	v, ok := c.canon[blockID]
	return v, ok
}

// differs treats NaN as equal only to NaN.
func differs(v, ref float64) bool {
	vNaN, refNaN := math.IsNaN(v), math.IsNaN(ref)
	if vNaN || refNaN {
		return vNaN != refNaN
	}
	return math.Abs(v-ref) > Epsilon
}
