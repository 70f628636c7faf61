package perftest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/modelperf/pkg/logger"
	"github.com/ajitpratap0/modelperf/pkg/observability"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// SampleObserver is notified of every timing sample after it is recorded.
type SampleObserver func(name string, layout Layout, elapsed time.Duration)

// Collector times every module on every block, one call at a time.
type Collector struct {
	Repetitions int
	// MergeLayouts records features-first samples under the module's
	// objects-first name, so one name carries both layouts.
	MergeLayouts bool
	Canon        *CanonData
	Observer     SampleObserver
	Logger       *zap.Logger
}

// RecordName returns the result name samples of module in layout go to.
func RecordName(module Module, layout Layout, mergeLayouts bool) string {
	if mergeLayouts {
		return module.Name(ObjectsFirst)
	}
	return module.Name(layout)
}

// Run performs Repetitions passes over modules, layouts and blocks, in that
// nesting order, and appends every elapsed time to results. Only the time a
// module reports for its scoring work is recorded. Without an explicit Logger
// the context's logger is used; each pass is traced as a child of the
// context's span.
func (c *Collector) Run(ctx context.Context, modules []Module, blocks *Blocks, results *Results) error {
	log := c.Logger
	if log == nil {
		log = logger.WithContext(ctx)
	}
	repetitions := c.Repetitions
	if repetitions < 1 {
		repetitions = 1
	}

	for rep := 0; rep < repetitions; rep++ {
		_, span := observability.StartPhase(ctx, "repetition")
		span.SetAttribute("repetition", rep)
		err := c.runRepetition(log, rep, modules, blocks, results)
		span.End(err)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) runRepetition(log *zap.Logger, rep int, modules []Module, blocks *Blocks, results *Results) error {
	for _, module := range modules {
		for _, layout := range Layouts {
			if !module.SupportsLayout(layout) {
				continue
			}
			name := RecordName(module, layout, c.MergeLayouts)
			for blockID := 0; blockID < blocks.Count(); blockID++ {
				if err := c.runBlock(module, layout, name, blockID, blocks, results); err != nil {
					return err
				}
			}
			log.Debug("layout timed",
				zap.Int("repetition", rep),
				zap.String("module", module.Name(layout)),
				zap.Stringer("layout", layout),
				zap.Int("blocks", blocks.Count()))
		}
	}
	return nil
}

func (c *Collector) runBlock(module Module, layout Layout, name string, blockID int, blocks *Blocks, results *Results) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = perferrors.Newf(perferrors.ErrorTypeInternal, "module %s panicked: %v", module.Name(layout), rec).
				WithDetail("block", blockID).
				WithDetail("layout", layout.String())
		}
	}()

	m, err := module.Do(layout, blocks.Data(layout, blockID))
	if err != nil {
		return perferrors.Wrap(err, perferrors.ErrorTypeInternal, fmt.Sprintf("module %s failed", module.Name(layout))).
			WithDetail("block", blockID).
			WithDetail("layout", layout.String())
	}

	results.UpdateResult(name, m.Elapsed)
	if c.Observer != nil {
		c.Observer(name, layout, m.Elapsed)
	}

	if c.Canon != nil && m.Values != nil {
		if err := c.Canon.CheckOrSet(blockID, m.Values); err != nil {
			return perferrors.Wrap(err, perferrors.ErrorTypeVerification, fmt.Sprintf("module %s output rejected", module.Name(layout)))
		}
	}
	return nil
}
