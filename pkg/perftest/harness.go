package perftest

import (
	"context"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/modelperf/pkg/logger"
	"github.com/ajitpratap0/modelperf/pkg/metrics"
	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/observability"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
	"github.com/ajitpratap0/modelperf/pkg/performance"
)

// HarnessConfig controls one benchmark run.
type HarnessConfig struct {
	// BlockSize is documents per block, or WholePool; zero is a config error
	BlockSize           int
	IncludePartialBlock bool
	Repetitions         int
	MergeLayouts        bool
	// ResultsPath receives the JSON report; empty skips writing it
	ResultsPath string
	// MetricsPath receives Prometheus metrics in text format; empty skips them
	MetricsPath string
	// CPUProfilePath receives a CPU profile of the timing phase; empty disables it
	CPUProfilePath string
}

// Harness wires the pool, the model and the registered modules into one run.
type Harness struct {
	Registry *Registry
	Model    *model.Model
	Pool     Dataset
	Config   HarnessConfig
	// Stdout receives the comparison table, defaulting to os.Stdout
	Stdout io.Writer
	// Metrics, when set, receives every sample and mismatch
	Metrics *metrics.Recorder
}

// RunResult is what a finished run produced.
type RunResult struct {
	Results    *Results
	Report     Report
	Modules    *ModuleSet
	Blocks     int
	BlockSize  int
	Mismatches int
}

// Run executes layout, construction, timing and reporting in order on the
// calling goroutine.
func (h *Harness) Run(ctx context.Context) (result *RunResult, err error) {
	log := logger.WithContext(ctx)

	ctx, runSpan := observability.StartPhase(ctx, "run")
	defer func() { runSpan.End(err) }()

	if h.Registry == nil || h.Model == nil || h.Pool == nil {
		return nil, perferrors.New(perferrors.ErrorTypeConfig, "harness needs a registry, a model and a pool")
	}

	blocks, err := h.buildBlocks(ctx, log)
	if err != nil {
		return nil, err
	}

	set := h.constructModules(ctx, log)

	results := NewResults("")
	if set.HasBaseline() {
		for _, cm := range set.Modules {
			if cm.Key == set.BaselineKey {
				results.BaseResultName = RecordName(cm.Module, set.BaselineLayout, h.Config.MergeLayouts)
				break
			}
		}
		log.Debug("baseline selected",
			zap.String("module", set.BaselineKey),
			zap.Stringer("layout", set.BaselineLayout),
			zap.String("name", results.BaseResultName))
	}

	canon := NewCanonData(log)
	if h.Metrics != nil {
		canon.SetObserver(func(int, int, float64, float64) { h.Metrics.IncMismatch() })
	}

	if err := h.time(ctx, log, set, blocks, canon, results); err != nil {
		return nil, err
	}

	report, err := h.report(ctx, results)
	if err != nil {
		return nil, err
	}

	if canon.Mismatches() > 0 {
		log.Warn("module outputs disagree", zap.Int("mismatches", canon.Mismatches()))
	}

	return &RunResult{
		Results:    results,
		Report:     report,
		Modules:    set,
		Blocks:     blocks.Count(),
		BlockSize:  blocks.BlockSize,
		Mismatches: canon.Mismatches(),
	}, nil
}

func (h *Harness) buildBlocks(ctx context.Context, log *zap.Logger) (blocks *Blocks, err error) {
	_, span := observability.StartPhase(ctx, "layout")
	defer func() { span.End(err) }()

	blocks, err = BuildBlocks(h.Pool, BlockOptions{
		BlockSize:           h.Config.BlockSize,
		IncludePartialBlock: h.Config.IncludePartialBlock,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("blocks built",
		zap.Int("block_count", blocks.Count()),
		zap.Int("block_size", blocks.BlockSize),
		zap.Int("objects", blocks.ObjectCount),
		zap.Int("features", blocks.FeatureCount))
	span.SetAttribute("block_count", blocks.Count())
	span.SetAttribute("block_size", blocks.BlockSize)
	if h.Metrics != nil {
		h.Metrics.SetLayout(blocks.Count(), blocks.BlockSize)
	}
	return blocks, nil
}

func (h *Harness) constructModules(ctx context.Context, log *zap.Logger) *ModuleSet {
	_, span := observability.StartPhase(ctx, "construct")
	set := h.Registry.ConstructAll(h.Model, log)
	span.SetAttribute("modules", len(set.Modules))
	span.SetAttribute("failed", len(set.Failed))
	span.End(nil)

	if h.Metrics != nil {
		for key := range set.Failed {
			h.Metrics.ConstructionFailed(key)
		}
		h.Metrics.SetModules(len(set.Modules))
	}
	if len(set.Modules) == 0 {
		log.Warn("no module could be constructed for the model")
	}
	return set
}

func (h *Harness) time(ctx context.Context, log *zap.Logger, set *ModuleSet, blocks *Blocks, canon *CanonData, results *Results) (err error) {
	_, span := observability.StartPhase(ctx, "timing")
	defer func() { span.End(err) }()

	log.Info("host", performance.DescribeHost().Fields()...)
	monitor, monErr := performance.NewResourceMonitor()
	if monErr != nil {
		log.Debug("resource monitor unavailable", zap.Error(monErr))
	}

	if h.Config.CPUProfilePath != "" {
		profile, err := performance.StartCPUProfile(h.Config.CPUProfilePath)
		if err != nil {
			return perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to start cpu profile").
				WithDetail("path", h.Config.CPUProfilePath)
		}
		defer func() {
			if stopErr := profile.Stop(); stopErr != nil {
				log.Warn("failed to close cpu profile", zap.Error(stopErr))
			}
		}()
	}

	collector := &Collector{
		Repetitions:  h.Config.Repetitions,
		MergeLayouts: h.Config.MergeLayouts,
		Canon:        canon,
		Logger:       log,
	}
	if h.Metrics != nil {
		collector.Observer = func(name string, layout Layout, elapsed time.Duration) {
			h.Metrics.ObserveSample(name, layout.String(), elapsed)
		}
	}

	timer := metrics.NewTimer("timing")
	if err := collector.Run(ctx, set.Instances(), blocks, results); err != nil {
		return err
	}
	span.SetAttribute("repetitions", collector.Repetitions)

	fields := []zap.Field{zap.Duration("elapsed", timer.Stop())}
	if monitor != nil {
		fields = append(fields, monitor.Usage().Fields()...)
	}
	log.Debug("timing finished", fields...)
	return nil
}

func (h *Harness) report(ctx context.Context, results *Results) (report Report, err error) {
	_, span := observability.StartPhase(ctx, "report")
	defer func() { span.End(err) }()

	out := h.Stdout
	if out == nil {
		out = os.Stdout
	}
	if err := PrintTable(out, results); err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to print report")
	}

	report = BuildReport(results)
	if h.Config.ResultsPath != "" {
		if err := SaveJSON(h.Config.ResultsPath, report); err != nil {
			return nil, err
		}
	}
	if h.Metrics != nil && h.Config.MetricsPath != "" {
		if err := h.Metrics.WriteTextfile(h.Config.MetricsPath); err != nil {
			return nil, perferrors.Wrap(err, perferrors.ErrorTypeFile, "failed to write metrics").
				WithDetail("path", h.Config.MetricsPath)
		}
	}
	return report, nil
}
