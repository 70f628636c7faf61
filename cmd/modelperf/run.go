package main

import (
	"context"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/modelperf/pkg/config"
	"github.com/ajitpratap0/modelperf/pkg/dataset"
	"github.com/ajitpratap0/modelperf/pkg/logger"
	"github.com/ajitpratap0/modelperf/pkg/metrics"
	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/observability"
	"github.com/ajitpratap0/modelperf/pkg/perftest"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules"
)

// runBenchmark loads the inputs and runs the harness on an isolated worker
// whose logger is at debug level.
func runBenchmark(ctx context.Context, cfg *config.RunConfig, stdout, traceOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := logger.Init(logger.Config{
		Level:    cfg.Logging.Level,
		Encoding: cfg.Logging.Encoding,
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tracing := observability.DefaultTracingConfig()
	tracing.ServiceVersion = version
	tracing.Enabled = cfg.Output.Trace
	tracing.Writer = traceOut
	if err := observability.Initialize(tracing); err != nil {
		return err
	}
	defer func() { _ = observability.Shutdown(context.Background()) }()

	reg := perftest.NewRegistry(logger.Get())
	if err := modules.RegisterAll(reg); err != nil {
		return err
	}

	ctx = context.WithValue(ctx, logger.RunIDKey, uuid.NewString())

	return perftest.RunIsolated(ctx, zapcore.DebugLevel, func(ctx context.Context) error {
		log := logger.WithContext(ctx)

		_, span := observability.StartPhase(ctx, "load")
		pool, m, err := loadInputs(cfg)
		span.End(err)
		if err != nil {
			return err
		}
		log.Debug("inputs loaded",
			zap.String("pool", cfg.Input.PoolPath),
			zap.Int("objects", pool.ObjectCount()),
			zap.Int("features", pool.FeatureCount()),
			zap.Int("trees", len(m.Trees)))

		h := &perftest.Harness{
			Registry: reg,
			Model:    m,
			Pool:     pool,
			Config: perftest.HarnessConfig{
				BlockSize:           cfg.Layout.BlockSize,
				IncludePartialBlock: cfg.Layout.IncludePartialBlock,
				Repetitions:         cfg.Timing.Repetitions,
				MergeLayouts:        cfg.Timing.MergeLayouts,
				ResultsPath:         cfg.Output.ResultsPath,
				MetricsPath:         cfg.Output.MetricsPath,
				CPUProfilePath:      cfg.Output.CPUProfilePath,
			},
			Stdout: stdout,
		}
		if cfg.Output.MetricsPath != "" {
			h.Metrics = metrics.NewRecorder()
		}

		_, err = h.Run(ctx)
		return err
	})
}

func loadInputs(cfg *config.RunConfig) (*dataset.Pool, *model.Model, error) {
	cd, err := dataset.LoadColumnsDescription(cfg.Input.CdPath)
	if err != nil {
		return nil, nil, err
	}
	pool, err := dataset.Load(cfg.Input.PoolPath, cd, dataset.LoadOptions{HasHeader: cfg.Input.PoolHasHeader})
	if err != nil {
		return nil, nil, err
	}
	m, err := model.Load(cfg.Input.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	return pool, m, nil
}
