package perftest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ajitpratap0/modelperf/pkg/logger"
	"github.com/ajitpratap0/modelperf/pkg/observability"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

func TestCollectorSampleCount(t *testing.T) {
	pool := rampPool(t, 10, 2)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: 5})
	require.NoError(t, err)
	require.Equal(t, 2, blocks.Count())

	module := newFakeModule("only", objectsOnly(1))
	results := NewResults("only")
	c := &Collector{Repetitions: 2, Canon: NewCanonData(nil), Logger: zaptest.NewLogger(t)}

	require.NoError(t, c.Run(context.Background(), []Module{module}, blocks, results))

	res, ok := results.Get("only")
	require.True(t, ok)
	assert.Len(t, res.Times, 4)
	assert.Equal(t, 4, module.calls[ObjectsFirst])
	assert.Zero(t, module.calls[FeaturesFirst])
}

func TestCollectorLayoutNames(t *testing.T) {
	pool := rampPool(t, 6, 2)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: 3})
	require.NoError(t, err)

	both := map[Layout]int{ObjectsFirst: 2, FeaturesFirst: 1}

	t.Run("separate", func(t *testing.T) {
		module := newFakeModule("m", both)
		results := NewResults("")
		c := &Collector{Repetitions: 1, Canon: NewCanonData(nil)}
		require.NoError(t, c.Run(context.Background(), []Module{module}, blocks, results))

		assert.Equal(t, []string{"m", "m_transposed"}, results.Names())
		plain, _ := results.Get("m")
		transposed, _ := results.Get("m_transposed")
		assert.Len(t, plain.Times, 2)
		assert.Len(t, transposed.Times, 2)
	})

	t.Run("merged", func(t *testing.T) {
		module := newFakeModule("m", both)
		results := NewResults("")
		c := &Collector{Repetitions: 1, MergeLayouts: true, Canon: NewCanonData(nil)}
		require.NoError(t, c.Run(context.Background(), []Module{module}, blocks, results))

		assert.Equal(t, []string{"m"}, results.Names())
		merged, _ := results.Get("m")
		assert.Len(t, merged.Times, 4)
	})
}

func TestCollectorVerifiesAcrossModulesAndLayouts(t *testing.T) {
	pool := rampPool(t, 4, 3)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: 2})
	require.NoError(t, err)

	both := map[Layout]int{ObjectsFirst: 1, FeaturesFirst: 1}
	good := newFakeModule("good", both)
	off := newFakeModule("off", objectsOnly(1))
	off.offset = 0.5

	canon := NewCanonData(nil)
	c := &Collector{Repetitions: 1, Canon: canon}
	require.NoError(t, c.Run(context.Background(), []Module{good, off}, blocks, NewResults("")))

	// 2 blocks x 2 documents, each off by 0.5
	assert.Equal(t, 4, canon.Mismatches())

	stored, ok := canon.Canonical(1)
	require.True(t, ok)
	// doc 2: 2 + 102 + 202
	assert.Equal(t, []float64{306, 309}, stored)
}

func TestCollectorObserver(t *testing.T) {
	pool := rampPool(t, 4, 1)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: 2})
	require.NoError(t, err)

	var seen []string
	c := &Collector{
		Repetitions: 1,
		Observer: func(name string, layout Layout, elapsed time.Duration) {
			seen = append(seen, name+"/"+layout.String())
			assert.Equal(t, time.Millisecond, elapsed)
		},
	}
	module := newFakeModule("m", map[Layout]int{FeaturesFirst: 1})
	require.NoError(t, c.Run(context.Background(), []Module{module}, blocks, NewResults("")))
	assert.Equal(t, []string{"m_transposed/features_first", "m_transposed/features_first"}, seen)
}

func TestCollectorModuleError(t *testing.T) {
	pool := rampPool(t, 4, 1)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: WholePool})
	require.NoError(t, err)

	module := newFakeModule("m", objectsOnly(1))
	module.fail = true

	c := &Collector{Repetitions: 3}
	err = c.Run(context.Background(), []Module{module}, blocks, NewResults(""))
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeInternal))
	assert.Equal(t, 1, module.calls[ObjectsFirst])
}

type panickingModule struct{ *fakeModule }

func (panickingModule) Do(Layout, [][]float32) (Measurement, error) {
	panic("index out of range")
}

func TestCollectorModulePanic(t *testing.T) {
	pool := rampPool(t, 4, 1)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: WholePool})
	require.NoError(t, err)

	module := panickingModule{newFakeModule("m", objectsOnly(1))}
	err = (&Collector{}).Run(context.Background(), []Module{module}, blocks, NewResults(""))
	require.Error(t, err)
	assert.Equal(t, perferrors.ErrorTypeInternal, perferrors.GetType(err))
	assert.Contains(t, err.Error(), "index out of range")
}

type shortModule struct{ *fakeModule }

func (m shortModule) Do(layout Layout, block [][]float32) (Measurement, error) {
	out, err := m.fakeModule.Do(layout, block)
	out.Values = out.Values[:1]
	return out, err
}

func TestCollectorLengthMismatchIsFatal(t *testing.T) {
	pool := rampPool(t, 4, 1)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: WholePool})
	require.NoError(t, err)

	modules := []Module{
		newFakeModule("a", objectsOnly(1)),
		shortModule{newFakeModule("b", objectsOnly(1))},
	}
	err = (&Collector{Canon: NewCanonData(nil)}).Run(context.Background(), modules, blocks, NewResults(""))
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeVerification))
}

func TestCollectorUsesContextLogger(t *testing.T) {
	pool := rampPool(t, 4, 1)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: 2})
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	c := &Collector{Repetitions: 2}
	require.NoError(t, c.Run(ctx, []Module{newFakeModule("m", objectsOnly(1))}, blocks, NewResults("")))

	timed := logs.FilterMessage("layout timed").All()
	require.Len(t, timed, 2)
	assert.Equal(t, int64(1), timed[1].ContextMap()["repetition"])
}

func TestCollectorTracesRepetitions(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := observability.DefaultTracingConfig()
	cfg.Enabled = true
	require.NoError(t, observability.InitializeWithExporter(cfg, exporter))
	defer func() { _ = observability.Shutdown(context.Background()) }()

	pool := rampPool(t, 4, 1)
	blocks, err := BuildBlocks(pool, BlockOptions{BlockSize: 2})
	require.NoError(t, err)

	ctx, parent := observability.StartPhase(context.Background(), "timing")
	c := &Collector{Repetitions: 3, Logger: zaptest.NewLogger(t)}
	require.NoError(t, c.Run(ctx, []Module{newFakeModule("m", objectsOnly(1))}, blocks, NewResults("")))
	parent.End(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 4)
	for rep, span := range spans[:3] {
		assert.Equal(t, "modelperf.repetition", span.Name)
		assert.Contains(t, span.Attributes, attribute.Int("repetition", rep))
		assert.Equal(t, spans[3].SpanContext.SpanID(), span.Parent.SpanID())
	}
}
