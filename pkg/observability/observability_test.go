package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDisabledTracingIsNoop(t *testing.T) {
	require.NoError(t, Initialize(DefaultTracingConfig()))

	_, span := StartPhase(context.Background(), "layout")
	span.SetAttribute("blocks", 3)
	span.End(nil)

	assert.False(t, span.span.SpanContext().IsValid())
	assert.NoError(t, Shutdown(context.Background()))
}

func TestPhaseSpansAreExported(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := DefaultTracingConfig()
	cfg.Enabled = true
	require.NoError(t, InitializeWithExporter(cfg, exporter))
	defer func() { _ = Shutdown(context.Background()) }()

	ctx, parent := StartPhase(context.Background(), "run")
	_, child := StartPhase(ctx, "timing")
	child.SetAttribute("repetitions", 2)
	child.SetAttribute("merge_layouts", false)
	child.End(nil)
	parent.End(errors.New("boom"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	timing := spans[0]
	assert.Equal(t, "modelperf.timing", timing.Name)
	assert.Equal(t, codes.Ok, timing.Status.Code)
	assert.Contains(t, timing.Attributes, attribute.Int("repetitions", 2))
	assert.Contains(t, timing.Attributes, attribute.Bool("merge_layouts", false))
	assert.Equal(t, spans[1].SpanContext.SpanID(), timing.Parent.SpanID())

	run := spans[1]
	assert.Equal(t, "modelperf.run", run.Name)
	assert.Equal(t, codes.Error, run.Status.Code)
	assert.Equal(t, "boom", run.Status.Description)
}

func TestStringerAttribute(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	cfg := DefaultTracingConfig()
	require.NoError(t, InitializeWithExporter(cfg, exporter))
	defer func() { _ = Shutdown(context.Background()) }()

	_, span := StartPhase(context.Background(), "layout")
	span.SetAttribute("layout", stringer("features_first"))
	span.SetAttribute("other", []int{1})
	span.End(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Contains(t, spans[0].Attributes, attribute.String("layout", "features_first"))
	assert.Contains(t, spans[0].Attributes, attribute.String("other", "[1]"))
}

type stringer string

func (s stringer) String() string { return string(s) }
