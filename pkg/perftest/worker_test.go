package perftest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/modelperf/pkg/logger"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

func TestRunIsolatedScopesVerbosity(t *testing.T) {
	require.NoError(t, logger.Init(logger.Config{Level: "warn", Encoding: "console", OutputPaths: []string{"stderr"}}))
	before := logger.Get()

	var inner bool
	err := RunIsolated(context.Background(), zapcore.DebugLevel, func(ctx context.Context) error {
		inner = logger.WithContext(ctx).Core().Enabled(zapcore.DebugLevel)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, inner)
	assert.Same(t, before, logger.Get())
	assert.False(t, logger.Get().Core().Enabled(zapcore.DebugLevel))
}

func TestRunIsolatedReturnsError(t *testing.T) {
	want := errors.New("bad pool")
	err := RunIsolated(context.Background(), zapcore.InfoLevel, func(context.Context) error {
		return want
	})
	assert.ErrorIs(t, err, want)
}

func TestRunIsolatedRecoversPanic(t *testing.T) {
	err := RunIsolated(context.Background(), zapcore.InfoLevel, func(context.Context) error {
		panic("module crashed")
	})
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeInternal))
	assert.Contains(t, err.Error(), "module crashed")
}
