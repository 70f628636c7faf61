package perftest

import (
	"context"
	"runtime/debug"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ajitpratap0/modelperf/pkg/logger"
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// RunIsolated runs fn on a dedicated goroutine with a logger at level carried
// on its context, and waits for it. The override never reaches the caller's
// logger and is released when fn returns. A panic in fn is returned as an
// internal error.
func RunIsolated(ctx context.Context, level zapcore.Level, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)

	go func() {
		workerCtx, release := logger.WithVerbosity(ctx, level)
		defer release()

		defer func() {
			if rec := recover(); rec != nil {
				logger.WithContext(workerCtx).Error("benchmark worker panicked",
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()))
				done <- perferrors.Newf(perferrors.ErrorTypeInternal, "benchmark panicked: %v", rec)
			}
		}()

		done <- fn(workerCtx)
	}()

	return <-done
}
