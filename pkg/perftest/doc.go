// Package perftest compares interchangeable scoring modules on one pool.
//
// The pool is cut into fixed-size blocks, and every block is materialized in
// two memory layouts: objects first (each document's features contiguous,
// copied once) and features first (each feature's values contiguous, viewed
// in place). Every registered module that can be constructed for the model is
// then timed on every block in every layout it supports, for a number of
// repetitions. Outputs are cross-checked against the first output seen for
// each block, and a report of min/max/mean per module, relative to the
// highest-priority module, is printed and saved as JSON.
//
// # Usage
//
//	reg := perftest.NewRegistry(log)
//	if err := modules.RegisterAll(reg); err != nil {
//	    return err
//	}
//
//	h := &perftest.Harness{
//	    Registry: reg,
//	    Model:    m,
//	    Pool:     pool,
//	    Config:   perftest.HarnessConfig{BlockSize: 1024, Repetitions: 5, ResultsPath: "results.json"},
//	    Stdout:   os.Stdout,
//	}
//	err := perftest.RunIsolated(ctx, zapcore.DebugLevel, func(ctx context.Context) error {
//	    _, err := h.Run(ctx)
//	    return err
//	})
//
// Everything runs sequentially on one goroutine; modules are never timed
// concurrently.
package perftest
