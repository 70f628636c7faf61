// Package metrics exports benchmark timings as Prometheus metrics.
//
// Every timing sample is observed in a histogram labeled by result name and
// layout, so a run can be scraped by node_exporter's textfile collector or
// compared across hosts. Metrics live in a private registry created per run;
// nothing is registered globally.
//
// # Basic Usage
//
//	rec := metrics.NewRecorder()
//	rec.ObserveSample("naive", "objects_first", elapsed)
//	rec.IncMismatch()
//	if err := rec.WriteTextfile("modelperf.prom"); err != nil {
//	    return err
//	}
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "modelperf"

// Recorder owns the metrics of one benchmark run.
type Recorder struct {
	registry         *prometheus.Registry
	blockLatency     *prometheus.HistogramVec // Scoring time per block
	mismatches       prometheus.Counter       // Elements differing from canonical output
	constructFailed  *prometheus.CounterVec   // Modules that could not be built
	blocks           prometheus.Gauge         // Blocks per layout
	blockSize        prometheus.Gauge         // Documents per full block
	modulesAvailable prometheus.Gauge         // Modules that were built
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		blockLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "block_scoring_seconds",
				Help:      "Time a module spent scoring one block",
				Buckets: []float64{
					1e-6, // 1μs
					1e-5, // 10μs
					1e-4, // 100μs
					1e-3, // 1ms
					1e-2, // 10ms
					1e-1, // 100ms
					1,    // 1s
					10,   // 10s
				},
			},
			[]string{"name", "layout"},
		),
		mismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verification_mismatches_total",
			Help:      "Output elements that differ from the canonical output",
		}),
		constructFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "module_construction_failures_total",
			Help:      "Modules that could not be constructed for the model",
		}, []string{"module"}),
		blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "blocks",
			Help:      "Number of blocks the pool was cut into",
		}),
		blockSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_size_documents",
			Help:      "Documents per full block",
		}),
		modulesAvailable: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "modules_constructed",
			Help:      "Modules constructed for the model",
		}),
	}

	r.registry.MustRegister(
		r.blockLatency,
		r.mismatches,
		r.constructFailed,
		r.blocks,
		r.blockSize,
		r.modulesAvailable,
	)
	return r
}

// Registry returns the registry backing the recorder.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveSample records one block timing.
func (r *Recorder) ObserveSample(name, layout string, elapsed time.Duration) {
	r.blockLatency.WithLabelValues(name, layout).Observe(elapsed.Seconds())
}

// IncMismatch counts one mismatched output element.
func (r *Recorder) IncMismatch() {
	r.mismatches.Inc()
}

// ConstructionFailed counts a module that could not be built.
func (r *Recorder) ConstructionFailed(module string) {
	r.constructFailed.WithLabelValues(module).Inc()
}

// SetLayout records how the pool was partitioned.
func (r *Recorder) SetLayout(blocks, blockSize int) {
	r.blocks.Set(float64(blocks))
	r.blockSize.Set(float64(blockSize))
}

// SetModules records how many modules take part in the run.
func (r *Recorder) SetModules(n int) {
	r.modulesAvailable.Set(float64(n))
}

// WriteTextfile writes every metric in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the label the timer was created with.
func (t *Timer) Name() string {
	return t.name
}

// Stop returns the elapsed duration since creation. It can be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
