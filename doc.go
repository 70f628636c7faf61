// Package modelperf is a micro-benchmark harness for tree-ensemble scoring
// modules.
//
// modelperf loads a pool of documents and an oblivious-tree model, builds
// every registered scoring module for that model, and times each one on the
// same blocks of documents in both memory layouts. Outputs are cross-checked
// so a faster module that scores differently is caught, and the timings are
// summarized relative to a reference module.
//
// # Architecture
//
// The harness is split into small packages under pkg/:
//
//   - perftest: layout builder, module registry, timing collector,
//     canonical verifier and report aggregator
//   - perftest/modules: the built-in scoring modules (naive, binarized,
//     vectorized)
//   - dataset: pool storage plus DSV and Arrow IPC loaders
//   - model: JSON oblivious-tree model and reference evaluation
//   - compression: transparent gzip, zstd, s2 and lz4 input streams
//   - config: layered configuration (defaults, YAML, MODELPERF_* env, flags)
//   - logger, perferrors, metrics, observability, performance: logging,
//     typed errors, Prometheus export, phase tracing, host snapshot
//
// # Quick Start
//
//	modelperf run -f pool.tsv --cd pool.cd -m model.json --block-size 1024 --repetitions 5
//
// The report is printed as a tab-separated table and saved to results.json:
//
//	name	value	diff
//	naive
//	min	0.0123	1
//	max	0.0161	1
//	mean	0.0134	1
//	vectorized_transposed
//	min	0.0031	0.252
//	...
//
// Other commands:
//
//	modelperf list -m model.json     # modules, layouts and the baseline
//	modelperf config --write run.yaml
//	modelperf version
//
// # Configuration
//
// Every run flag has a YAML key and an environment variable:
//
//	input:
//	  pool_path: pool.tsv        # MODELPERF_INPUT_POOL_PATH
//	  cd_path: pool.cd
//	  model_path: model.json
//	layout:
//	  block_size: 1024         # -1 for the whole pool; 0 is rejected
//	  include_partial_block: false
//	timing:
//	  repetitions: 5
//	  merge_layouts: false
//	output:
//	  results_path: results.json
//	  metrics_path: ""
//	  cpu_profile_path: ""
//	  trace: false
//
// Environment variables are supported in YAML values with ${VAR_NAME} syntax.
package modelperf
