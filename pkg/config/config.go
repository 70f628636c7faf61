// Package config defines the run configuration of the model performance
// harness and the layered loading of it.
//
// Precedence, lowest to highest:
//   - DefaultRunConfig
//   - an optional YAML file (--config)
//   - MODELPERF_* environment variables (MODELPERF_LAYOUT_BLOCK_SIZE=4096)
//   - command-line flags
//
// Example:
//
//	cfg := config.DefaultRunConfig()
//	cfg.Input.PoolPath = "test.tsv"
//	cfg.Input.CdPath = "pool.cd"
//	cfg.Input.ModelPath = "model.json"
//
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
package config

import (
	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

const (
	// DefaultResultsPath is where the JSON report is written unless overridden.
	DefaultResultsPath = "results.json"

	// WholePoolBlockSize puts the whole pool in one block.
	WholePoolBlockSize = -1
)

// RunConfig is the complete configuration of one benchmark run.
type RunConfig struct {
	// Input locates the pool, its column description and the model
	Input InputConfig `yaml:"input" json:"input" mapstructure:"input"`

	// Layout controls block partitioning
	Layout LayoutConfig `yaml:"layout" json:"layout" mapstructure:"layout"`

	// Timing controls the measurement loop
	Timing TimingConfig `yaml:"timing" json:"timing" mapstructure:"timing"`

	// Output locates the report and optional artifacts
	Output OutputConfig `yaml:"output" json:"output" mapstructure:"output"`

	// Logging configures the process logger
	Logging LoggingConfig `yaml:"logging" json:"logging" mapstructure:"logging"`
}

// InputConfig points at the external inputs. All three are required.
type InputConfig struct {
	PoolPath  string `yaml:"pool_path" json:"pool_path" mapstructure:"pool_path"`
	CdPath    string `yaml:"cd_path" json:"cd_path" mapstructure:"cd_path"`
	ModelPath string `yaml:"model_path" json:"model_path" mapstructure:"model_path"`
	// PoolHasHeader skips the first line of a DSV pool
	PoolHasHeader bool `yaml:"pool_has_header" json:"pool_has_header" mapstructure:"pool_has_header"`
}

// LayoutConfig controls how the pool is cut into blocks.
type LayoutConfig struct {
	// BlockSize is the number of documents per block; -1 means the whole pool
	BlockSize int `yaml:"block_size" json:"block_size" mapstructure:"block_size"`
	// IncludePartialBlock keeps the trailing docCount%BlockSize documents as a short block
	IncludePartialBlock bool `yaml:"include_partial_block" json:"include_partial_block" mapstructure:"include_partial_block"`
}

// TimingConfig controls the measurement loop.
type TimingConfig struct {
	// Repetitions is the number of passes over all modules and blocks
	Repetitions int `yaml:"repetitions" json:"repetitions" mapstructure:"repetitions"`
	// MergeLayouts records feature-major samples under the object-major name
	MergeLayouts bool `yaml:"merge_layouts" json:"merge_layouts" mapstructure:"merge_layouts"`
}

// OutputConfig locates the report and optional artifacts.
type OutputConfig struct {
	ResultsPath string `yaml:"results_path" json:"results_path" mapstructure:"results_path"`
	// MetricsPath, when set, receives a Prometheus textfile with every timing sample
	MetricsPath string `yaml:"metrics_path" json:"metrics_path" mapstructure:"metrics_path"`
	// CPUProfilePath, when set, receives a pprof CPU profile of the timing phase
	CPUProfilePath string `yaml:"cpu_profile_path" json:"cpu_profile_path" mapstructure:"cpu_profile_path"`
	// Trace prints phase spans to stderr
	Trace bool `yaml:"trace" json:"trace" mapstructure:"trace"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	Level    string `yaml:"level" json:"level" mapstructure:"level"`
	Encoding string `yaml:"encoding" json:"encoding" mapstructure:"encoding"`
}

// DefaultRunConfig returns the configuration used when nothing is overridden.
func DefaultRunConfig() *RunConfig {
	return &RunConfig{
		Layout: LayoutConfig{
			BlockSize: WholePoolBlockSize,
		},
		Timing: TimingConfig{
			Repetitions: 1,
		},
		Output: OutputConfig{
			ResultsPath: DefaultResultsPath,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Validate checks required inputs and value ranges. All failures are
// configuration errors.
func (c *RunConfig) Validate() error {
	if c.Input.PoolPath == "" {
		return perferrors.New(perferrors.ErrorTypeConfig, "pool path is required")
	}
	if c.Input.CdPath == "" {
		return perferrors.New(perferrors.ErrorTypeConfig, "column description path is required")
	}
	if c.Input.ModelPath == "" {
		return perferrors.New(perferrors.ErrorTypeConfig, "model path is required")
	}
	if c.Layout.BlockSize == 0 {
		return perferrors.New(perferrors.ErrorTypeConfig, "block_size must be positive").
			WithDetail("block_size", c.Layout.BlockSize)
	}
	if c.Layout.BlockSize < WholePoolBlockSize {
		return perferrors.New(perferrors.ErrorTypeConfig, "block_size cannot be negative other than -1 for the whole pool").
			WithDetail("block_size", c.Layout.BlockSize)
	}
	if c.Timing.Repetitions < 1 {
		return perferrors.New(perferrors.ErrorTypeConfig, "repetitions must be positive").
			WithDetail("repetitions", c.Timing.Repetitions)
	}
	if c.Output.ResultsPath == "" {
		return perferrors.New(perferrors.ErrorTypeConfig, "results path is required")
	}
	return nil
}
