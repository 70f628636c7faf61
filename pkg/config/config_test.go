package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

func validConfig() *RunConfig {
	cfg := DefaultRunConfig()
	cfg.Input.PoolPath = "pool.tsv"
	cfg.Input.CdPath = "pool.cd"
	cfg.Input.ModelPath = "model.json"
	return cfg
}

func TestDefaultRunConfig(t *testing.T) {
	cfg := DefaultRunConfig()

	assert.Equal(t, WholePoolBlockSize, cfg.Layout.BlockSize)
	assert.Equal(t, 1, cfg.Timing.Repetitions)
	assert.Equal(t, DefaultResultsPath, cfg.Output.ResultsPath)
	assert.False(t, cfg.Timing.MergeLayouts)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
		errMsg string
	}{
		{"valid", func(*RunConfig) {}, ""},
		{"missing pool", func(c *RunConfig) { c.Input.PoolPath = "" }, "pool path is required"},
		{"missing cd", func(c *RunConfig) { c.Input.CdPath = "" }, "column description path is required"},
		{"missing model", func(c *RunConfig) { c.Input.ModelPath = "" }, "model path is required"},
		{"whole pool block", func(c *RunConfig) { c.Layout.BlockSize = WholePoolBlockSize }, ""},
		{"zero block", func(c *RunConfig) { c.Layout.BlockSize = 0 }, "block_size must be positive"},
		{"negative block", func(c *RunConfig) { c.Layout.BlockSize = -2 }, "block_size cannot be negative"},
		{"zero repetitions", func(c *RunConfig) { c.Timing.Repetitions = 0 }, "repetitions must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
			assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeConfig))
		})
	}
}

func TestViperSubstitutesEnvironment(t *testing.T) {
	t.Setenv("MODELPERF_TEST_POOL", "/data/pool.tsv")
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input:\n  pool_path: ${MODELPERF_TEST_POOL}\nlayout:\n  block_size: 128\n"), 0o600))

	v, err := NewViper(nil, path)
	require.NoError(t, err)
	cfg, err := Resolve(v)
	require.NoError(t, err)

	assert.Equal(t, "/data/pool.tsv", cfg.Input.PoolPath)
	assert.Equal(t, 128, cfg.Layout.BlockSize)
	assert.Equal(t, 1, cfg.Timing.Repetitions)
}

func TestSaveReload(t *testing.T) {
	cfg := validConfig()
	cfg.Layout.BlockSize = 256
	cfg.Timing.MergeLayouts = true
	cfg.Output.MetricsPath = "metrics.prom"

	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(path, cfg))

	v, err := NewViper(nil, path)
	require.NoError(t, err)
	reloaded, err := Resolve(v)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestViperExplicitZeroBlockSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout:\n  block_size: 0\n"), 0o600))

	v, err := NewViper(nil, path)
	require.NoError(t, err)
	cfg, err := Resolve(v)
	require.NoError(t, err)
	cfg.Input = validConfig().Input

	err = cfg.Validate()
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeConfig))
}

func TestViperMalformedConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout: [\n"), 0o600))

	_, err := NewViper(nil, path)
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeConfig))
}

func TestViperPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("layout:\n  block_size: 64\ntiming:\n  repetitions: 3\n"), 0o600))
	t.Setenv("MODELPERF_TIMING_REPETITIONS", "5")

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.StringP("pool-path", "f", "", "")
	flags.Int("block-size", WholePoolBlockSize, "")
	require.NoError(t, flags.Parse([]string{"-f", "pool.tsv"}))

	v, err := NewViper(flags, path)
	require.NoError(t, err)
	cfg, err := Resolve(v)
	require.NoError(t, err)

	assert.Equal(t, "pool.tsv", cfg.Input.PoolPath)
	assert.Equal(t, 64, cfg.Layout.BlockSize)
	assert.Equal(t, 5, cfg.Timing.Repetitions)
	assert.Equal(t, DefaultResultsPath, cfg.Output.ResultsPath)
}

func TestViperMissingConfigFile(t *testing.T) {
	_, err := NewViper(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, perferrors.IsType(err, perferrors.ErrorTypeConfig))
}
