package config

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/ajitpratap0/modelperf/pkg/perferrors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MODELPERF"

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"pool-path":             "input.pool_path",
	"cd":                    "input.cd_path",
	"model-path":            "input.model_path",
	"has-header":            "input.pool_has_header",
	"block-size":            "layout.block_size",
	"include-partial-block": "layout.include_partial_block",
	"repetitions":           "timing.repetitions",
	"merge-layouts":         "timing.merge_layouts",
	"results":               "output.results_path",
	"metrics":               "output.metrics_path",
	"cpu-profile":           "output.cpu_profile_path",
	"trace":                 "output.trace",
	"log-level":             "logging.level",
	"log-encoding":          "logging.encoding",
}

// NewViper builds a viper instance layered as defaults < file < env < flags.
// configFile may be empty. Flags missing from the set are ignored.
func NewViper(flags *pflag.FlagSet, configFile string) (*viper.Viper, error) {
	v := viper.New()

	def := DefaultRunConfig()
	v.SetDefault("input.pool_path", def.Input.PoolPath)
	v.SetDefault("input.cd_path", def.Input.CdPath)
	v.SetDefault("input.model_path", def.Input.ModelPath)
	v.SetDefault("input.pool_has_header", def.Input.PoolHasHeader)
	v.SetDefault("layout.block_size", def.Layout.BlockSize)
	v.SetDefault("layout.include_partial_block", def.Layout.IncludePartialBlock)
	v.SetDefault("timing.repetitions", def.Timing.Repetitions)
	v.SetDefault("timing.merge_layouts", def.Timing.MergeLayouts)
	v.SetDefault("output.results_path", def.Output.ResultsPath)
	v.SetDefault("output.metrics_path", def.Output.MetricsPath)
	v.SetDefault("output.cpu_profile_path", def.Output.CPUProfilePath)
	v.SetDefault("output.trace", def.Output.Trace)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.encoding", def.Logging.Encoding)

	if configFile != "" {
		data, err := readFile(configFile)
		if err != nil {
			return nil, perferrors.Wrap(err, perferrors.ErrorTypeConfig, "failed to read config file").
				WithDetail("path", configFile)
		}
		v.SetConfigType(configType(configFile))
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, perferrors.Wrap(err, perferrors.ErrorTypeConfig, "failed to parse config file").
				WithDetail("path", configFile)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range FlagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, perferrors.Wrap(err, perferrors.ErrorTypeConfig, "failed to bind flag").
						WithDetail("flag", name)
				}
			}
		}
	}

	return v, nil
}

// Resolve decodes the merged view into a RunConfig. It does not validate.
func Resolve(v *viper.Viper) (*RunConfig, error) {
	cfg := DefaultRunConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, perferrors.Wrap(err, perferrors.ErrorTypeConfig, "failed to decode configuration")
	}
	return cfg, nil
}

// configType maps a config file extension to a viper format, defaulting to YAML.
func configType(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "json", "toml":
		return ext
	default:
		return "yaml"
	}
}
