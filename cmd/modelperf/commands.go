package main

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/modelperf/pkg/config"
	"github.com/ajitpratap0/modelperf/pkg/model"
	"github.com/ajitpratap0/modelperf/pkg/perftest"
	"github.com/ajitpratap0/modelperf/pkg/perftest/modules"
)

var version = "0.1.0"

func newRootCmd(stdout io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "modelperf",
		Short: "modelperf - scoring module benchmark for oblivious tree models",
		Long: `modelperf times every registered scoring module on one pool, in both
objects-first and features-first block layouts, cross-checks their outputs and
reports min/max/mean times relative to the highest-priority module.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)

	root.AddCommand(newVersionCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newRunCmd())
	root.AddCommand(newConfigCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "modelperf v%s\n", version)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

func newListCmd() *cobra.Command {
	var modelPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List registered scoring modules",
		Long: `List registered scoring modules. With --model-path every module is
constructed for the model and its layouts, result names and priorities are shown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := perftest.NewRegistry(nil)
			if err := modules.RegisterAll(reg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if modelPath == "" {
				for _, key := range reg.Keys() {
					fmt.Fprintf(out, "  - %s\n", key)
				}
				return nil
			}

			m, err := model.Load(modelPath)
			if err != nil {
				return err
			}
			set := reg.ConstructAll(m, nil)

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tLAYOUT\tNAME\tPRIORITY\tBASELINE")
			for _, cm := range set.Modules {
				for _, layout := range perftest.Layouts {
					if !cm.Module.SupportsLayout(layout) {
						continue
					}
					baseline := ""
					if cm.Key == set.BaselineKey && layout == set.BaselineLayout {
						baseline = "*"
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
						cm.Key, layout, cm.Module.Name(layout), cm.Module.ComparisonPriority(layout), baseline)
				}
			}
			for _, key := range reg.Keys() {
				if err, failed := set.Failed[key]; failed {
					fmt.Fprintf(w, "%s\t-\t-\t-\tunavailable: %v\n", key, err)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&modelPath, "model-path", "m", "", "Path to the model JSON file")
	return cmd
}

func newConfigCmd() *cobra.Command {
	var configFile, writePath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration a run would use after merging defaults, the
config file and MODELPERF_* environment variables, as YAML.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(nil, configFile)
			if err != nil {
				return err
			}
			cfg, err := config.Resolve(v)
			if err != nil {
				return err
			}

			if writePath != "" {
				return config.Save(writePath, cfg)
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	cmd.Flags().StringVar(&writePath, "write", "", "Write the configuration to this path instead of printing it")
	return cmd
}

func newRunCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the benchmark",
		Long: `Run every registered scoring module over the pool and print a comparison.

Example:
  modelperf run -f test.tsv --cd pool.cd -m model.json --block-size 1024 --repetitions 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(cmd.Flags(), configFile)
			if err != nil {
				return err
			}
			cfg, err := config.Resolve(v)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBenchmark(cmd.Context(), cfg, cmd.OutOrStdout(), os.Stderr)
		},
	}

	def := config.DefaultRunConfig()
	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "Path to a YAML config file")
	flags.StringP("pool-path", "f", "", "Path to the pool (tab-separated or Arrow IPC, optionally compressed) (required)")
	flags.String("cd", "", "Path to the column description file (required)")
	flags.StringP("model-path", "m", "", "Path to the model JSON file (required)")
	flags.Bool("has-header", def.Input.PoolHasHeader, "The pool's first line is a header")
	flags.Int("block-size", def.Layout.BlockSize, "Documents per block; -1 uses the whole pool as one block")
	flags.Bool("include-partial-block", def.Layout.IncludePartialBlock, "Time the trailing documents that do not fill a whole block")
	flags.Int("repetitions", def.Timing.Repetitions, "Passes over every module and block")
	flags.Bool("merge-layouts", def.Timing.MergeLayouts, "Record features-first samples under the objects-first name")
	flags.String("results", def.Output.ResultsPath, "Path of the JSON results file")
	flags.String("metrics", def.Output.MetricsPath, "Write Prometheus metrics in text format to this path")
	flags.String("cpu-profile", def.Output.CPUProfilePath, "Write a CPU profile of the timing phase to this path")
	flags.Bool("trace", def.Output.Trace, "Print phase spans to stderr")
	flags.String("log-level", def.Logging.Level, "Log level (debug, info, warn, error)")
	flags.String("log-encoding", def.Logging.Encoding, "Log encoding (console, json)")
	return cmd
}
