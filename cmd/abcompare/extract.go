package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/metrics"
)

type extractOptions struct {
	benchmark string
	vision    string
	sample    string
}

func newExtractCmd(root *rootOptions) *cobra.Command {
	opts := &extractOptions{}
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract metrics from benchmark and vision QA output",
		Long: `Reads a benchmark JSON file and optionally a vision QA report, computes the
vision verdict with the configured thresholds and prints the merged metrics.
Prints null when neither file carries a metric.`,
		Example: `  abcompare extract --benchmark out/a-benchmark.json --vision out/a-vision.json --sample walk-01`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExtract(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.benchmark, "benchmark", "", "Benchmark JSON file")
	cmd.Flags().StringVar(&opts.vision, "vision", "", "Vision QA JSON file")
	cmd.Flags().StringVarP(&opts.sample, "sample", "s", "", "Sample id used to select the vision QA entry")
	return cmd
}

func runExtract(cmd *cobra.Command, root *rootOptions, opts *extractOptions) error {
	if opts.benchmark == "" && opts.vision == "" {
		return errors.InvalidInput("extract", "--benchmark or --vision is required")
	}
	cfg, err := loadConfig(root.configFile, root.envFile)
	if err != nil {
		return errors.InvalidInput("config", err.Error())
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return errors.InvalidInput("thresholds", err.Error())
	}

	var bench, vision *metrics.Metrics
	if opts.benchmark != "" {
		data, err := readInput(opts.benchmark)
		if err != nil {
			return err
		}
		if bench, err = metrics.ParseBenchmark(data); err != nil {
			return errors.InvalidInput("benchmark", err.Error())
		}
	}
	if opts.vision != "" {
		data, err := readInput(opts.vision)
		if err != nil {
			return err
		}
		if vision, err = metrics.ParseVision(data, opts.sample, cfg.Thresholds); err != nil {
			return errors.InvalidInput("vision", err.Error())
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(metrics.Merge(bench, vision))
}

func readInput(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.NotFound("file", path)
	}
	return data, err
}
