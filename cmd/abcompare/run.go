package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/abcompare/compare"
	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/target"
)

type targetFlags struct {
	label    string
	config   string
	profile  string
	temporal string
	strength float64
}

// bind registers the flags for one side, e.g. --a-config.
func (f *targetFlags) bind(fs *pflag.FlagSet, side string) {
	fs.StringVar(&f.label, side+"-label", "", "Display label of target "+side)
	fs.StringVar(&f.config, side+"-config", "", "Pipeline config id of target "+side)
	fs.StringVar(&f.profile, side+"-profile", "", "Stability profile of target "+side)
	fs.StringVar(&f.temporal, side+"-temporal", "", "Temporal regularization mode of target "+side)
	fs.Float64Var(&f.strength, side+"-strength", 0, "Temporal regularization strength of target "+side+" (0..1)")
}

func (f *targetFlags) apply(fs *pflag.FlagSet, side string, t *target.Target) {
	if f.label != "" {
		t.Label = f.label
	}
	if f.config != "" {
		t.PipelineConfigID = f.config
	}
	if f.profile != "" {
		t.StabilityProfile = f.profile
	}
	if f.temporal != "" {
		t.TemporalMode = f.temporal
	}
	if fs.Changed(side + "-strength") {
		s := f.strength
		t.TemporalStrength = &s
	}
}

type runOptions struct {
	sample     string
	output     string
	concurrent bool
	a, b       targetFlags
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Compare targets A and B on one sample",
		Long: `Runs the generate and benchmark pipeline for targets A and B on the same
sample, writes comparison-result.json under the output directory and prints
the result. The exit status is 0 only when both targets succeed.`,
		Example: `  abcompare run --sample walk-01 --a-config baseline --b-config temporal-v2
  abcompare run --config abcompare.yaml --sample walk-01 --concurrent`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCompare(cmd, root, opts)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.sample, "sample", "s", "", "Sample id to generate (required)")
	fs.StringVarP(&opts.output, "output", "o", "", "Parent directory for comparison output")
	fs.BoolVar(&opts.concurrent, "concurrent", false, "Run both targets at the same time")
	opts.a.bind(fs, "a")
	opts.b.bind(fs, "b")
	return cmd
}

func runCompare(cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	if opts.sample == "" {
		return errors.InvalidInput("sample", "--sample is required")
	}
	ctx := cmd.Context()
	a, err := newApp(ctx, root)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	ta, tb := cfg.Targets.A, cfg.Targets.B
	opts.a.apply(cmd.Flags(), "a", &ta)
	opts.b.apply(cmd.Flags(), "b", &tb)

	outputDir := cfg.Compare.OutputDir
	if opts.output != "" {
		outputDir = opts.output
	}

	orch := &compare.Orchestrator{
		Builder: &target.Builder{
			Exec:            a.exec,
			Generator:       cfg.Scripts.Generator,
			Benchmark:       cfg.Scripts.Benchmark,
			Vision:          cfg.Scripts.Vision,
			GenerateTimeout: cfg.Runner.GenerateTimeout,
			AnalyzeTimeout:  cfg.Runner.AnalyzeTimeout,
			Logger:          logger.WithComponent("target"),
		},
		Runner:     a.runner(),
		Thresholds: cfg.Thresholds,
		Archive:    a.archive(ctx),
		Metrics:    a.metrics,
		Tracing:    cfg.Observability.Tracing.Enabled(),
		Logger:     logger.WithComponent("compare"),
	}

	res := orch.Run(ctx, ta, tb, opts.sample, compare.Options{
		OutputDir:  outputDir,
		Verbose:    root.verbose,
		Concurrent: opts.concurrent || cfg.Compare.Concurrent,
	})

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if res.Status != compare.StatusSucceeded {
		return &exitError{code: 1}
	}
	return nil
}
