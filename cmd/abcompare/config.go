package main

import (
	"fmt"
	"time"

	"github.com/kbukum/abcompare/compare"
	"github.com/kbukum/abcompare/config"
	"github.com/kbukum/abcompare/metrics"
	"github.com/kbukum/abcompare/observability"
	"github.com/kbukum/abcompare/process"
	"github.com/kbukum/abcompare/storage"
	"github.com/kbukum/abcompare/target"
	"github.com/kbukum/abcompare/validation"
)

const serviceName = "abcompare"

// AppConfig is the abcompare configuration file layout.
type AppConfig struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Scripts       ScriptsConfig        `yaml:"scripts" mapstructure:"scripts"`
	Process       process.Config       `yaml:"process" mapstructure:"process"`
	Runner        RunnerConfig         `yaml:"runner" mapstructure:"runner"`
	Thresholds    metrics.Thresholds   `yaml:"thresholds" mapstructure:"thresholds"`
	Compare       CompareConfig        `yaml:"compare" mapstructure:"compare"`
	Archive       storage.Config       `yaml:"archive" mapstructure:"archive"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Targets       TargetsConfig        `yaml:"targets" mapstructure:"targets"`
}

// ScriptsConfig names the external programs a target pipeline runs.
type ScriptsConfig struct {
	Generator target.Program `yaml:"generator" mapstructure:"generator"`
	Benchmark target.Program `yaml:"benchmark" mapstructure:"benchmark"`
	Vision    target.Program `yaml:"vision" mapstructure:"vision"`
}

// RunnerConfig tunes the step runner.
type RunnerConfig struct {
	MaxParallel     int           `yaml:"max_parallel" mapstructure:"max_parallel"`
	StepTimeout     time.Duration `yaml:"step_timeout" mapstructure:"step_timeout"`
	GenerateTimeout time.Duration `yaml:"generate_timeout" mapstructure:"generate_timeout"`
	AnalyzeTimeout  time.Duration `yaml:"analyze_timeout" mapstructure:"analyze_timeout"`
}

// CompareConfig holds orchestrator options.
type CompareConfig struct {
	OutputDir  string `yaml:"output_dir" mapstructure:"output_dir"`
	Concurrent bool   `yaml:"concurrent" mapstructure:"concurrent"`
}

// TargetsConfig holds the default A and B targets.
type TargetsConfig struct {
	A target.Target `yaml:"a" mapstructure:"a"`
	B target.Target `yaml:"b" mapstructure:"b"`
}

// ApplyDefaults fills zero values.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.Process.ApplyDefaults()
	c.Thresholds.ApplyDefaults()
	if c.Runner.MaxParallel <= 0 {
		c.Runner.MaxParallel = 1
	}
	if c.Compare.OutputDir == "" {
		c.Compare.OutputDir = compare.DefaultOutputDir
	}
	if c.Targets.A.ID == "" {
		c.Targets.A.ID = "a"
	}
	if c.Targets.B.ID == "" {
		c.Targets.B.ID = "b"
	}
	if c.Archive.Enabled {
		c.Archive.ApplyDefaults()
	}
}

// Validate checks the loaded configuration. Targets are validated per run
// by the orchestrator.
func (c *AppConfig) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("config.thresholds: %w", err)
	}
	if err := validation.New().
		Min("runner.max_parallel", float64(c.Runner.MaxParallel), 1).
		Custom(c.Runner.StepTimeout >= 0, "runner.step_timeout", "must not be negative").
		Custom(c.Runner.GenerateTimeout >= 0, "runner.generate_timeout", "must not be negative").
		Custom(c.Runner.AnalyzeTimeout >= 0, "runner.analyze_timeout", "must not be negative").
		Custom(c.Targets.A.ID != c.Targets.B.ID, "targets.b.id", "must differ from targets.a.id").
		Validate(); err != nil {
		return err
	}
	if c.Archive.Enabled {
		if err := c.Archive.Validate(); err != nil {
			return fmt.Errorf("config.archive: %w", err)
		}
	}
	return nil
}

// loadConfig reads configuration for the CLI. A missing config file is not
// an error: every setting has a default or a flag.
func loadConfig(path, envFile string) (*AppConfig, error) {
	var opts []config.LoaderOption
	if path != "" {
		opts = append(opts, config.WithConfigFile(path))
	}
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg := &AppConfig{Thresholds: metrics.DefaultThresholds()}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}
