package process

import (
	"context"
	"time"

	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/resilience"
)

// Executor runs a command. Runner is the production implementation; tests
// substitute ExecutorFunc.
type Executor interface {
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, cmd Command) (*Result, error)

// Run calls f.
func (f ExecutorFunc) Run(ctx context.Context, cmd Command) (*Result, error) {
	return f(ctx, cmd)
}

// Config configures a Runner.
type Config struct {
	// Timeout bounds every run. Zero means no limit beyond the caller's context.
	Timeout time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
	// GracePeriod is the default grace period for SIGTERM→SIGKILL.
	GracePeriod time.Duration `yaml:"grace_period,omitempty" mapstructure:"grace_period"`
	// Retry governs relaunching after EXTERNAL_SERVICE_ERROR, which only a
	// failed launch produces. Programs that started are never relaunched.
	Retry resilience.RetryConfig `yaml:"retry,omitempty" mapstructure:"retry"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.GracePeriod == 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry.MaxAttempts = 1
	}
}

// Runner applies Config defaults, timeouts and launch retries to Run.
type Runner struct {
	config Config
	log    *logger.Logger
}

var _ Executor = (*Runner)(nil)

// NewRunner creates a Runner. A nil logger falls back to the global logger.
func NewRunner(cfg Config, log *logger.Logger) *Runner {
	cfg.ApplyDefaults()
	if cfg.Retry.RetryIf == nil {
		cfg.Retry.RetryIf = resilience.RetryOnCodes(errors.ErrCodeExternalService)
	}
	return &Runner{config: cfg, log: logger.OrGlobal(log).WithComponent("process")}
}

// Run executes cmd through the retry policy.
func (r *Runner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if cmd.GracePeriod == 0 {
		cmd.GracePeriod = r.config.GracePeriod
	}
	if r.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.config.Timeout)
		defer cancel()
	}

	retry := r.config.Retry
	retry.OnRetry = func(attempt int, err error, backoff time.Duration) {
		r.log.Warn("relaunching command", logger.MergeWithError(logger.Fields(
			logger.FieldOperation, cmd.Binary,
			"attempt", attempt,
			"backoff_ms", backoff.Milliseconds(),
		), err))
	}

	r.log.Debug("running command", logger.Fields(logger.FieldOperation, cmd.String()))
	res, err := resilience.Retry(ctx, retry, func() (*Result, error) {
		return Run(ctx, cmd)
	})
	if err != nil {
		r.log.Debug("command did not complete", logger.MergeWithError(logger.Fields(logger.FieldOperation, cmd.Binary), err))
		return res, err
	}
	r.log.Debug("command finished", logger.MergeWithDuration(logger.Fields(
		logger.FieldOperation, cmd.Binary,
		logger.FieldExitCode, res.ExitCode,
	), res.Duration))
	return res, nil
}
