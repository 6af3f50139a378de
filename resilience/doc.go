// Package resilience retries transient failures of external programs.
//
// Only launch failures are worth retrying: a generation or benchmark
// script that ran and exited non-zero is a result, not a transient error.
// Callers pick what is retryable through RetryConfig.RetryIf; the default
// honours the Retryable flag on AppError and never retries cancellation.
//
//	res, err := resilience.Retry(ctx, resilience.RetryConfig{
//	    MaxAttempts:    3,
//	    InitialBackoff: 200 * time.Millisecond,
//	}, func() (*process.Result, error) {
//	    return process.Run(ctx, cmd)
//	})
package resilience
