// Package errors provides the structured error type shared by the pipeline
// runner, the process boundary and the compare orchestrator. Each error
// carries a machine-readable code, a retryable flag and a CLI exit code.
package errors
