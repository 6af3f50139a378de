// Package process runs external programs and classifies how they failed.
//
// A program that launched and exited, whatever its exit code, is reported
// through Result with a nil error. Errors are reserved for programs that
// could not be run to completion:
//
//   - TOOL_UNAVAILABLE when the executable cannot be resolved
//   - TIMEOUT when the context deadline expired first
//   - EXTERNAL_SERVICE_ERROR for any other launch failure
//
// Runs are placed in their own process group. On cancellation the group
// receives SIGTERM, and SIGKILL once the grace period has passed.
package process
