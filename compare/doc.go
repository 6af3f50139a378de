// Package compare runs two targets through their pipelines and reports an
// A/B comparison.
//
// The Orchestrator builds each target's pipeline, runs it, extracts metrics
// from the files it produced and persists the full Result as
// comparison-result.json in a fresh, timestamp-named directory. A failure or
// crash in one target never prevents the other from running, and Run always
// returns a Result: its Status and each summary's ErrorMessage describe what
// happened.
package compare
