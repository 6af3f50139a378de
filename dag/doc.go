// Package dag runs pipelines of named steps in dependency order.
//
// A Definition lists Steps; each Step names the steps it depends on and an
// Action that receives a read-only snapshot of the pipeline context and
// returns a StepResult. The Runner validates the dependency graph (no cycles,
// no unknown or duplicate ids), executes steps in a deterministic
// topological order and merges each successful step's ContextUpdates into the
// shared context. A failed step never aborts unrelated branches; every step
// that depends on it, directly or transitively, is skipped.
//
// With MaxParallel > 1 independent steps run concurrently. Context merges
// still happen on the coordinating goroutine after a step returns, so a
// step never observes a sibling's writes mid-flight.
//
// Definitions can also be declared in YAML (see Manifest) and resolved
// against a Registry of named action factories.
package dag
