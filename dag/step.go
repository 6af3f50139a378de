package dag

import (
	"context"
	"fmt"
	"time"
)

// Status is the terminal state of a step or pipeline.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Action performs a step's work. vars is a snapshot the action may read
// freely; writes go through StepResult.ContextUpdates.
type Action func(ctx context.Context, vars Vars) StepResult

// Step is a named unit of work with prerequisites.
type Step struct {
	ID          string
	Description string
	DependsOn   []string
	// Timeout bounds the action. Zero uses the runner default.
	Timeout time.Duration
	Action  Action
}

// StepResult is the outcome of one step.
type StepResult struct {
	Status Status `json:"status"`
	// ErrorMessage is set only when Status is not succeeded.
	ErrorMessage string `json:"errorMessage,omitempty"`
	// ContextUpdates are merged into the shared context on success only.
	ContextUpdates Vars          `json:"contextUpdates,omitempty"`
	Duration       time.Duration `json:"-"`
	DurationMs     int64         `json:"durationMs"`
}

// Succeeded returns a successful result publishing updates.
func Succeeded(updates Vars) StepResult {
	return StepResult{Status: StatusSucceeded, ContextUpdates: updates}
}

// Failed returns a failed result with a formatted message.
func Failed(format string, args ...any) StepResult {
	return StepResult{Status: StatusFailed, ErrorMessage: fmt.Sprintf(format, args...)}
}

// FailedErr returns a failed result carrying err's message.
func FailedErr(err error) StepResult {
	return StepResult{Status: StatusFailed, ErrorMessage: err.Error()}
}

// Skipped returns a skipped result with a reason.
func Skipped(format string, args ...any) StepResult {
	return StepResult{Status: StatusSkipped, ErrorMessage: fmt.Sprintf(format, args...)}
}

// Definition is one runnable pipeline. Declaration order of Steps only
// breaks ties between steps that are ready at the same time.
type Definition struct {
	ID          string
	Description string
	Steps       []Step
}

// Step returns the step with the given id.
func (d *Definition) Step(id string) (Step, bool) {
	for _, s := range d.Steps {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}
