package dag

import "time"

// Result holds the outcome of a pipeline run.
type Result struct {
	RunID      string `json:"runId"`
	PipelineID string `json:"pipelineId"`
	// Status is succeeded iff every step succeeded.
	Status      Status                `json:"status"`
	StepResults map[string]StepResult `json:"stepResults"`
	// Order lists step ids in the order they reached a terminal status.
	Order        []string      `json:"order"`
	FinalContext Vars          `json:"finalContext"`
	Duration     time.Duration `json:"-"`
}

// Succeeded reports whether the pipeline succeeded.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSucceeded
}

// FirstFailure returns the first failed step in execution order.
func (r *Result) FirstFailure() (string, StepResult, bool) {
	if r == nil {
		return "", StepResult{}, false
	}
	for _, id := range r.Order {
		if sr := r.StepResults[id]; sr.Status == StatusFailed {
			return id, sr, true
		}
	}
	return "", StepResult{}, false
}

// Counts returns how many steps ended in each status.
func (r *Result) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	if r == nil {
		return counts
	}
	for _, sr := range r.StepResults {
		counts[sr.Status]++
	}
	return counts
}

func (r *Result) record(id string, sr StepResult) {
	sr.DurationMs = sr.Duration.Milliseconds()
	r.StepResults[id] = sr
	r.Order = append(r.Order, id)
}

func (r *Result) finish(start time.Time, state *State) {
	r.Status = StatusSucceeded
	for _, sr := range r.StepResults {
		if sr.Status != StatusSucceeded {
			r.Status = StatusFailed
			break
		}
	}
	r.FinalContext = state.Snapshot()
	r.Duration = time.Since(start)
}
