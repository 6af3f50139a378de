package compare

import (
	"fmt"
	"time"

	"github.com/kbukum/abcompare/dag"
	"github.com/kbukum/abcompare/metrics"
)

// Status is the lifecycle state of a target run or a comparison.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// ResultFile is the name of the persisted comparison.
const ResultFile = "comparison-result.json"

// timestampLayout is an ISO 8601 timestamp with milliseconds.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// StepSummary is the persisted outcome of one pipeline step.
type StepSummary struct {
	Status       dag.Status `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	DurationMs   int64      `json:"durationMs"`
}

// RunSummary describes one target's run.
type RunSummary struct {
	TargetID         string                 `json:"targetId"`
	Label            string                 `json:"label,omitempty"`
	PipelineConfigID string                 `json:"pipelineConfigId,omitempty"`
	Status           Status                 `json:"status"`
	RunID            string                 `json:"runId,omitempty"`
	RunDir           string                 `json:"runDir,omitempty"`
	VideoPath        string                 `json:"videoPath,omitempty"`
	BenchmarkPath    string                 `json:"benchmarkPath,omitempty"`
	VisionQAPath     string                 `json:"visionQaPath,omitempty"`
	BenchmarkSkipped bool                   `json:"benchmarkSkipped,omitempty"`
	VisionSkipped    bool                   `json:"visionSkipped,omitempty"`
	Metrics          *metrics.Metrics       `json:"metrics,omitempty"`
	Steps            map[string]StepSummary `json:"steps,omitempty"`
	ExecutionTimeMs  int64                  `json:"executionTimeMs"`
	ErrorMessage     string                 `json:"errorMessage,omitempty"`
}

// Succeeded reports whether the run succeeded.
func (s *RunSummary) Succeeded() bool {
	return s != nil && s.Status == StatusSucceeded
}

func (s *RunSummary) fail(format string, args ...any) {
	s.Status = StatusFailed
	s.ErrorMessage = fmt.Sprintf(format, args...)
}

// Result is an A/B comparison.
type Result struct {
	CompareID       string             `json:"compareId"`
	SampleID        string             `json:"sampleId"`
	Status          Status             `json:"status"`
	StartedAt       string             `json:"startedAt"`
	FinishedAt      string             `json:"finishedAt,omitempty"`
	TotalDurationMs int64              `json:"totalDurationMs"`
	OutputDir       string             `json:"outputDir"`
	Concurrent      bool               `json:"concurrent,omitempty"`
	Thresholds      metrics.Thresholds `json:"thresholds"`
	RunA            *RunSummary        `json:"runA"`
	RunB            *RunSummary        `json:"runB"`
	// Deltas holds runB minus runA for metrics measured on both.
	Deltas map[string]float64 `json:"deltas,omitempty"`
}

// Succeeded reports whether both runs succeeded.
func (r *Result) Succeeded() bool {
	return r != nil && r.Status == StatusSucceeded
}

// NewCompareID derives a comparison id, ab-YYYYMMDD-HHMMSS-mmm, from t in UTC.
func NewCompareID(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("ab-%s-%03d", t.Format("20060102-150405"), t.Nanosecond()/int(time.Millisecond))
}

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func summarizeSteps(res *dag.Result) map[string]StepSummary {
	if res == nil || len(res.StepResults) == 0 {
		return nil
	}
	steps := make(map[string]StepSummary, len(res.StepResults))
	for id, sr := range res.StepResults {
		steps[id] = StepSummary{Status: sr.Status, ErrorMessage: sr.ErrorMessage, DurationMs: sr.DurationMs}
	}
	return steps
}

// failureMessage returns the message of the first failed step, else of the
// first skipped step, else a generic message.
func failureMessage(res *dag.Result) string {
	if _, sr, ok := res.FirstFailure(); ok && sr.ErrorMessage != "" {
		return sr.ErrorMessage
	}
	for _, id := range res.Order {
		if sr := res.StepResults[id]; sr.Status == dag.StatusSkipped && sr.ErrorMessage != "" {
			return sr.ErrorMessage
		}
	}
	return "pipeline failed"
}
