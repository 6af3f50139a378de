package logger

import "time"

// Field keys shared by every component.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldCompareID = "compare_id"
	FieldPipeline  = "pipeline"
	FieldStep      = "step"
	FieldTarget    = "target"
	FieldSample    = "sample"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldExitCode  = "exit_code"
	FieldPath      = "path"
)

// Fields pairs up alternating keys and values. Non-string keys and a
// trailing odd value are dropped.
//
//	log.Info("step finished", logger.Fields(logger.FieldStep, "generate", logger.FieldExitCode, 0))
func Fields(kvs ...any) map[string]any {
	m := make(map[string]any, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// MergeWithError records err under FieldError, allocating fields if nil.
func MergeWithError(fields map[string]any, err error) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	fields[FieldError] = err.Error()
	return fields
}

// MergeWithDuration records d in milliseconds under FieldDuration.
func MergeWithDuration(fields map[string]any, d time.Duration) map[string]any {
	if fields == nil {
		fields = map[string]any{}
	}
	fields[FieldDuration] = d.Milliseconds()
	return fields
}
