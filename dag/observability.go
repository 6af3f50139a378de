package dag

import (
	"context"
	"time"

	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/observability"
)

// Middleware decorates a step's action.
type Middleware func(step Step, next Action) Action

// WithTracing wraps each step in an OpenTelemetry span named spanName.
func WithTracing(spanName string) Middleware {
	return func(step Step, next Action) Action {
		return func(ctx context.Context, vars Vars) StepResult {
			ctx, span := observability.StartSpan(ctx, spanName)
			defer span.End()

			observability.SetSpanAttribute(ctx, observability.AttrStepID, step.ID)
			if len(step.DependsOn) > 0 {
				observability.SetSpanAttribute(ctx, "pipeline.depends_on", step.DependsOn)
			}

			res := next(ctx, vars)
			observability.SetSpanAttribute(ctx, observability.AttrStatus, string(res.Status))
			if res.Status == StatusFailed {
				observability.SetSpanError(ctx, stepError(res.ErrorMessage))
			}
			return res
		}
	}
}

// WithMetrics records a step counter and duration histogram.
func WithMetrics(metrics *observability.Metrics, pipelineID string) Middleware {
	return func(step Step, next Action) Action {
		return func(ctx context.Context, vars Vars) StepResult {
			start := time.Now()
			res := next(ctx, vars)

			if res.Status == StatusFailed {
				metrics.RecordError(ctx, "step_failed", step.ID)
			}
			metrics.RecordStep(ctx, pipelineID, step.ID, string(res.Status), time.Since(start))
			return res
		}
	}
}

// WithLogging logs step start at debug level and the outcome at a level
// matching its status.
func WithLogging(log *logger.Logger) Middleware {
	return func(step Step, next Action) Action {
		return func(ctx context.Context, vars Vars) StepResult {
			slog := log.WithFields(logger.Fields(logger.FieldStep, step.ID))
			slog.Debug("step started")

			start := time.Now()
			res := next(ctx, vars)

			fields := logger.MergeWithDuration(logger.Fields(logger.FieldStatus, string(res.Status)), time.Since(start))
			switch res.Status {
			case StatusSucceeded:
				fields["updates"] = len(res.ContextUpdates)
				slog.Debug("step finished", fields)
			case StatusSkipped:
				fields["reason"] = res.ErrorMessage
				slog.Info("step skipped", fields)
			default:
				fields[logger.FieldError] = res.ErrorMessage
				slog.Error("step failed", fields)
			}
			return res
		}
	}
}

type stepError string

func (e stepError) Error() string { return string(e) }
