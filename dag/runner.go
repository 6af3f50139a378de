package dag

import (
	"context"
	stderrors "errors"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/observability"
)

// Runner executes Definitions.
type Runner struct {
	// MaxParallel bounds concurrently running steps. Values <= 1 run steps
	// one at a time in topological order.
	MaxParallel int
	// StepTimeout applies to steps without their own Timeout. Zero disables it.
	StepTimeout time.Duration
	// Logger receives step and pipeline events. Nil uses the global logger.
	Logger *logger.Logger
	// Tracing opens a span per pipeline run and per step.
	Tracing bool
	// Metrics, when set, records step and pipeline counters.
	Metrics *observability.Metrics
	// Middleware decorates every step action, outermost first.
	Middleware []Middleware
}

// Run executes def against a copy of seed. A definition that fails
// validation executes no step: the returned Result is failed and the error
// is an INVALID_PIPELINE AppError. Otherwise the error is nil and the
// outcome is carried by the Result.
func (r *Runner) Run(ctx context.Context, def *Definition, seed Vars) (*Result, error) {
	start := time.Now()
	result := &Result{
		RunID:       uuid.NewString(),
		StepResults: make(map[string]StepResult),
		Order:       []string{},
	}
	if def != nil {
		result.PipelineID = def.ID
	}

	ctx = logger.ContextWithRunID(ctx, result.RunID)
	log := logger.OrGlobal(r.Logger).WithComponent("dag").WithContext(ctx).
		WithFields(logger.Fields(logger.FieldPipeline, result.PipelineID))

	if r.Tracing {
		var span trace.Span
		ctx, span = observability.StartSpan(ctx, observability.SpanPipelineRun)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrPipelineID, result.PipelineID)
		observability.SetSpanAttribute(ctx, observability.AttrRunID, result.RunID)
	}

	p, err := newPlan(def)
	if err != nil {
		result.finish(start, NewState(seed))
		result.Status = StatusFailed
		log.Error("pipeline rejected", logger.MergeWithError(nil, err))
		observability.SetSpanError(ctx, err)
		return result, err
	}

	state := NewState(seed)
	mw := r.middleware(result.PipelineID, log)

	log.Debug("pipeline started", logger.Fields("steps", len(p.order), "max_parallel", r.MaxParallel))
	if r.MaxParallel > 1 {
		r.runParallel(ctx, p, state, mw, result, log)
	} else {
		r.runSequential(ctx, p, state, mw, result, log)
	}
	result.finish(start, state)

	counts := result.Counts()
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldStatus, string(result.Status),
		"succeeded", counts[StatusSucceeded],
		"failed", counts[StatusFailed],
		"skipped", counts[StatusSkipped],
	), result.Duration)
	if result.Succeeded() {
		log.Info("pipeline finished", fields)
	} else {
		log.Warn("pipeline finished", fields)
	}

	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(result.Status))
	if r.Metrics != nil {
		r.Metrics.RecordPipeline(ctx, result.PipelineID, string(result.Status), result.Duration)
	}

	return result, nil
}

// middleware returns the decorators applied to every step of one run.
func (r *Runner) middleware(pipelineID string, log *logger.Logger) []Middleware {
	mw := []Middleware{WithLogging(log)}
	if r.Tracing {
		mw = append(mw, WithTracing(observability.SpanStep))
	}
	if r.Metrics != nil {
		mw = append(mw, WithMetrics(r.Metrics, pipelineID))
	}
	return append(mw, r.Middleware...)
}

func (r *Runner) runSequential(ctx context.Context, p *plan, state *State, mw []Middleware, result *Result, log *logger.Logger) {
	for _, id := range p.order {
		if res, blocked := p.blockedBy(id, result); blocked {
			logSkip(log, id, res)
			result.record(id, res)
			continue
		}
		if err := ctx.Err(); err != nil {
			res := Skipped("pipeline cancelled: %v", err)
			logSkip(log, id, res)
			result.record(id, res)
			continue
		}
		res := r.runStep(ctx, p.steps[id], mw, state.Snapshot())
		if res.Status == StatusSucceeded {
			state.Merge(res.ContextUpdates)
		}
		result.record(id, res)
	}
}

type completion struct {
	id  string
	res StepResult
}

// runParallel dispatches every step whose dependencies are terminal. Only
// this goroutine touches result, state and the scheduling maps.
func (r *Runner) runParallel(ctx context.Context, p *plan, state *State, mw []Middleware, result *Result, log *logger.Logger) {
	var g errgroup.Group
	g.SetLimit(r.MaxParallel)
	done := make(chan completion, len(p.order))

	remaining := make(map[string]int, len(p.order))
	var ready []string
	for _, id := range p.order {
		remaining[id] = len(p.deps[id])
		if remaining[id] == 0 {
			ready = append(ready, id)
		}
	}
	byIndex := func(a, b string) int { return p.index[a] - p.index[b] }
	slices.SortFunc(ready, byIndex)

	// settle records a terminal result. ran is false for steps the
	// scheduler skipped without invoking.
	var settle func(id string, res StepResult, ran bool)
	settle = func(id string, res StepResult, ran bool) {
		if !ran {
			logSkip(log, id, res)
		}
		if res.Status == StatusSucceeded {
			state.Merge(res.ContextUpdates)
		}
		result.record(id, res)
		for _, next := range p.dependents[id] {
			remaining[next]--
			if remaining[next] > 0 {
				continue
			}
			if skip, blocked := p.blockedBy(next, result); blocked {
				settle(next, skip, false)
				continue
			}
			ready = append(ready, next)
			slices.SortFunc(ready, byIndex)
		}
	}

	inflight := 0
	for len(result.StepResults) < len(p.order) {
		for len(ready) > 0 {
			id := ready[0]
			ready = ready[1:]
			if err := ctx.Err(); err != nil {
				settle(id, Skipped("pipeline cancelled: %v", err), false)
				continue
			}
			step, vars := p.steps[id], state.Snapshot()
			inflight++
			g.Go(func() error {
				done <- completion{id: id, res: r.runStep(ctx, step, mw, vars)}
				return nil
			})
		}
		if inflight == 0 {
			break
		}
		c := <-done
		inflight--
		settle(c.id, c.res, true)
	}
	_ = g.Wait()
}

func logSkip(log *logger.Logger, id string, res StepResult) {
	log.Info("step skipped", logger.Fields(logger.FieldStep, id, "reason", res.ErrorMessage))
}

// blockedBy reports whether a dependency of id did not succeed.
func (p *plan) blockedBy(id string, result *Result) (StepResult, bool) {
	for _, dep := range p.deps[id] {
		if sr := result.StepResults[dep]; sr.Status != StatusSucceeded {
			return Skipped("dependency %q %s", dep, sr.Status), true
		}
	}
	return StepResult{}, false
}

// runStep executes one step through the middleware chain.
func (r *Runner) runStep(ctx context.Context, step Step, mw []Middleware, vars Vars) StepResult {
	timeout := step.Timeout
	if timeout <= 0 {
		timeout = r.StepTimeout
	}

	action := guard(step, timeout)
	for i := len(mw) - 1; i >= 0; i-- {
		action = mw[i](step, action)
	}

	start := time.Now()
	res := action(ctx, vars)
	res.Duration = time.Since(start)
	return res
}

// guard wraps a step's action with its timeout, panic recovery and result
// normalisation.
func guard(step Step, timeout time.Duration) Action {
	return func(ctx context.Context, vars Vars) (res StepResult) {
		if step.Action == nil {
			return Failed("step %q has no action", step.ID)
		}

		stepCtx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			stepCtx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		defer func() {
			if rec := recover(); rec != nil {
				res = Failed("step %q panicked: %v", step.ID, rec)
			}
		}()

		res = step.Action(stepCtx, vars)

		if timeout > 0 && ctx.Err() == nil && stderrors.Is(stepCtx.Err(), context.DeadlineExceeded) {
			return Failed("step %q timed out after %s", step.ID, timeout)
		}
		return normalize(step.ID, res)
	}
}

func normalize(id string, res StepResult) StepResult {
	switch res.Status {
	case StatusSucceeded:
		res.ErrorMessage = ""
	case StatusFailed:
		res.ContextUpdates = nil
		if res.ErrorMessage == "" {
			res.ErrorMessage = "step failed"
		}
	case StatusSkipped:
		res.ContextUpdates = nil
		if res.ErrorMessage == "" {
			res.ErrorMessage = "skipped by step"
		}
	default:
		return Failed("step %q returned unknown status %q", id, res.Status)
	}
	return res
}
