package compare

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/abcompare/dag"
	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/metrics"
	"github.com/kbukum/abcompare/observability"
	"github.com/kbukum/abcompare/storage"
	"github.com/kbukum/abcompare/storage/local"
	"github.com/kbukum/abcompare/target"
)

// DefaultOutputDir is the parent of comparison directories.
const DefaultOutputDir = "comparisons"

// PipelineBuilder builds a target's pipeline. *target.Builder implements it.
type PipelineBuilder interface {
	Build(t target.Target, sampleID, outputDir string) (*dag.Definition, error)
}

// PipelineRunner executes a pipeline. *dag.Runner implements it.
type PipelineRunner interface {
	Run(ctx context.Context, def *dag.Definition, seed dag.Vars) (*dag.Result, error)
}

// Options configure one comparison.
type Options struct {
	// OutputDir is the parent directory; the comparison writes to
	// OutputDir/<compareId>.
	OutputDir string
	// Verbose logs every step result at info level.
	Verbose bool
	// Concurrent runs both targets at the same time.
	Concurrent bool
}

// Orchestrator runs A/B comparisons.
type Orchestrator struct {
	Builder    PipelineBuilder
	Runner     PipelineRunner
	Thresholds metrics.Thresholds
	// Archive, when set, receives a copy of every persisted result under
	// <compareId>/comparison-result.json.
	Archive storage.Storage
	// OpenStore opens the store for a comparison directory. Defaults to a
	// local store rooted at dir.
	OpenStore func(dir string) (storage.Storage, error)
	Metrics   *observability.Metrics
	Tracing   bool
	Logger    *logger.Logger
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
}

// Run compares a and b on sampleID. It always returns a Result.
func (o *Orchestrator) Run(ctx context.Context, a, b target.Target, sampleID string, opts Options) *Result {
	now := o.Now
	if now == nil {
		now = time.Now
	}
	if opts.OutputDir == "" {
		opts.OutputDir = DefaultOutputDir
	}

	start := now()
	compareID := NewCompareID(start)
	dir := filepath.Join(opts.OutputDir, compareID)

	ctx = logger.ContextWithCompareID(ctx, compareID)
	log := logger.OrGlobal(o.Logger).WithComponent("compare").WithContext(ctx).
		WithFields(logger.Fields(logger.FieldSample, sampleID))

	if o.Tracing {
		var span trace.Span
		ctx, span = observability.StartSpan(ctx, observability.SpanCompare)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrCompareID, compareID)
		observability.SetSpanAttribute(ctx, observability.AttrSampleID, sampleID)
	}

	result := &Result{
		CompareID:  compareID,
		SampleID:   sampleID,
		Status:     StatusRunning,
		StartedAt:  timestamp(start),
		OutputDir:  dir,
		Concurrent: opts.Concurrent,
		Thresholds: o.Thresholds,
		RunA:       newSummary(a),
		RunB:       newSummary(b),
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Error("creating output directory", logger.MergeWithError(logger.Fields(logger.FieldPath, dir), err))
	}
	log.Info("comparison started", logger.Fields("target_a", a.ID, "target_b", b.ID, logger.FieldPath, dir))

	switch {
	case a.ID != "" && a.ID == b.ID:
		// Both runs would write the same <id>-benchmark.json.
		result.RunA.fail("targets a and b share id %q", a.ID)
		result.RunB.fail("targets a and b share id %q", b.ID)
		log.Error("comparison rejected", logger.Fields(logger.FieldTarget, a.ID))
	case opts.Concurrent:
		var g errgroup.Group
		g.Go(func() error { o.runTarget(ctx, a, sampleID, dir, opts, result.RunA, log); return nil })
		g.Go(func() error { o.runTarget(ctx, b, sampleID, dir, opts, result.RunB, log); return nil })
		_ = g.Wait()
	default:
		o.runTarget(ctx, a, sampleID, dir, opts, result.RunA, log)
		o.runTarget(ctx, b, sampleID, dir, opts, result.RunB, log)
	}

	result.Status = StatusFailed
	if result.RunA.Succeeded() && result.RunB.Succeeded() {
		result.Status = StatusSucceeded
	}
	result.Deltas = metrics.Delta(result.RunA.Metrics, result.RunB.Metrics)

	end := now()
	result.FinishedAt = timestamp(end)
	result.TotalDurationMs = end.Sub(start).Milliseconds()

	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(result.Status))
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldStatus, string(result.Status),
		"status_a", string(result.RunA.Status),
		"status_b", string(result.RunB.Status),
	), end.Sub(start))
	if result.Succeeded() {
		log.Info("comparison finished", fields)
	} else {
		log.Warn("comparison finished", fields)
	}

	o.persist(ctx, result, log)
	return result
}

func newSummary(t target.Target) *RunSummary {
	return &RunSummary{
		TargetID:         t.ID,
		Label:            t.Label,
		PipelineConfigID: t.PipelineConfigID,
		Status:           StatusPending,
	}
}

// runTarget drives one summary from pending to a terminal status. Panics
// are recovered into a failed summary.
func (o *Orchestrator) runTarget(ctx context.Context, t target.Target, sampleID, dir string, opts Options, s *RunSummary, log *logger.Logger) {
	log = log.WithFields(logger.Fields(logger.FieldTarget, t.ID))
	start := time.Now()
	s.Status = StatusRunning
	log.Info("target started", logger.Fields("label", t.Name(), "pipeline_config", t.PipelineConfigID))

	if o.Tracing {
		var span trace.Span
		ctx, span = observability.StartSpan(ctx, observability.SpanTarget)
		defer span.End()
		observability.SetSpanAttribute(ctx, observability.AttrTargetID, t.ID)
	}

	defer func() {
		if rec := recover(); rec != nil {
			s.fail("target %q crashed: %v", t.ID, rec)
		}
		s.ExecutionTimeMs = time.Since(start).Milliseconds()
		o.report(ctx, s, log)
	}()

	if o.Builder == nil || o.Runner == nil {
		s.fail("orchestrator has no pipeline builder or runner")
		return
	}

	def, err := o.Builder.Build(t, sampleID, dir)
	if err != nil {
		s.fail("building pipeline: %v", err)
		return
	}

	seed := dag.Vars{
		"sampleId":  dag.String(sampleID),
		"outputDir": dag.String(dir),
	}
	res, err := o.Runner.Run(ctx, def, seed)
	if err != nil {
		s.fail("running pipeline: %v", err)
		return
	}

	s.RunID = res.RunID
	s.Steps = summarizeSteps(res)
	out := target.ReadOutputs(res.FinalContext, t.ID)
	s.RunDir = out.RunDir
	s.VideoPath = out.VideoPath
	s.BenchmarkPath = out.BenchmarkPath
	s.VisionQAPath = out.VisionQAPath
	s.BenchmarkSkipped = out.BenchmarkSkipped
	s.VisionSkipped = out.VisionSkipped

	if opts.Verbose {
		for _, id := range res.Order {
			sr := res.StepResults[id]
			log.Info("step result", logger.Fields(logger.FieldStep, id, logger.FieldStatus, string(sr.Status), logger.FieldError, sr.ErrorMessage))
		}
	}

	if !res.Succeeded() {
		s.fail("%s", failureMessage(res))
		return
	}

	s.Metrics = o.extract(sampleID, out)
	s.Status = StatusSucceeded
}

// extract reads the benchmark and vision files a run produced.
func (o *Orchestrator) extract(sampleID string, out target.Outputs) *metrics.Metrics {
	var bench, vision *metrics.Metrics
	if out.BenchmarkPath != "" {
		bench = metrics.ExtractBenchmark(out.BenchmarkPath)
	}
	if out.VisionQAPath != "" {
		vision = metrics.ExtractVision(out.VisionQAPath, sampleID, o.Thresholds)
	}
	return metrics.Merge(bench, vision)
}

func (o *Orchestrator) report(ctx context.Context, s *RunSummary, log *logger.Logger) {
	fields := logger.Fields(logger.FieldStatus, string(s.Status), logger.FieldDuration, s.ExecutionTimeMs)
	if s.Succeeded() {
		if s.Metrics != nil {
			fields["metrics"] = s.Metrics.Values()
			if s.Metrics.VisionVerdict != "" {
				fields["verdict"] = string(s.Metrics.VisionVerdict)
			}
		}
		log.Info("target finished", fields)
	} else {
		fields[logger.FieldError] = s.ErrorMessage
		log.Error("target failed", fields)
		observability.SetSpanError(ctx, fmt.Errorf("%s", s.ErrorMessage))
	}

	if o.Metrics == nil {
		return
	}
	if s.Metrics != nil && s.Metrics.VisionVerdict != "" {
		o.Metrics.RecordVerdict(ctx, s.TargetID, string(s.Metrics.VisionVerdict))
	}
	if !s.Succeeded() {
		o.Metrics.RecordError(ctx, "target_failed", "compare")
	}
}

// persist writes the result and mirrors it to the archive. Failures are
// logged only.
func (o *Orchestrator) persist(ctx context.Context, result *Result, log *logger.Logger) {
	open := o.OpenStore
	if open == nil {
		open = func(dir string) (storage.Storage, error) { return local.NewStorage(dir) }
	}

	st, err := open(result.OutputDir)
	if err == nil {
		err = storage.PutJSON(ctx, st, ResultFile, result)
	}
	path := filepath.Join(result.OutputDir, ResultFile)
	if err != nil {
		log.Error("persisting comparison result", logger.MergeWithError(logger.Fields(logger.FieldPath, path), err))
	} else {
		log.Info("comparison result written", logger.Fields(logger.FieldPath, path))
	}

	if o.Archive == nil {
		return
	}
	key := result.CompareID + "/" + ResultFile
	if err := storage.PutJSON(ctx, o.Archive, key, result); err != nil {
		log.Error("archiving comparison result", logger.MergeWithError(logger.Fields(logger.FieldPath, key), err))
		return
	}
	log.Debug("comparison result archived", logger.Fields(logger.FieldPath, key))
}
