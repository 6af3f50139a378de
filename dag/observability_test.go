package dag

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/observability"
)

func TestRunner_TracingSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	}()

	def := &Definition{ID: "traced", Steps: []Step{
		{ID: "a", Action: func(context.Context, Vars) StepResult { return Succeeded(nil) }},
		{ID: "b", DependsOn: []string{"a"}, Action: func(context.Context, Vars) StepResult { return Failed("nope") }},
	}}
	r := &Runner{Logger: logger.NewNop(), Tracing: true}
	if _, err := r.Run(context.Background(), def, nil); err != nil {
		t.Fatal(err)
	}

	spans := exporter.GetSpans()
	names := map[string]int{}
	for _, s := range spans {
		names[s.Name]++
	}
	if names[observability.SpanPipelineRun] != 1 || names[observability.SpanStep] != 2 {
		t.Fatalf("unexpected spans: %v", names)
	}

	var failed int
	for _, s := range spans {
		if s.Name == observability.SpanStep && s.Status.Description == "nope" {
			failed++
		}
	}
	if failed != 1 {
		t.Errorf("expected one failed step span, got %d", failed)
	}
}

func TestRunner_MetricsMiddleware(t *testing.T) {
	m, err := observability.NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatal(err)
	}
	def := &Definition{ID: "metered", Steps: []Step{
		{ID: "a", Action: func(context.Context, Vars) StepResult { return Failed("x") }},
	}}
	res, _ := (&Runner{Logger: logger.NewNop(), Metrics: m}).Run(context.Background(), def, nil)
	if res.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", res.Status)
	}
}

func TestWithLogging_LevelsByStatus(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithWriter(&logger.Config{Level: "info", Format: logger.FormatJSON}, "dag-test", &buf)

	def := &Definition{ID: "logged", Steps: []Step{
		{ID: "ok", Action: func(context.Context, Vars) StepResult { return Succeeded(nil) }},
		{ID: "bad", Action: func(context.Context, Vars) StepResult { return Failed("exploded") }},
		{ID: "after", DependsOn: []string{"bad"}, Action: func(context.Context, Vars) StepResult { return Succeeded(nil) }},
	}}
	if _, err := (&Runner{Logger: log}).Run(context.Background(), def, nil); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, `"step failed"`) || !strings.Contains(out, "exploded") {
		t.Errorf("expected failure log, got %s", out)
	}
	if !strings.Contains(out, `"step skipped"`) {
		t.Errorf("expected skip log, got %s", out)
	}
	if strings.Contains(out, `"step":"ok"`) {
		t.Errorf("successful steps log at debug only, got %s", out)
	}
}

func TestCustomMiddlewareOrder(t *testing.T) {
	var trail []string
	tag := func(name string) Middleware {
		return func(step Step, next Action) Action {
			return func(ctx context.Context, v Vars) StepResult {
				trail = append(trail, name+">"+step.ID)
				return next(ctx, v)
			}
		}
	}
	def := &Definition{ID: "mw", Steps: []Step{{ID: "s", Action: func(context.Context, Vars) StepResult {
		trail = append(trail, "action")
		return Succeeded(nil)
	}}}}
	r := &Runner{Logger: logger.NewNop(), Middleware: []Middleware{tag("outer"), tag("inner")}}
	if _, err := r.Run(context.Background(), def, nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(trail, ","); got != "outer>s,inner>s,action" {
		t.Errorf("unexpected middleware order %s", got)
	}
}

func TestWriteDOT(t *testing.T) {
	def := &Definition{ID: "target-a", Steps: []Step{
		{ID: "generate", Description: "render video"},
		{ID: "benchmark", DependsOn: []string{"generate"}},
	}}
	res := &Result{StepResults: map[string]StepResult{
		"generate":  {Status: StatusSucceeded},
		"benchmark": {Status: StatusFailed},
	}}

	var buf bytes.Buffer
	if err := WriteDOT(&buf, def, res); err != nil {
		t.Fatalf("WriteDOT failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"digraph", "generate", "benchmark", "lightcoral", "render video", "rankdir"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in DOT output:\n%s", want, out)
		}
	}

	bad := &Definition{ID: "bad", Steps: []Step{{ID: "a", DependsOn: []string{"a"}}}}
	if err := WriteDOT(&buf, bad, nil); err == nil {
		t.Error("expected invalid definition error")
	}
}
