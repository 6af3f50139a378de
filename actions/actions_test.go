package actions

import (
	"context"
	"strings"
	"testing"

	"github.com/kbukum/abcompare/dag"
	"github.com/kbukum/abcompare/errors"
	"github.com/kbukum/abcompare/logger"
	"github.com/kbukum/abcompare/process"
)

func registry(exec process.Executor) *dag.Registry {
	reg := dag.NewRegistry()
	Register(reg, exec)
	return reg
}

func runManifest(t *testing.T, yaml string, exec process.Executor) *dag.Result {
	t.Helper()
	m, err := dag.ParseManifest([]byte(yaml))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	def, err := dag.ResolveManifest(m, registry(exec), nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	seed, err := m.Seed()
	if err != nil {
		t.Fatal(err)
	}
	res, err := (&dag.Runner{Logger: logger.NewNop()}).Run(context.Background(), def, seed)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return res
}

func TestExecAndSet_RealProcess(t *testing.T) {
	res := runManifest(t, `
name: smoke
vars:
  sampleId: s1
steps:
  - id: label
    action: set
    params:
      greeting: "hello ${sampleId}"
      attempts: 3
  - id: echo
    action: exec
    depends_on: [label]
    params:
      binary: sh
      args: ["-c", "echo ${greeting}"]
      publish: echo
`, process.NewRunner(process.Config{}, logger.NewNop()))

	if !res.Succeeded() {
		t.Fatalf("expected success: %+v", res.StepResults)
	}
	if s, _ := res.FinalContext.String("echo_stdout"); s != "hello s1" {
		t.Errorf("unexpected stdout %q", s)
	}
	if n, _ := res.FinalContext.Number("attempts"); n != 3 {
		t.Errorf("unexpected attempts %v", n)
	}
	if n, ok := res.FinalContext.Number("echo_exitCode"); !ok || n != 0 {
		t.Errorf("unexpected exit code %v", n)
	}
}

func TestExec_NonZeroExit(t *testing.T) {
	exec := process.ExecutorFunc(func(context.Context, process.Command) (*process.Result, error) {
		return &process.Result{ExitCode: 4, Stderr: []byte("bad input")}, nil
	})

	res := runManifest(t, "name: x\nsteps:\n  - id: a\n    action: exec\n    params: {binary: tool}\n", exec)
	if sr := res.StepResults["a"]; sr.Status != dag.StatusFailed || !strings.Contains(sr.ErrorMessage, "bad input") {
		t.Errorf("expected failure with stderr, got %+v", sr)
	}

	res = runManifest(t, "name: x\nsteps:\n  - id: a\n    action: exec\n    params: {binary: tool, allow_failure: true, publish: t}\n", exec)
	if n, _ := res.FinalContext.Number("t_exitCode"); !res.Succeeded() || n != 4 {
		t.Errorf("expected published exit code 4, got %v (%+v)", n, res.StepResults)
	}
}

func TestExec_OptionalMissingTool(t *testing.T) {
	exec := process.ExecutorFunc(func(_ context.Context, cmd process.Command) (*process.Result, error) {
		return nil, errors.ToolUnavailable(cmd.Binary)
	})

	res := runManifest(t, "name: x\nsteps:\n  - id: a\n    action: exec\n    params: {binary: nope, optional: true, publish: bench}\n", exec)
	if skipped, _ := res.FinalContext.Bool("bench_skipped"); !res.Succeeded() || !skipped {
		t.Errorf("expected soft skip, got %+v", res.StepResults)
	}

	res = runManifest(t, "name: x\nsteps:\n  - id: a\n    action: exec\n    params: {binary: nope}\n", exec)
	if res.StepResults["a"].Status != dag.StatusFailed {
		t.Errorf("a required tool must fail, got %+v", res.StepResults["a"])
	}
}

func TestExecFactory_Errors(t *testing.T) {
	f := ExecFactory(process.ExecutorFunc(nil))
	if _, err := f(map[string]any{}); !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected missing binary error, got %v", err)
	}
	if _, err := f(map[string]any{"binary": "x", "retries": 2}); err == nil {
		t.Error("expected unknown param error")
	}
}

func TestSetFactory_RejectsNested(t *testing.T) {
	if _, err := SetFactory(map[string]any{"nested": map[string]any{"a": 1}}); err == nil {
		t.Error("expected nested values to be rejected")
	}
}

func TestExpand(t *testing.T) {
	vars := dag.Vars{"a": dag.String("x"), "n": dag.Number(1.5), "z": dag.Null()}
	if got := expand("${a}-$n-${z}-${missing}", vars); got != "x-1.5--" {
		t.Errorf("unexpected expansion %q", got)
	}
}
