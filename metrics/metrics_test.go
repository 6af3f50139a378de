package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEvaluate(t *testing.T) {
	th := Thresholds{MinOverall: 80, MaxArtifactSeverity: 40, WarnMargin: 5}
	tests := []struct {
		name     string
		overall  *float64
		severity *float64
		want     Verdict
	}{
		{"overall below threshold", Float(60), Float(10), VerdictFail},
		{"overall within margin", Float(83), Float(10), VerdictWarn},
		{"clean pass", Float(95), Float(5), VerdictPass},
		{"severity above max", Float(95), Float(41), VerdictFail},
		{"severity within margin", Float(95), Float(36), VerdictWarn},
		{"fail dominates warn", Float(83), Float(50), VerdictFail},
		{"overall exactly at min warns", Float(80), Float(0), VerdictWarn},
		{"overall at margin edge passes", Float(85), Float(0), VerdictPass},
		{"only overall", Float(70), nil, VerdictFail},
		{"only severity", nil, Float(38), VerdictWarn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := th.Evaluate(tc.overall, tc.severity)
			if !ok || got != tc.want {
				t.Errorf("Evaluate = %s (ok=%v), want %s", got, ok, tc.want)
			}
		})
	}

	if _, ok := th.Evaluate(nil, nil); ok {
		t.Error("no scores should produce no verdict")
	}
}

func TestThresholdsDefaults(t *testing.T) {
	var th Thresholds
	th.ApplyDefaults()
	if th != DefaultThresholds() {
		t.Errorf("expected defaults, got %+v", th)
	}
	custom := Thresholds{MinOverall: 50}
	custom.ApplyDefaults()
	if custom.MinOverall != 50 || custom.WarnMargin != 0 {
		t.Errorf("explicit thresholds should be kept, got %+v", custom)
	}
	if err := (Thresholds{WarnMargin: -1}).Validate(); err == nil {
		t.Error("expected negative margin to be rejected")
	}
}

func TestExtractBenchmark(t *testing.T) {
	path := writeFile(t, "bench.json", `{
		"overallQuality": 0.9,
		"jitterScore": 0,
		"flickerFrames": "12",
		"identityScore": null,
		"somethingElse": 4
	}`)

	m := ExtractBenchmark(path)
	if m == nil {
		t.Fatal("expected metrics")
	}
	if m.OverallQuality == nil || *m.OverallQuality != 0.9 {
		t.Errorf("unexpected overallQuality %v", m.OverallQuality)
	}
	if m.JitterScore == nil || *m.JitterScore != 0 {
		t.Error("a measured zero must be kept")
	}
	if m.FlickerFrames != nil {
		t.Error("a string value is not a measurement")
	}
	if m.IdentityScore != nil || m.PathAdherenceMeanError != nil {
		t.Error("absent fields must stay nil")
	}

	again := ExtractBenchmark(path)
	if !reflect.DeepEqual(m, again) {
		t.Errorf("extraction not idempotent: %+v vs %+v", m, again)
	}
}

func TestExtractBenchmark_NoMetrics(t *testing.T) {
	tests := map[string]string{
		"missing":     filepath.Join(t.TempDir(), "nope.json"),
		"malformed":   writeFile(t, "bad.json", `{"overallQuality": `),
		"array":       writeFile(t, "arr.json", `[1,2]`),
		"no known":    writeFile(t, "other.json", `{"foo": 1}`),
		"null object": writeFile(t, "null.json", `null`),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			if m := ExtractBenchmark(path); m != nil {
				t.Errorf("expected no metrics, got %+v", m)
			}
		})
	}
}

func TestExtractVision(t *testing.T) {
	th := DefaultThresholds()

	t.Run("keyed by sample with medians", func(t *testing.T) {
		path := writeFile(t, "vision.json", `{
			"s1": {"scores": {"overall": {"median": 83, "p90": 90}, "artifactSeverity": 10}},
			"s2": {"scores": {"overall": 10}}
		}`)
		m := ExtractVision(path, "s1", th)
		if m == nil || *m.VisionOverall != 83 || *m.VisionArtifactSeverity != 10 {
			t.Fatalf("unexpected metrics %+v", m)
		}
		if m.VisionVerdict != VerdictWarn {
			t.Errorf("expected WARN, got %s", m.VisionVerdict)
		}
	})

	t.Run("flat fallback with aggregatedMetrics", func(t *testing.T) {
		path := writeFile(t, "vision.json", `{"aggregatedMetrics": {"overall": 95, "artifactSeverity": {"median": 5}}}`)
		m := ExtractVision(path, "missing-sample", th)
		if m == nil || m.VisionVerdict != VerdictPass {
			t.Fatalf("expected PASS, got %+v", m)
		}
	})

	t.Run("no scores", func(t *testing.T) {
		path := writeFile(t, "vision.json", `{"s1": {"notes": "n/a"}}`)
		if m := ExtractVision(path, "s1", th); m != nil {
			t.Errorf("expected no metrics, got %+v", m)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if m := ExtractVision(filepath.Join(t.TempDir(), "x.json"), "s1", th); m != nil {
			t.Errorf("expected no metrics, got %+v", m)
		}
	})
}

func TestMerge(t *testing.T) {
	if Merge(nil, nil) != nil {
		t.Fatal("merging nothing must yield nil")
	}

	bench := &Metrics{OverallQuality: Float(0.9), VisionOverall: Float(1)}
	vision := &Metrics{VisionOverall: Float(83), VisionVerdict: VerdictWarn}
	m := Merge(bench, vision)
	if *m.OverallQuality != 0.9 || *m.VisionOverall != 83 || m.VisionVerdict != VerdictWarn {
		t.Errorf("unexpected merge %+v", m)
	}
	if m.OverallQuality == bench.OverallQuality {
		t.Error("merge must not alias its inputs")
	}

	only := Merge(bench, nil)
	if only == nil || *only.OverallQuality != 0.9 {
		t.Errorf("unexpected single-sided merge %+v", only)
	}
}

func TestDelta(t *testing.T) {
	a := &Metrics{OverallQuality: Float(0.5), JitterScore: Float(2)}
	b := &Metrics{OverallQuality: Float(0.75), IdentityScore: Float(1)}
	d := Delta(a, b)
	if len(d) != 1 || d["overallQuality"] != 0.25 {
		t.Errorf("unexpected delta %v", d)
	}
	if Delta(nil, b) != nil {
		t.Error("expected nil delta when one side measured nothing")
	}
}

func TestMetricsJSON(t *testing.T) {
	m := &Metrics{OverallQuality: Float(0.9), VisionVerdict: VerdictPass}
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"overallQuality":0.9,"visionVerdict":"PASS"}` {
		t.Errorf("unexpected JSON %s", data)
	}
}
