package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Benchmark result field names.
var benchmarkFields = []string{
	"flickerFrames",
	"jitterScore",
	"identityScore",
	"overallQuality",
	"pathAdherenceMeanError",
	"pathDirectionConsistency",
}

// Vision score containers, in lookup order.
var scoreContainers = []string{"scores", "aggregatedMetrics"}

// ExtractBenchmark reads a benchmark result file. It returns nil when the
// file is missing, malformed or carries no recognized field.
func ExtractBenchmark(path string) *Metrics {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	m, err := ParseBenchmark(data)
	if err != nil {
		return nil
	}
	return m
}

// ParseBenchmark decodes a flat benchmark JSON object. Known fields are
// copied only when they are numbers; unknown fields are ignored.
func ParseBenchmark(data []byte) (*Metrics, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("metrics: benchmark: %w", err)
	}

	m := &Metrics{}
	byName := make(map[string]**float64)
	for _, f := range m.fields() {
		byName[f.name] = f.ptr
	}
	for _, name := range benchmarkFields {
		if v, ok := number(doc[name]); ok {
			*byName[name] = &v
		}
	}
	if m.Empty() {
		return nil, nil
	}
	return m, nil
}

// ExtractVision reads a vision result file and grades its scores. It
// returns nil when the file is missing, malformed or has no scores.
func ExtractVision(path, sampleID string, t Thresholds) *Metrics {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	m, err := ParseVision(data, sampleID, t)
	if err != nil {
		return nil
	}
	return m
}

// ParseVision decodes a vision result keyed by sample id, falling back to
// the whole document when the key is absent. Scores are read from "scores"
// or "aggregatedMetrics", each either a number or an object with "median".
func ParseVision(data []byte, sampleID string, t Thresholds) (*Metrics, error) {
	doc, err := decodeObject(data)
	if err != nil {
		return nil, fmt.Errorf("metrics: vision: %w", err)
	}
	if raw, ok := doc[sampleID]; ok && sampleID != "" {
		if sample, err := decodeObject(raw); err == nil {
			doc = sample
		}
	}

	var overall, severity *float64
	for _, key := range scoreContainers {
		scores, err := decodeObject(doc[key])
		if err != nil {
			continue
		}
		if overall == nil {
			overall = score(scores["overall"])
		}
		if severity == nil {
			severity = score(scores["artifactSeverity"])
		}
	}

	verdict, ok := t.Evaluate(overall, severity)
	if !ok {
		return nil, nil
	}
	return &Metrics{
		VisionOverall:          overall,
		VisionArtifactSeverity: severity,
		VisionVerdict:          verdict,
	}, nil
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return obj, nil
}

// number accepts only a JSON number.
func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || !(raw[0] == '-' || (raw[0] >= '0' && raw[0] <= '9')) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

// score accepts a number or an object exposing a numeric "median".
func score(raw json.RawMessage) *float64 {
	if v, ok := number(raw); ok {
		return &v
	}
	obj, err := decodeObject(raw)
	if err != nil {
		return nil
	}
	if v, ok := number(obj["median"]); ok {
		return &v
	}
	return nil
}
