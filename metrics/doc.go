// Package metrics turns benchmark and vision-analysis result files into a
// normalized Metrics record and grades vision scores into a PASS, WARN or
// FAIL verdict.
//
// Extraction never fails loudly: a missing or malformed file yields nil,
// meaning "measured nothing". A field absent from the source stays nil in
// the record and is never reported as zero.
//
// Example:
//
//	m := metrics.Merge(
//	    metrics.ExtractBenchmark("out/a-benchmark.json"),
//	    metrics.ExtractVision("out/a-vision.json", "s1", metrics.DefaultThresholds()),
//	)
package metrics
