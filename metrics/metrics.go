package metrics

// Metrics is the normalized quality record of one target run. Nil fields
// were not measured.
type Metrics struct {
	FlickerFrames            *float64 `json:"flickerFrames,omitempty"`
	JitterScore              *float64 `json:"jitterScore,omitempty"`
	IdentityScore            *float64 `json:"identityScore,omitempty"`
	OverallQuality           *float64 `json:"overallQuality,omitempty"`
	PathAdherenceMeanError   *float64 `json:"pathAdherenceMeanError,omitempty"`
	PathDirectionConsistency *float64 `json:"pathDirectionConsistency,omitempty"`

	VisionOverall          *float64 `json:"visionOverall,omitempty"`
	VisionArtifactSeverity *float64 `json:"visionArtifactSeverity,omitempty"`
	VisionVerdict          Verdict  `json:"visionVerdict,omitempty"`
}

// Float returns a pointer to v, for building Metrics literals.
func Float(v float64) *float64 { return &v }

type field struct {
	name string
	ptr  **float64
}

// fields lists the numeric fields in their JSON order.
func (m *Metrics) fields() []field {
	return []field{
		{"flickerFrames", &m.FlickerFrames},
		{"jitterScore", &m.JitterScore},
		{"identityScore", &m.IdentityScore},
		{"overallQuality", &m.OverallQuality},
		{"pathAdherenceMeanError", &m.PathAdherenceMeanError},
		{"pathDirectionConsistency", &m.PathDirectionConsistency},
		{"visionOverall", &m.VisionOverall},
		{"visionArtifactSeverity", &m.VisionArtifactSeverity},
	}
}

// Empty reports whether nothing was measured.
func (m *Metrics) Empty() bool {
	if m == nil {
		return true
	}
	for _, f := range m.fields() {
		if *f.ptr != nil {
			return false
		}
	}
	return m.VisionVerdict == ""
}

// Values returns the measured numeric fields keyed by JSON name.
func (m *Metrics) Values() map[string]float64 {
	out := make(map[string]float64)
	if m == nil {
		return out
	}
	for _, f := range m.fields() {
		if *f.ptr != nil {
			out[f.name] = **f.ptr
		}
	}
	return out
}

// Merge unions benchmark and vision metrics. Where both define a field the
// vision value wins. Two nil inputs yield nil.
func Merge(benchmark, vision *Metrics) *Metrics {
	if benchmark == nil && vision == nil {
		return nil
	}
	out := &Metrics{}
	for _, src := range []*Metrics{benchmark, vision} {
		if src == nil {
			continue
		}
		dst := out.fields()
		for i, f := range src.fields() {
			if *f.ptr != nil {
				v := **f.ptr
				*dst[i].ptr = &v
			}
		}
		if src.VisionVerdict != "" {
			out.VisionVerdict = src.VisionVerdict
		}
	}
	return out
}

// Delta returns b minus a for every field measured on both sides. It
// returns nil when no field is shared.
func Delta(a, b *Metrics) map[string]float64 {
	av, bv := a.Values(), b.Values()
	var out map[string]float64
	for k, x := range av {
		y, ok := bv[k]
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]float64)
		}
		out[k] = y - x
	}
	return out
}
