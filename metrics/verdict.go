package metrics

import "github.com/kbukum/abcompare/validation"

// Verdict is the graded outcome of vision scores.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictWarn Verdict = "WARN"
	VerdictFail Verdict = "FAIL"
)

// Default threshold values used by configuration defaults.
const (
	DefaultMinOverall          = 80.0
	DefaultMaxArtifactSeverity = 40.0
	DefaultWarnMargin          = 5.0
)

// Thresholds configures verdict grading.
type Thresholds struct {
	// MinOverall is the lowest passing overall score.
	MinOverall float64 `mapstructure:"min_overall" json:"minOverall" validate:"gte=0"`
	// MaxArtifactSeverity is the highest passing artifact severity.
	MaxArtifactSeverity float64 `mapstructure:"max_artifact_severity" json:"maxArtifactSeverity" validate:"gte=0"`
	// WarnMargin is the distance from either threshold that still passes
	// but warns.
	WarnMargin float64 `mapstructure:"warn_margin" json:"warnMargin" validate:"gte=0"`
}

// DefaultThresholds returns 80 / 40 / 5.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinOverall:          DefaultMinOverall,
		MaxArtifactSeverity: DefaultMaxArtifactSeverity,
		WarnMargin:          DefaultWarnMargin,
	}
}

// ApplyDefaults replaces an all-zero Thresholds with the defaults.
func (t *Thresholds) ApplyDefaults() {
	if *t == (Thresholds{}) {
		*t = DefaultThresholds()
	}
}

// Validate checks the thresholds are usable.
func (t Thresholds) Validate() error {
	return validation.New().
		Min("minOverall", t.MinOverall, 0).
		Min("maxArtifactSeverity", t.MaxArtifactSeverity, 0).
		Min("warnMargin", t.WarnMargin, 0).
		Validate()
}

// Evaluate grades the given scores. A nil score is not evaluated; when both
// are nil ok is false and no verdict applies.
//
// FAIL when overall < MinOverall or severity > MaxArtifactSeverity.
// WARN when overall < MinOverall+WarnMargin or severity > MaxArtifactSeverity-WarnMargin.
// PASS otherwise. FAIL dominates WARN, WARN dominates PASS.
func (t Thresholds) Evaluate(overall, severity *float64) (v Verdict, ok bool) {
	if overall == nil && severity == nil {
		return "", false
	}

	v = VerdictPass
	if overall != nil {
		v = worse(v, t.gradeOverall(*overall))
	}
	if severity != nil {
		v = worse(v, t.gradeSeverity(*severity))
	}
	return v, true
}

func (t Thresholds) gradeOverall(overall float64) Verdict {
	switch {
	case overall < t.MinOverall:
		return VerdictFail
	case overall < t.MinOverall+t.WarnMargin:
		return VerdictWarn
	default:
		return VerdictPass
	}
}

func (t Thresholds) gradeSeverity(severity float64) Verdict {
	switch {
	case severity > t.MaxArtifactSeverity:
		return VerdictFail
	case severity > t.MaxArtifactSeverity-t.WarnMargin:
		return VerdictWarn
	default:
		return VerdictPass
	}
}

func (v Verdict) rank() int {
	switch v {
	case VerdictFail:
		return 2
	case VerdictWarn:
		return 1
	default:
		return 0
	}
}

func worse(a, b Verdict) Verdict {
	if b.rank() > a.rank() {
		return b
	}
	return a
}
