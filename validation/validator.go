package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/abcompare/errors"
)

// FieldError names one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors across chained checks. The zero value
// is not usable; call New.
type Validator struct {
	failures []FieldError
}

// New starts a check chain.
func New() *Validator {
	return &Validator{}
}

func (v *Validator) add(field, message string) *Validator {
	v.failures = append(v.failures, FieldError{Field: field, Message: message})
	return v
}

// Validate ends the chain: nil when every check passed, otherwise one
// INVALID_INPUT error listing all failures.
func (v *Validator) Validate() error {
	if len(v.failures) == 0 {
		return nil
	}
	return buildError(v.failures)
}

// Required rejects blank strings.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		return v.add(field, "is required")
	}
	return v
}

// Identifier rejects non-empty values that are not ids. Pair it with
// Required when the value is mandatory.
func (v *Validator) Identifier(field, value string) *Validator {
	if value != "" && !IsIdentifier(value) {
		return v.add(field, "must contain only letters, digits, '.', '_' or '-'")
	}
	return v
}

// Min rejects numbers below floor.
func (v *Validator) Min(field string, value, floor float64) *Validator {
	if value < floor {
		return v.add(field, fmt.Sprintf("must be at least %g", floor))
	}
	return v
}

// OneOf rejects non-empty values outside allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		return v.add(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// Custom records message against field unless ok holds.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		return v.add(field, message)
	}
	return v
}

func buildError(fields []FieldError) *errors.AppError {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", fields)
}
