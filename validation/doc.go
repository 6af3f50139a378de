// Package validation checks comparison targets and configuration before any
// external program is started.
//
// Struct tag validation uses go-playground/validator and reports failures as
// an INVALID_INPUT AppError whose details carry the offending fields:
//
//	type CompareTarget struct {
//	    ID    string `json:"id" validate:"required,identifier"`
//	    Label string `json:"label" validate:"required"`
//	}
//	err := validation.Validate(target)
//
// Programmatic validation collects errors for values that have no struct
// representation:
//
//	err := validation.New().
//	    Required("sampleId", sampleID).
//	    Identifier("sampleId", sampleID).
//	    Validate()
package validation
