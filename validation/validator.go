package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kbukum/discoveryping/errors"
)

// Validator collects field errors from hand-written checks. Checks chain:
//
//	err := validation.New().
//		Required("proxy.target_service", cfg.TargetService).
//		Range("server.port", cfg.Port, 0, 65535).
//		Validate()
type Validator struct {
	errors []FieldError
}

// FieldError is a validation failure for one field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failure for field.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns the recorded failures.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns nil when every check passed, otherwise an INVALID_INPUT
// AppError listing the fields under details.fields.
func (v *Validator) Validate() error {
	if len(v.errors) == 0 {
		return nil
	}
	var msg strings.Builder
	for i, e := range v.errors {
		if i > 0 {
			msg.WriteString("; ")
		}
		msg.WriteString(e.Field + ": " + e.Message)
	}
	return errors.Validation(msg.String()).WithDetail("fields", v.errors)
}

// Required fails when value is blank.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Range fails when value is outside [minVal, maxVal].
func (v *Validator) Range(field string, value, minVal, maxVal int) *Validator {
	if value < minVal || value > maxVal {
		v.AddError(field, fmt.Sprintf("must be between %d and %d", minVal, maxVal))
	}
	return v
}

// OneOf fails when a non-empty value is not in allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value == "" {
		return v
	}
	if !slices.Contains(allowed, value) {
		v.AddError(field, "must be one of: "+strings.Join(allowed, ", "))
	}
	return v
}

// AbsolutePath fails when a non-empty value does not start with "/".
func (v *Validator) AbsolutePath(field, value string) *Validator {
	if value != "" && !strings.HasPrefix(value, "/") {
		v.AddError(field, "must start with /")
	}
	return v
}

// Custom records message when condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
