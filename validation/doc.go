// Package validation checks configuration and input values.
//
// Struct tags are evaluated by go-playground/validator:
//
//	type Config struct {
//	    TargetService string `mapstructure:"target_service" validate:"required"`
//	}
//	if err := validation.Validate(cfg); err != nil { ... }
//
// Field names in errors follow the mapstructure (then json) tag so they
// match the keys in config.yml. Validator collects hand-written checks
// fluently. Both return *errors.AppError with code INVALID_INPUT.
package validation
