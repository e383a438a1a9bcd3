// ceam/core/errors.go
package core

import "fmt"

// ValidationError reports malformed model input: a transition row that does
// not sum to 1, an out-of-domain probability or utility, an unknown state or
// parameter reference. It is always surfaced to the caller and never
// silently corrected.
type ValidationError struct {
	// Field names the offending input, e.g. "arm.DrugA.transitions.Stable"
	// or "state.Progression.utility".
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Msg
	}
	return fmt.Sprintf("invalid input %s: %s", e.Field, e.Msg)
}

// Validationf builds a ValidationError for the given field.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// ConfigurationError reports invalid analysis parameters (iteration count
// <= 0, unsupported distribution family, missing arm). These are rejected
// before any simulation work begins.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Msg
}

// Configurationf builds a ConfigurationError.
func Configurationf(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}
