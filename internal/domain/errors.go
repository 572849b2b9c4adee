package domain

import (
	"errors"
	"fmt"
)

// ErrReportGenerationFailed is returned for any failure inside the aggregation pipeline.
// Diagnostic details are logged by the orchestrator, never attached to the error.
var ErrReportGenerationFailed = errors.New("report generation failed")

// ErrSourceUnavailable is returned when matches cannot be loaded from the match source.
var ErrSourceUnavailable = errors.New("match source unavailable")

// ErrUnsupportedFormat is the marker error for unknown export formats.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ValidationError represents a field validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s' %s", e.Field, e.Message)
}

// NewValidationError creates a new ValidationError with the given field and message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsValidationError checks if the given error is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// AsValidationError attempts to extract a ValidationError from the given error.
// Returns nil if the error is not a ValidationError.
func AsValidationError(err error) *ValidationError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// ExportError reports a format the export formatter cannot render.
type ExportError struct {
	Format string
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnsupportedFormat.Error(), e.Format)
}

// Unwrap lets errors.Is match ErrUnsupportedFormat.
func (e *ExportError) Unwrap() error {
	return ErrUnsupportedFormat
}
