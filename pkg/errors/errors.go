package errors

import (
	"errors"
	"fmt"
)

// Domain error types for business logic

var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates invalid input parameters
	ErrInvalidInput = errors.New("invalid input")

	// ErrInternal indicates an internal error
	ErrInternal = errors.New("internal error")

	// ErrTimeout indicates an operation timeout
	ErrTimeout = errors.New("operation timeout")

	// ErrUnavailable indicates a service is unavailable
	ErrUnavailable = errors.New("service unavailable")
)

// Ingestion-specific errors

var (
	// ErrRateLimited indicates the upstream source throttled us
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrSourceUnavailable indicates a listing or feed source is unreachable
	ErrSourceUnavailable = errors.New("source unavailable")
)

// NormalizationError indicates a raw product name could not be parsed.
// Field names the missing or invalid attribute and Raw carries the
// offending input so operators can triage unparseable listings.
type NormalizationError struct {
	Field  string
	Raw    string
	Detail string
}

// Error implements the error interface
func (e *NormalizationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("normalization failed: %s: %s (input: %q)", e.Field, e.Detail, e.Raw)
	}
	return fmt.Sprintf("normalization failed: no %s found (input: %q)", e.Field, e.Raw)
}

// NewNormalizationError creates a normalization error for a missing field
func NewNormalizationError(field, raw string) *NormalizationError {
	return &NormalizationError{Field: field, Raw: raw}
}

// NewNormalizationErrorf creates a normalization error with extra detail
func NewNormalizationErrorf(field, raw, format string, args ...interface{}) *NormalizationError {
	return &NormalizationError{Field: field, Raw: raw, Detail: fmt.Sprintf(format, args...)}
}

// InsufficientDataError indicates a time-windowed statistic has no
// supporting observations. Distinct from a legitimate zero-value result.
type InsufficientDataError struct {
	SKUID        int64
	RequiredDays int
}

// Error implements the error interface
func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient historical data for SKU %d: need at least %d days of price history", e.SKUID, e.RequiredDays)
}

// NewInsufficientDataError creates an insufficient data error
func NewInsufficientDataError(skuID int64, requiredDays int) *InsufficientDataError {
	return &InsufficientDataError{SKUID: skuID, RequiredDays: requiredDays}
}

// IsInsufficientData reports whether err is an InsufficientDataError
func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// MatchError indicates the catalog query collaborator failed. A legitimate
// "no match" outcome is a normal absent result, never a MatchError.
type MatchError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *MatchError) Error() string {
	return fmt.Sprintf("sku match failed: %s: %v", e.Op, e.Err)
}

// Unwrap returns the wrapped error
func (e *MatchError) Unwrap() error {
	return e.Err
}

// NewMatchError wraps a catalog storage failure
func NewMatchError(op string, err error) *MatchError {
	return &MatchError{Op: op, Err: err}
}

// ValidationError represents a validation error with field-specific details
type ValidationError struct {
	Field   string
	Message string
	Value   interface{}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
		Value:   value,
	}
}

// MultiError wraps multiple errors
type MultiError struct {
	Errors []error
}

// Error implements the error interface
func (m *MultiError) Error() string {
	if len(m.Errors) == 0 {
		return "no errors"
	}
	if len(m.Errors) == 1 {
		return m.Errors[0].Error()
	}
	return fmt.Sprintf("multiple errors (%d): %v", len(m.Errors), m.Errors[0])
}

// Add adds an error to the list
func (m *MultiError) Add(err error) {
	if err != nil {
		m.Errors = append(m.Errors, err)
	}
}

// HasErrors returns true if there are any errors
func (m *MultiError) HasErrors() bool {
	return len(m.Errors) > 0
}

// ToError returns the MultiError as an error, or nil if no errors
func (m *MultiError) ToError() error {
	if !m.HasErrors() {
		return nil
	}
	return m
}

// Helper functions

// Is checks if err is or wraps target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target type
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func New(message string) error {
	return errors.New(message)
}

func Newf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
