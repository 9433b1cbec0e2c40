package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the evaluation failure taxonomy. The typed errors
// below match them with errors.Is.
var (
	// ErrRequestFailed indicates that every attempt to reach the model failed.
	ErrRequestFailed = errors.New("model request failed")

	// ErrParseFailed indicates that the model reply was not a valid scorecard.
	ErrParseFailed = errors.New("model response could not be parsed")

	// ErrInvalidWeights indicates that a weight configuration is unusable.
	ErrInvalidWeights = errors.New("invalid weights")

	// ErrMissingCriterion indicates that a scorecard lacks a weighted criterion.
	ErrMissingCriterion = errors.New("missing criterion")

	// ErrInvalidScoreValue indicates that a criterion score is not a finite number.
	ErrInvalidScoreValue = errors.New("invalid score value")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// RequestFailedError reports that the model could not be reached after all
// retry attempts. Err holds the cause of the last attempt.
type RequestFailedError struct {
	// Attempts is the number of attempts made.
	Attempts int
	// Err is the error returned by the last attempt.
	Err error
}

// Error implements the error interface.
func (e *RequestFailedError) Error() string {
	return fmt.Sprintf("model request failed after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying cause.
func (e *RequestFailedError) Unwrap() error { return e.Err }

// Is matches ErrRequestFailed.
func (e *RequestFailedError) Is(target error) bool { return target == ErrRequestFailed }

// ParseFailedError reports that a model reply could not be decoded. It is
// only surfaced when strict parsing is enabled; otherwise parsing degrades to
// a fallback scorecard.
type ParseFailedError struct {
	// Supplier is the supplier whose reply failed to parse.
	Supplier string
	// Err is the decoding error.
	Err error
}

// Error implements the error interface.
func (e *ParseFailedError) Error() string {
	return fmt.Sprintf("parse response for supplier %q: %v", e.Supplier, e.Err)
}

// Unwrap returns the decoding error.
func (e *ParseFailedError) Unwrap() error { return e.Err }

// Is matches ErrParseFailed.
func (e *ParseFailedError) Is(target error) bool { return target == ErrParseFailed }

// InvalidWeightsError reports why a weight configuration was rejected.
type InvalidWeightsError struct {
	// Reason is a human-readable explanation, e.g. "weights must sum to 100%, got 95.00%".
	Reason string
}

// Error implements the error interface.
func (e *InvalidWeightsError) Error() string { return "invalid weights: " + e.Reason }

// Is matches ErrInvalidWeights.
func (e *InvalidWeightsError) Is(target error) bool { return target == ErrInvalidWeights }

// MissingCriterionError reports that a weighted criterion is absent from a
// supplier's scorecard.
type MissingCriterionError struct {
	Supplier  string
	Criterion Criterion
}

// Error implements the error interface.
func (e *MissingCriterionError) Error() string {
	return fmt.Sprintf("supplier %q: scorecard has no score for %s", e.Supplier, e.Criterion)
}

// Is matches ErrMissingCriterion.
func (e *MissingCriterionError) Is(target error) bool { return target == ErrMissingCriterion }

// InvalidScoreValueError reports that a criterion score cannot be used in
// arithmetic.
type InvalidScoreValueError struct {
	Supplier  string
	Criterion Criterion
	Value     ScoreValue
	Err       error
}

// Error implements the error interface.
func (e *InvalidScoreValueError) Error() string {
	return fmt.Sprintf("supplier %q: invalid score for %s (%s): %v", e.Supplier, e.Criterion, e.Value, e.Err)
}

// Unwrap returns the conversion error.
func (e *InvalidScoreValueError) Unwrap() error { return e.Err }

// Is matches ErrInvalidScoreValue.
func (e *InvalidScoreValueError) Is(target error) bool { return target == ErrInvalidScoreValue }

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// Is matches ErrInvalidConfiguration.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidConfiguration }

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
