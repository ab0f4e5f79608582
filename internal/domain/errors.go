package domain

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies pipeline failures. The category decides retry
// behavior (only generation errors are retried) and is what the job status
// endpoint surfaces to callers, never the underlying cause.
type ErrorCategory string

const (
	CategoryConfiguration ErrorCategory = "configuration" // missing required profile fields, bad credentials
	CategoryGeneration    ErrorCategory = "generation"    // model timeout, refusal, schema violation
	CategoryValidation    ErrorCategory = "validation"    // candidate cannot be reconciled into canonical form
	CategoryPersistence   ErrorCategory = "persistence"   // write or post-write verification failed
)

// PipelineError is the typed error the pipeline bubbles to the orchestrator.
type PipelineError struct {
	Category ErrorCategory
	Message  string
	Cause    error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// NewConfigurationError builds a fatal, never-retried configuration error.
func NewConfigurationError(message string, cause error) *PipelineError {
	return &PipelineError{Category: CategoryConfiguration, Message: message, Cause: cause}
}

// NewGenerationError builds a model-boundary error, retryable per policy.
func NewGenerationError(message string, cause error) *PipelineError {
	return &PipelineError{Category: CategoryGeneration, Message: message, Cause: cause}
}

// NewValidationError builds a normalizer error. Retrying the same candidate
// is pointless, so these are fatal.
func NewValidationError(message string, cause error) *PipelineError {
	return &PipelineError{Category: CategoryValidation, Message: message, Cause: cause}
}

// NewPersistenceError builds a storage-boundary error.
func NewPersistenceError(message string, cause error) *PipelineError {
	return &PipelineError{Category: CategoryPersistence, Message: message, Cause: cause}
}

// CategoryOf extracts the pipeline category from an error chain. Errors that
// escaped categorization are reported as persistence failures so the job
// still lands in a terminal state with something actionable attached.
func CategoryOf(err error) ErrorCategory {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return CategoryPersistence
}
