package search

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized remote search failure taxonomy.
type ErrorCategory string

const (
	// ErrorSubmitFailed indicates no job handle could be parsed from the submission.
	ErrorSubmitFailed ErrorCategory = "submit_failed"

	// ErrorJobFailed indicates the remote job reported failure.
	ErrorJobFailed ErrorCategory = "job_failed"

	// ErrorJobExpired indicates the remote service no longer knows the job handle.
	ErrorJobExpired ErrorCategory = "job_expired"

	// ErrorTimeout indicates polling ran out of attempts or the context ended.
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorProviderOutage indicates the service could not be reached.
	ErrorProviderOutage ErrorCategory = "provider_outage"

	// ErrorBadData indicates the service returned an unusable payload.
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal indicates an unexpected internal error.
	ErrorInternal ErrorCategory = "internal"
)

// ProviderError wraps remote search failures with normalized categorization.
type ProviderError struct {
	Category   ErrorCategory
	Database   Database
	Message    string
	Underlying error
	Retryable  bool
}

func (e *ProviderError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("search %s [%s]: %s: %v", e.Database, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("search %s [%s]: %s", e.Database, e.Category, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Underlying
}

// NewProviderError creates a normalized provider error.
func NewProviderError(category ErrorCategory, db Database, message string, underlying error) *ProviderError {
	retryable := category == ErrorTimeout || category == ErrorProviderOutage

	return &ProviderError{
		Category:   category,
		Database:   db,
		Message:    message,
		Underlying: underlying,
		Retryable:  retryable,
	}
}

// IsRetryable checks if an error is worth retrying at a higher level.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}

// GetCategory extracts the error category from an error.
func GetCategory(err error) ErrorCategory {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ErrorInternal
}
