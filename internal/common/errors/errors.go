// Package errors provides standardized error handling for the application wizard.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "APPLICATION_VALIDATION_FAILED"

	ErrCodeDraftReadFailed  ErrorCode = "DRAFT_READ_FAILED"
	ErrCodeDraftWriteFailed ErrorCode = "DRAFT_WRITE_FAILED"

	ErrCodeSubmissionFailed  ErrorCode = "SUBMISSION_FAILED"
	ErrCodeSubmissionTimeout ErrorCode = "SUBMISSION_TIMEOUT"

	ErrCodeSuggestionFailed       ErrorCode = "SUGGESTION_FAILED"
	ErrCodeSuggestionTimeout      ErrorCode = "SUGGESTION_TIMEOUT"
	ErrCodeInvalidSuggestionField ErrorCode = "INVALID_SUGGESTION_FIELD"
	ErrCodeSuggestionInFlight     ErrorCode = "SUGGESTION_IN_FLIGHT"

	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// AsStandard unwraps err to a *StandardError if one is in the chain.
func AsStandard(err error) (*StandardError, bool) {
	var se *StandardError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationFailedError reports the first failing field of a section or the
// full record. Always recoverable by fixing the input.
func NewValidationFailedError(field, message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: true,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftReadFailedError creates a draft load error. Logged only, never
// surfaced: the caller falls back to its default record.
func NewDraftReadFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftReadFailed,
		Message:   "Failed to read draft from store",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDraftWriteFailedError creates a draft save error. Logged only, never
// surfaced: the in-memory record stays authoritative.
func NewDraftWriteFailedError(key string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDraftWriteFailed,
		Message:   "Failed to write draft to store",
		Details:   fmt.Sprintf("key: %s, error: %s", key, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionFailedError creates a retryable submission service error.
func NewSubmissionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionFailed,
		Message:   "Submission service rejected or failed the request",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSubmissionTimeoutError creates a retryable submission timeout error.
func NewSubmissionTimeoutError() *StandardError {
	return &StandardError{
		Code:      ErrCodeSubmissionTimeout,
		Message:   "Submission service did not respond in time",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSuggestionFailedError creates a retryable suggestion service error.
func NewSuggestionFailedError(field string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSuggestionFailed,
		Message:   "Suggestion service failed",
		Details:   fmt.Sprintf("field: %s, error: %s", field, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewSuggestionTimeoutError creates a retryable suggestion timeout error.
func NewSuggestionTimeoutError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSuggestionTimeout,
		Message:   "Suggestion service did not respond in time",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: true,
		Metadata:  map[string]interface{}{"field": field},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidSuggestionFieldError creates a non-retryable client-side error for
// fields outside the narrative whitelist. No service call is made.
func NewInvalidSuggestionFieldError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidSuggestionField,
		Message:   "Suggestions are only available for narrative fields",
		Details:   fmt.Sprintf("field: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSuggestionInFlightError creates a non-retryable error for duplicate
// suggestion requests while one is already pending.
func NewSuggestionInFlightError(field string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSuggestionInFlight,
		Message:   "A suggestion request is already in progress",
		Details:   fmt.Sprintf("pendingField: %s", field),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidTransitionError creates a non-retryable wizard transition error.
func NewInvalidTransitionError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidTransition,
		Message:   "Operation not allowed in the current wizard step",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
