// Package errors provides standardized error handling for workflow stages.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationStageFailed ErrorCode = "VALIDATION_STAGE_FAILED"
	ErrCodeDuplicateCheckFailed  ErrorCode = "DUPLICATE_CHECK_FAILED"
	ErrCodeDecisionFailed        ErrorCode = "DECISION_EVALUATION_FAILED"
	ErrCodeTemplateNotFound      ErrorCode = "TEMPLATE_NOT_FOUND"

	ErrCodeLedgerReadFailed    ErrorCode = "LEDGER_READ_FAILED"
	ErrCodeLedgerWriteFailed   ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeContactUpdateFailed ErrorCode = "CONTACT_UPDATE_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeStageTimeout ErrorCode = "STAGE_TIMEOUT"
)

// StandardError represents a structured stage error. Retryable marks a
// transient failure the step runner may retry under the stage's policy;
// non-retryable errors are terminal for the attempt sequence.
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

// StageFailure is the run-failed infrastructure outcome: a stage exhausted
// its retries or step timeout. It is distinct from the business outcomes
// (error/duplicate/success) which are returned as data, never as errors.
type StageFailure struct {
	Stage    string
	Attempts int
	Cause    error
}

func (e *StageFailure) Error() string {
	return fmt.Sprintf("stage %s failed after %d attempt(s): %v", e.Stage, e.Attempts, e.Cause)
}

func (e *StageFailure) Unwrap() error {
	return e.Cause
}

// IsStageFailure reports whether err is (or wraps) a StageFailure.
func IsStageFailure(err error) bool {
	var sf *StageFailure
	return errors.As(err, &sf)
}

// IsRetryable classifies an error as transient. StandardErrors carry an
// explicit flag; anything else defaults to transient, matching the durable
// substrate's treatment of unclassified failures.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return true
}

// ==========================
// Error Constructors
// ==========================

// NewValidationStageFailedError creates a retryable validation infrastructure error.
// Validation defects themselves are reported as data, not through this error.
func NewValidationStageFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationStageFailed,
		Message:   "Validation stage execution failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDuplicateCheckFailedError creates a retryable ledger read error during
// the duplicate check.
func NewDuplicateCheckFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDuplicateCheckFailed,
		Message:   "Ledger error during duplicate check",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDecisionFailedError creates a retryable decision evaluation error.
func NewDecisionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDecisionFailed,
		Message:   "Credit decision evaluation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable message template error.
func NewTemplateNotFoundError(decision string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Decision message template not found",
		Details:   fmt.Sprintf("decision: %s", decision),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerReadFailedError creates a retryable ledger load error.
func NewLedgerReadFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerReadFailed,
		Message:   "Ledger read operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerWriteFailedError creates a retryable ledger write error.
func NewLedgerWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerWriteFailed,
		Message:   "Ledger write operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewContactUpdateFailedError creates a retryable contact preference update error.
func NewContactUpdateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContactUpdateFailed,
		Message:   "Contact preference update failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewStageTimeoutError creates a non-retryable step timeout error: once the
// stage's absolute timeout elapsed there is no budget left for another attempt.
func NewStageTimeoutError(stage string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeStageTimeout,
		Message:   fmt.Sprintf("Stage '%s' exceeded its step timeout", stage),
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}
