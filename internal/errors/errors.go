package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeEntitlementDenied  = "ENTITLEMENT_DENIED"
	ErrCodeChallengeInactive  = "CHALLENGE_INACTIVE"
	ErrCodeAttemptInProgress  = "ATTEMPT_IN_PROGRESS"
	ErrCodeInvalidTransition  = "INVALID_TRANSITION"
	ErrCodeMalformedBreakdown = "MALFORMED_BREAKDOWN"
	ErrCodeEvaluationTimeout  = "EVALUATION_TIMEOUT"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string         // Error code (e.g., "NOT_FOUND", "ENTITLEMENT_DENIED")
	Message string         // Human-readable error message
	Status  int            // HTTP status code
	Details map[string]any // Extra context shown to the caller (quota usage, cause)
	Err     error          // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so callers can write
// errors.Is(err, &AppError{Code: ErrCodeInvalidTransition}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewUnauthorizedError creates a new UNAUTHORIZED error
func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
		Status:  401,
	}
}

// NewEntitlementDeniedError reports a denied attempt together with the quota
// usage that caused it.
func NewEntitlementDeniedError(reason string, used, limit int, resetsAt any) *AppError {
	return &AppError{
		Code:    ErrCodeEntitlementDenied,
		Message: fmt.Sprintf("attempt not allowed: %s (%d/%d used this week)", reason, used, limit),
		Status:  403,
		Details: map[string]any{
			"reason":    reason,
			"used":      used,
			"limit":     limit,
			"resets_at": resetsAt,
		},
	}
}

// NewChallengeInactiveError is returned when a challenge is not published or deactivated.
func NewChallengeInactiveError(challengeID int64) *AppError {
	return &AppError{
		Code:    ErrCodeChallengeInactive,
		Message: fmt.Sprintf("challenge %d is not currently active", challengeID),
		Status:  409,
		Details: map[string]any{"challenge_id": challengeID},
	}
}

// NewAttemptInProgressError is returned when the user already has an
// unfinished attempt on the challenge.
func NewAttemptInProgressError(submissionID string) *AppError {
	return &AppError{
		Code:    ErrCodeAttemptInProgress,
		Message: "an attempt for this challenge is still being processed",
		Status:  409,
		Details: map[string]any{"submission_id": submissionID},
	}
}

// NewInvalidTransitionError reports a rejected state change. The message is
// deliberately generic; the caller may safely retry a read.
func NewInvalidTransitionError(submissionID, from, to string) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidTransition,
		Message: "submission state changed concurrently; refresh and retry",
		Status:  409,
		Details: map[string]any{
			"submission_id": submissionID,
			"from":          from,
			"to":            to,
		},
	}
}

// NewMalformedBreakdownError reports an evaluator contract violation.
func NewMalformedBreakdownError(criterion, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedBreakdown,
		Message: fmt.Sprintf("malformed score breakdown for %q: %s", criterion, reason),
		Status:  422,
		Details: map[string]any{"criterion": criterion, "reason": reason},
	}
}

// NewEvaluationTimeoutError reports that grading did not finish in time.
func NewEvaluationTimeoutError(submissionID string) *AppError {
	return &AppError{
		Code:    ErrCodeEvaluationTimeout,
		Message: "evaluation did not finish before the deadline",
		Status:  504,
		Details: map[string]any{"submission_id": submissionID},
	}
}
