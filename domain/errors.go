package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeInvalid      ErrorCode = "INVALID"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal     ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Invalid reports a caller-correctable validation failure. Validation errors
// are raised before the snapshot is touched, so a rejected request leaves no
// partial writes behind.
func Invalid(format string, args ...interface{}) *Error {
	return &Error{Code: ErrCodeInvalid, Message: fmt.Sprintf(format, args...)}
}

// Integrity reports a broken invariant: an id the indices claim exists is
// missing, a policy tag reached an impossible branch. The enclosing
// transaction must not save after seeing one of these.
func Integrity(format string, args ...interface{}) *Error {
	return &Error{Code: ErrCodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Common domain errors.
var (
	ErrUserNotFound     = NewError(ErrCodeNotFound, "user not found")
	ErrPlanNotFound     = NewError(ErrCodeNotFound, "plan not found")
	ErrScheduleNotFound = NewError(ErrCodeNotFound, "schedule not found")
	ErrGoalNotFound     = NewError(ErrCodeNotFound, "goal not found")
	ErrMetricNotFound   = NewError(ErrCodeNotFound, "metric not found")
	ErrTaskNotFound     = NewError(ErrCodeNotFound, "task not found")
	ErrSubTaskNotFound  = NewError(ErrCodeNotFound, "subtask not found")
	ErrVacationNotFound = NewError(ErrCodeNotFound, "vacation not found")
	ErrUnauthorized     = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload   = NewError(ErrCodeInvalid, "invalid payload")
	ErrVersionConflict  = NewError(ErrCodeConflict, "snapshot version already exists")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
