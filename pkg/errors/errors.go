package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss          = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// AggregationError reports score increments that could not be applied after
// the status transition already committed. The student ids it carries are the
// ones whose behavior_score is now stale and needs a corrective re-run;
// UpdatedCount is the number of rows whose status flip did commit.
type AggregationError struct {
	StudentIDs   []int64
	UpdatedCount int
	Err          error
}

// Error implements the error interface.
func (e *AggregationError) Error() string {
	return fmt.Sprintf("%d status update(s) committed but score aggregation failed for %d student(s) %v: %v",
		e.UpdatedCount, len(e.StudentIDs), e.StudentIDs, e.Err)
}

// Unwrap returns the underlying store error.
func (e *AggregationError) Unwrap() error {
	return e.Err
}

// NewAggregationError builds an AggregationError for the given students.
func NewAggregationError(studentIDs []int64, updatedCount int, err error) *AggregationError {
	return &AggregationError{StudentIDs: studentIDs, UpdatedCount: updatedCount, Err: err}
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	var agg *AggregationError
	if errors.As(err, &agg) {
		return Wrap(agg, "AGGREGATION_FAILED", http.StatusInternalServerError, agg.Error())
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
