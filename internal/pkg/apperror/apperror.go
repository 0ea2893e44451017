package apperror

import (
	"errors"
	"fmt"
)

// Kind discriminates storage error categories. The REST layer maps kinds to
// status codes; the retry executor uses them to decide what is terminal.
type Kind string

const (
	KindValidation     Kind = "VALIDATION"
	KindNotFound       Kind = "NOT_FOUND"
	KindAccessDenied   Kind = "ACCESS_DENIED"
	KindRetryExhausted Kind = "RETRY_EXHAUSTED"
	KindOperation      Kind = "OPERATION"
)

// StorageError is the single error type surfaced by the persistence layer.
// Code is a machine-readable operation code (e.g. MESSAGE_CREATE_FAILED),
// Details carries debugging context that must stay out of client responses.
type StorageError struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]interface{}
	cause   error
}

func (e *StorageError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StorageError) Unwrap() error {
	return e.cause
}

func (e *StorageError) WithDetail(key string, value interface{}) *StorageError {
	if e.Details == nil {
		e.Details = map[string]interface{}{}
	}
	e.Details[key] = value
	return e
}

func Validation(field, message string) *StorageError {
	return &StorageError{
		Kind:    KindValidation,
		Code:    "VALIDATION_FAILED",
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

func NotFound(resource string) *StorageError {
	return &StorageError{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: resource + " not found",
	}
}

func AccessDenied(resource string) *StorageError {
	return &StorageError{
		Kind:    KindAccessDenied,
		Code:    "ACCESS_DENIED",
		Message: "access to " + resource + " denied",
	}
}

func RetryExhausted(operation string, cause error) *StorageError {
	return &StorageError{
		Kind:    KindRetryExhausted,
		Code:    "RETRY_EXHAUSTED",
		Message: fmt.Sprintf("operation %s failed after all retry attempts", operation),
		cause:   cause,
	}
}

// Operation wraps an unexpected storage failure under a stable per-operation code.
func Operation(code, message string, cause error) *StorageError {
	return &StorageError{
		Kind:    KindOperation,
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// KindOf extracts the Kind from err, unwrapping as needed.
// Returns KindOperation for errors that are not StorageErrors.
func KindOf(err error) Kind {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindOperation
}

// IsTerminal reports whether err must never be retried.
func IsTerminal(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindNotFound, KindAccessDenied:
		return true
	}
	return false
}

func IsValidation(err error) bool   { return KindOf(err) == KindValidation }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsAccessDenied(err error) bool { return KindOf(err) == KindAccessDenied }
