package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// InvalidRequest creates an error for a non-positive demand.
func InvalidRequest(n int64) *AppError {
	return &AppError{
		Code: ErrCodeInvalidRequest, Message: fmt.Sprintf("request amount must be positive (got %d)", n),
		Details: map[string]any{"n": n},
	}
}

// MalformedSource creates an error describing a signal received after termination.
func MalformedSource(stage, signal string) *AppError {
	return &AppError{
		Code: ErrCodeMalformedSource, Message: fmt.Sprintf("%s signalled %s after terminating", stage, signal),
		Details: map[string]any{"stage": stage, "signal": signal},
	}
}

// Cancelled creates an error for a subscription cancelled before it resolved.
func Cancelled(stage string) *AppError {
	return &AppError{
		Code: ErrCodeCancelled, Message: fmt.Sprintf("subscription to %s was cancelled", stage),
		Details: map[string]any{"stage": stage},
	}
}

// RecordFailed wraps a failure raised by a registry backend.
func RecordFailed(metric string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeRecordFailed, Message: fmt.Sprintf("recording %s failed", metric),
		Retryable: true, Details: map[string]any{"metric": metric}, Cause: cause,
	}
}

// BackendInit wraps a failure to set up a metrics backend.
func BackendInit(backend string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeBackendInit, Message: fmt.Sprintf("initializing %s backend failed", backend),
		Retryable: true, Details: map[string]any{"backend": backend}, Cause: cause,
	}
}

// InvalidConfig creates an error for a configuration field that failed validation.
func InvalidConfig(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfig, Message: fmt.Sprintf("invalid configuration: %s", reason),
		Details: details,
	}
}

// UnsupportedBackend creates an error for an unknown metrics backend name.
func UnsupportedBackend(name string) *AppError {
	return &AppError{
		Code: ErrCodeUnsupportedBackend, Message: fmt.Sprintf("unsupported metrics backend %q", name),
		Details: map[string]any{"backend": name},
	}
}

// Internal creates an error for an unexpected failure, such as a recovered panic.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}

// FromPanic converts a recovered panic value into an Internal error.
func FromPanic(r any) *AppError {
	if err, ok := r.(error); ok {
		return Internal(err)
	}
	return Internal(fmt.Errorf("panic: %v", r))
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
