package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Subscription protocol errors
const (
	// ErrCodeInvalidRequest indicates a non-positive demand was requested.
	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	// ErrCodeMalformedSource indicates a source signalled after it terminated.
	ErrCodeMalformedSource ErrorCode = "MALFORMED_SOURCE"
	// ErrCodeCancelled indicates the subscription was cancelled before resolving.
	ErrCodeCancelled ErrorCode = "CANCELLED"
)

// Backend errors (retryable)
const (
	// ErrCodeRecordFailed indicates a registry backend rejected a measurement.
	ErrCodeRecordFailed ErrorCode = "RECORD_FAILED"
	// ErrCodeBackendInit indicates a metrics backend could not be initialized.
	ErrCodeBackendInit ErrorCode = "BACKEND_INIT_FAILED"
)

// Configuration errors
const (
	// ErrCodeInvalidConfig indicates the configuration failed validation.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeUnsupportedBackend indicates an unknown metrics backend was requested.
	ErrCodeUnsupportedBackend ErrorCode = "UNSUPPORTED_BACKEND"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeRecordFailed: true,
	ErrCodeBackendInit:  true,
	ErrCodeInternal:     false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
