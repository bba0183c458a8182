package botsy

import (
	"errors"
	"fmt"
)

// Sentinel errors for botsy. Use errors.Is to check.
var (
	ErrValidation = errors.New("validation failed")
	ErrShutdown   = errors.New("registry is shutting down")
)

// ClientError is an error whose message should be shown to the caller for
// self-correction (e.g. a bad enum value or a business-rule violation from a
// Validatable argument struct). Do not put stack traces or internal details in
// Reason. Err optionally wraps a sentinel (e.g. ErrValidation) for errors.Is.
type ClientError struct {
	Reason string
	// Retryable is set by the application (not by botsy). When true, the
	// dispatcher may retry the same call without changing arguments.
	Retryable bool
	Err       error // wrapped sentinel for errors.Is/errors.As
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

// Unwrap supports errors.Is/errors.As on wrapped chains.
func (e *ClientError) Unwrap() error { return e.Err }

// SystemError represents an internal failure (network down, panic, etc.).
// The caller never sees the underlying error message or stack.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError returns true if err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError returns true if err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

// wrapDecodeError returns a ClientError for JSON decode failures so the caller
// sees a consistent, correctable message from every typed tool.
func wrapDecodeError(err error) error {
	return &ClientError{Reason: "arguments decode error: " + err.Error(), Err: ErrValidation}
}
