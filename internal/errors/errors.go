// Package errors provides unified error handling with typed error codes.
// Hardware-layer failures are translated into these codes at the boundary so
// that retry and recovery decisions key on the code, never on error strings.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies a failure for retry/recovery policy.
type Code int

const (
	CodeUnknown Code = iota
	CodeInternal
	CodeInvalidArgument
	CodeDeviceNotFound
	CodeDeviceZeroChannels
	CodeStreamOpenFailed
	CodeStreamStartFailed
	CodeEnumerationFailed
	CodeHALError
	CodePermissionDenied
	CodeRetryExhausted
	CodeUnknownFormat
	CodeNotRunning
	CodeAlreadyStarting
)

var codeNames = map[Code]string{
	CodeUnknown:            "UNKNOWN",
	CodeInternal:           "INTERNAL",
	CodeInvalidArgument:    "INVALID_ARGUMENT",
	CodeDeviceNotFound:     "DEVICE_NOT_FOUND",
	CodeDeviceZeroChannels: "DEVICE_ZERO_CHANNELS",
	CodeStreamOpenFailed:   "STREAM_OPEN_FAILED",
	CodeStreamStartFailed:  "STREAM_START_FAILED",
	CodeEnumerationFailed:  "ENUMERATION_FAILED",
	CodeHALError:           "HAL_ERROR",
	CodePermissionDenied:   "PERMISSION_DENIED",
	CodeRetryExhausted:     "RETRY_EXHAUSTED",
	CodeUnknownFormat:      "UNKNOWN_FORMAT",
	CodeNotRunning:         "NOT_RUNNING",
	CodeAlreadyStarting:    "ALREADY_STARTING",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// AppError is the base error type with structured code and metadata.
type AppError struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
	if len(e.Metadata) > 0 {
		s += fmt.Sprintf(" %v", e.Metadata)
	}
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *AppError) Unwrap() error { return e.Cause }

// New creates a new AppError with the given code and message.
func New(code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg}
}

// Newf creates a new AppError with formatted message.
func Newf(code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with an AppError.
func Wrap(err error, code Code, msg string) *AppError {
	return &AppError{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with formatted message.
func Wrapf(err error, code Code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WithMetadata adds metadata to an AppError.
func (e *AppError) WithMetadata(key, value string) *AppError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]string)
	}
	e.Metadata[key] = value
	return e
}

// CodeOf extracts the Code from any error in the chain, or CodeUnknown.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// IsCode checks if an error has a specific error code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// IsRetryable returns true if the error is a transient hardware condition
// worth retrying. Permission denial and retry exhaustion are terminal.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case CodeDeviceZeroChannels, CodeStreamOpenFailed, CodeStreamStartFailed,
		CodeEnumerationFailed, CodeHALError:
		return true
	default:
		return false
	}
}

// IsTerminal reports conditions that must halt automatic recovery.
func IsTerminal(err error) bool {
	switch CodeOf(err) {
	case CodePermissionDenied, CodeRetryExhausted:
		return true
	default:
		return false
	}
}
