// Package errors provides structured error types for the estimation pipeline.
// Errors carry a stable code and optional details so that the CLI can report
// failures consistently and tests can assert on the failure category.
package errors

import (
	"errors"
	"fmt"
)

// Code identifies the pipeline stage a failure belongs to.
type Code string

const (
	// CodeConfig indicates invalid or unloadable configuration.
	CodeConfig Code = "CONFIG"
	// CodeData indicates a problem reading or cleaning the input panel.
	CodeData Code = "DATA"
	// CodeEstimation indicates a failure inside the likelihood optimization
	// or the variance computation.
	CodeEstimation Code = "ESTIMATION"
	// CodeExport indicates a failure writing results.
	CodeExport Code = "EXPORT"
)

// Error is a coded error with optional structured details.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is/errors.As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a new coded error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message.
// Returns nil if err is nil.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// WithDetail attaches a detail key/value pair and returns the error for chaining.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeOf extracts the Code from an error chain, or "" if none is present.
func CodeOf(err error) Code {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
