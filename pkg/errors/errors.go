// Package errors provides structured error types for grunt.
//
// Every failure that can surface from axis construction, border configuration,
// layer validation or the outer surfaces (recipes, exports, the HTTP API) is an
// *Error carrying a machine-readable [Code]. Callers match on codes rather
// than on message text:
//
//	ax, err := axis.GenerateOnEdges(5, 1, nil)
//	if errors.Is(err, errors.ErrCodeInvalidRange) {
//	    // start was not below end
//	}
//
// # Error Codes
//
// Codes follow the naming of the failure they describe:
//   - axis construction: INVALID_RANGE, TOO_SMALL_STEP, NOT_ORDERED_VEC, ...
//   - border configuration: INCORRECT_BORDERS_*
//   - fill configuration: INCORRECT_FILL_LIMITS, NOT_ENOUGH_FILL_VALUES
//   - generation: LAYER_VALIDATION
//   - outer surfaces: INVALID_INPUT, INVALID_FORMAT, INVALID_NAME, NOT_FOUND
//   - size limits: TOO_LARGE
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Axis construction errors.
const (
	ErrCodeInvalidRange      Code = "INVALID_RANGE"
	ErrCodeTooSmallStep      Code = "TOO_SMALL_STEP"
	ErrCodeNotOrderedVec     Code = "NOT_ORDERED_VEC"
	ErrCodeTooSmallVec       Code = "TOO_SMALL_VEC"
	ErrCodeMinimalStep       Code = "MINIMAL_STEP"
	ErrCodeNotEnoughElements Code = "NOT_ENOUGH_ELEMENTS"
)

// Border and fill configuration errors.
const (
	ErrCodeIncorrectBordersCount  Code = "INCORRECT_BORDERS_COUNT"
	ErrCodeIncorrectBordersLimits Code = "INCORRECT_BORDERS_LIMITS"
	ErrCodeIncorrectBordersTypes  Code = "INCORRECT_BORDERS_TYPES"
	ErrCodeIncorrectFillLimits    Code = "INCORRECT_FILL_LIMITS"
	ErrCodeNotEnoughFillValues    Code = "NOT_ENOUGH_FILL_VALUES"
)

// Generation and surface errors.
const (
	ErrCodeLayerValidation Code = "LAYER_VALIDATION"

	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidFormat Code = "INVALID_FORMAT"
	ErrCodeInvalidName   Code = "INVALID_NAME"
	ErrCodeNotFound      Code = "NOT_FOUND"
	ErrCodeTooLarge      Code = "TOO_LARGE"
	ErrCodeInternal      Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
