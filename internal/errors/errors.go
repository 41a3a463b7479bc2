package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies a class of failure independent of its message
type Code string

const (
	CodeInvalidParameter   Code = "INVALID_PARAMETER"
	CodeValidationFailed   Code = "VALIDATION_FAILED"
	CodeSingularGamma      Code = "SINGULAR_GAMMA"
	CodeNonPositiveWealth  Code = "NON_POSITIVE_WEALTH"
	CodeZeroWeights        Code = "ZERO_WEIGHTS"
	CodeNegativeWeight     Code = "NEGATIVE_WEIGHT"
	CodeLengthMismatch     Code = "LENGTH_MISMATCH"
	CodeSingularVolatility Code = "SINGULAR_VOLATILITY"
	CodeUnknownControl     Code = "UNKNOWN_CONTROL"
	CodeOptimization       Code = "OPTIMIZATION_FAILED"
	CodeConfig             Code = "CONFIG_ERROR"
	CodeIO                 Code = "IO_ERROR"
	CodeInternal           Code = "INTERNAL_ERROR"
)

// Error is a structured error carrying a stable code
type Error struct {
	Code    Code        `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Cause   error       `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error with the same code.
// This lets the sentinel values below match errors built with extra details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// New creates a new Error with the given code and message
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewWithDetails creates a new Error with additional details
func NewWithDetails(code Code, message string, details interface{}) *Error {
	return &Error{Code: code, Message: message, Details: details}
}

// Wrap attaches a code and message to an underlying error
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Predefined sentinels, compared by code
var (
	ErrInvalidParameter   = New(CodeInvalidParameter, "invalid parameter value")
	ErrValidationFailed   = New(CodeValidationFailed, "parameter validation failed")
	ErrSingularGamma      = New(CodeSingularGamma, "risk aversion makes the formula singular")
	ErrNonPositiveWealth  = New(CodeNonPositiveWealth, "terminal wealth is not positive")
	ErrZeroWeights        = New(CodeZeroWeights, "probability weights sum to zero")
	ErrNegativeWeight     = New(CodeNegativeWeight, "probability weight is negative")
	ErrLengthMismatch     = New(CodeLengthMismatch, "probability and outcome vectors differ in length")
	ErrSingularVolatility = New(CodeSingularVolatility, "volatility must be non-zero")
	ErrUnknownControl     = New(CodeUnknownControl, "unknown control")
	ErrOptimization       = New(CodeOptimization, "optimization did not converge")
)

// ValidationError describes a single rejected field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return ve.Field + ": " + ve.Message
}

// ValidationErrors collects field-level failures
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors wraps field failures into a VALIDATION_FAILED error
func NewValidationErrors(errs []ValidationError) *Error {
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return NewWithDetails(
		CodeValidationFailed,
		"parameter validation failed: "+strings.Join(msgs, "; "),
		ValidationErrors{Errors: errs},
	)
}

// Fields returns the field-level failures carried by err, if any
func Fields(err error) []ValidationError {
	var e *Error
	if !errors.As(err, &e) {
		return nil
	}
	if ve, ok := e.Details.(ValidationErrors); ok {
		return ve.Errors
	}
	return nil
}

// CodeOf returns the code of the first *Error in the chain, or CodeInternal
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// ExitCode maps an error to a process exit status for command line tools
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch CodeOf(err) {
	case CodeInvalidParameter, CodeValidationFailed, CodeSingularGamma,
		CodeZeroWeights, CodeNegativeWeight, CodeLengthMismatch,
		CodeSingularVolatility, CodeUnknownControl, CodeNonPositiveWealth:
		return 2
	case CodeConfig:
		return 3
	case CodeIO:
		return 4
	default:
		return 1
	}
}
