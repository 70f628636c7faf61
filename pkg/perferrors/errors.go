// Package perferrors provides structured, categorized errors for the model
// performance harness.
//
// Errors carry a type that decides how the harness reacts to them:
//   - ErrorTypeConfig and ErrorTypeLayout abort the run before any timing begins
//   - ErrorTypeModule is scoped to one scoring module; the module is skipped
//   - ErrorTypeVerification marks a structurally broken module output
//   - everything else propagates to the command and ends the process
//
// # Basic Usage
//
//	if blockSize == 0 {
//	    return perferrors.New(perferrors.ErrorTypeConfig, "empty pool")
//	}
//
//	if err := dec.Decode(&m); err != nil {
//	    return perferrors.Wrap(err, perferrors.ErrorTypeData, "failed to decode model").
//	        WithDetail("path", path)
//	}
package perferrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error.
type ErrorType string

const (
	// ErrorTypeInternal represents internal failures, including recovered panics
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents missing or invalid run configuration
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeLayout represents a dataset that cannot provide the requested memory layout
	ErrorTypeLayout ErrorType = "layout"
	// ErrorTypeModule represents a scoring module that could not be constructed or run
	ErrorTypeModule ErrorType = "module"
	// ErrorTypeData represents malformed dataset, column description or model content
	ErrorTypeData ErrorType = "data"
	// ErrorTypeFile represents file operation errors
	ErrorTypeFile ErrorType = "file"
	// ErrorTypeVerification represents outputs that cannot be compared to the canonical reference
	ErrorTypeVerification ErrorType = "verification"
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, capturing the call
// stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf is New with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error its
// stack trace is kept. Returns nil if err is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsType checks if any error in the chain is a structured Error of the given type.
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == errType {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetType returns the type of the outermost structured Error, or
// ErrorTypeInternal when err is not one.
func GetType(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// IsFatal reports whether an error must abort the run. Only module
// construction failures are recoverable.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return GetType(err) != ErrorTypeModule
}

func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
