package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Invalid input
	ErrCatUpstream   ErrorCategory = "upstream"   // Auxiliary collaborator unreachable or malformed
	ErrCatAgent      ErrorCategory = "agent"      // Required scoring agent failed
	ErrCatExtraction ErrorCategory = "extraction" // Extraction collaborator failed
	ErrCatSession    ErrorCategory = "session"    // Session state anomaly
	ErrCatTimeout    ErrorCategory = "timeout"    // Operation timed out
	ErrCatTransport  ErrorCategory = "transport"  // Wire-level failure
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the coordination core.
// Recoverable errors are absorbed as empty contributions by the coordinator;
// non-recoverable errors fail the whole request.
type DomainError struct {
	Category    ErrorCategory
	Code        string
	Message     string
	Recoverable bool
	Cause       error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// ErrUpstream creates a recoverable error for an unavailable or malformed
// auxiliary collaborator. The pipeline degrades to an empty contribution.
func ErrUpstream(code, message string) *DomainError {
	return &DomainError{
		Category:    ErrCatUpstream,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// ErrRequiredAgent creates a fatal error for a scoring-agent failure. No
// ranking can be produced from one side's data alone in the paired round-2
// protocol.
func ErrRequiredAgent(agent, message string) *DomainError {
	return &DomainError{
		Category:    ErrCatAgent,
		Code:        "REQUIRED_AGENT_FAILED",
		Message:     fmt.Sprintf("%s: %s", agent, message),
		Recoverable: false,
	}
}

// ErrExtraction creates a fatal error for the extraction collaborator.
func ErrExtraction(message string) *DomainError {
	return &DomainError{
		Category:    ErrCatExtraction,
		Code:        "EXTRACTION_FAILED",
		Message:     message,
		Recoverable: false,
	}
}

// ErrSessionMiss creates a recoverable error for a round-2 message with no
// stored round-1 snapshot.
func ErrSessionMiss(key string) *DomainError {
	return &DomainError{
		Category:    ErrCatSession,
		Code:        "SESSION_MISS",
		Message:     fmt.Sprintf("no round-1 snapshot for session %s", key),
		Recoverable: true,
	}
}

// ErrTimeout creates a recoverable timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:    ErrCatTimeout,
		Code:        "TIMEOUT",
		Message:     message,
		Recoverable: true,
	}
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:    ErrCatValidation,
		Code:        code,
		Message:     message,
		Recoverable: false,
	}
}

// ErrTransport creates a wire-level error.
func ErrTransport(message string) *DomainError {
	return &DomainError{
		Category:    ErrCatTransport,
		Code:        "TRANSPORT",
		Message:     message,
		Recoverable: false,
	}
}

// ErrInternal creates an internal error.
func ErrInternal(message string) *DomainError {
	return &DomainError{
		Category:    ErrCatInternal,
		Code:        "INTERNAL",
		Message:     message,
		Recoverable: false,
	}
}

// IsRecoverable reports whether err may be absorbed as an empty contribution.
func IsRecoverable(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Recoverable
	}
	return false
}

// CategoryOf returns the category of err, or ErrCatInternal for foreign errors.
func CategoryOf(err error) ErrorCategory {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Category
	}
	return ErrCatInternal
}
