package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthRequired       ErrorCode = "AUTH-001"
	ErrCodeAuthInvalid        ErrorCode = "AUTH-002"
	ErrCodeAuthExpired        ErrorCode = "AUTH-003"
	ErrCodeSessionStoreFailed ErrorCode = "AUTH-004"

	// Validation errors (VALID-001 to VALID-099)
	ErrCodeValidationFailed ErrorCode = "VALID-001"
	ErrCodeInvalidArgument  ErrorCode = "VALID-002"

	// API errors (API-001 to API-099)
	ErrCodeAPIRejected    ErrorCode = "API-001"
	ErrCodeAPIFailed      ErrorCode = "API-002"
	ErrCodeAPIUnreachable ErrorCode = "API-003"

	// Export errors (EXPORT-001 to EXPORT-099)
	ErrCodeExportFailed ErrorCode = "EXPORT-001"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid    ErrorCode = "CONFIG-001"
	ErrCodeConfigReadFailed ErrorCode = "CONFIG-002"
	ErrCodeConfigKeyUnknown ErrorCode = "CONFIG-003"
)

// RosterError is an error with a code, recovery suggestions and an optional cause
type RosterError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	Cause       error
}

// Error implements the error interface
func (e *RosterError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *RosterError) Unwrap() error {
	return e.Cause
}

// New creates a new RosterError
func New(code ErrorCode, message string) *RosterError {
	return &RosterError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new RosterError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *RosterError {
	return &RosterError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *RosterError) WithSuggestion(suggestion string) *RosterError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *RosterError) WithSuggestions(suggestions ...string) *RosterError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// Common error constructors

// NewAuthRequiredError is returned when a protected command runs without a session
func NewAuthRequiredError() *RosterError {
	return New(ErrCodeAuthRequired, "not logged in").
		WithSuggestion("Run 'roster login' to start a session")
}

// NewAuthExpiredError is returned when the server rejected the stored token
func NewAuthExpiredError(cause error) *RosterError {
	return Wrap(ErrCodeAuthExpired, "session is no longer valid", cause).
		WithSuggestion("Run 'roster login' to sign in again")
}

// NewInvalidCredentialsError is the single user-facing login failure
func NewInvalidCredentialsError(cause error) *RosterError {
	return Wrap(ErrCodeAuthInvalid, "invalid credentials", cause)
}

// NewValidationError wraps local validation messages
func NewValidationError(cause error) *RosterError {
	return Wrap(ErrCodeValidationFailed, "input is invalid", cause)
}

// NewAPIUnreachableError creates an error for transport failures
func NewAPIUnreachableError(baseURL string, cause error) *RosterError {
	return Wrap(ErrCodeAPIUnreachable, fmt.Sprintf("cannot reach employee API at %s", baseURL), cause).
		WithSuggestion("Check that the API server is running").
		WithSuggestion("Set --api-url or ROSTER_API_URL to the correct address")
}

// NewConfigKeyError creates an error for unknown configuration keys
func NewConfigKeyError(key string, known []string) *RosterError {
	return New(ErrCodeConfigKeyUnknown, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Known keys: " + strings.Join(known, ", "))
}
