package exitcode

import (
	"errors"
	"net"
	"os"
	"strings"

	"github.com/felixgeelhaar/roster/internal/api"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
	"github.com/felixgeelhaar/roster/internal/validate"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// ValidationError indicates input rejected before any request was sent
	ValidationError = 3

	// AuthError indicates a missing, rejected or expired session
	AuthError = 5

	// NetworkError indicates the API could not be reached or failed server-side
	NetworkError = 6
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error chain to an exit code
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	if validate.IsValidation(err) {
		return ValidationError
	}

	var rerr *rerrors.RosterError
	if errors.As(err, &rerr) {
		switch {
		case strings.HasPrefix(string(rerr.Code), "AUTH-"):
			return AuthError
		case strings.HasPrefix(string(rerr.Code), "VALID-"):
			return ValidationError
		case rerr.Code == rerrors.ErrCodeAPIUnreachable:
			return NetworkError
		case strings.HasPrefix(string(rerr.Code), "CONFIG-"):
			return UsageError
		}
	}

	if kind, ok := api.KindOf(err); ok {
		switch kind {
		case api.KindUnauthorized:
			return AuthError
		case api.KindFailed:
			return NetworkError
		default:
			return GeneralError
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return NetworkError
	}

	if isUsage(err) {
		return UsageError
	}

	return GeneralError
}

// cobra reports argument and flag problems as plain errors
func isUsage(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "invalid argument", "required flag", "flag needs an argument"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return strings.Contains(msg, "arg(s), received")
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or configuration)"
	case ValidationError:
		return "Validation error"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network or server error"
	default:
		return "Unknown error"
	}
}
