package exitcode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/felixgeelhaar/roster/internal/api"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
	"github.com/felixgeelhaar/roster/internal/validate"
)

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		expected int
	}{
		{"Success", Success, 0},
		{"GeneralError", GeneralError, 1},
		{"UsageError", UsageError, 2},
		{"ValidationError", ValidationError, 3},
		{"AuthError", AuthError, 5},
		{"NetworkError", NetworkError, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.expected {
				t.Errorf("Exit code %s = %d, want %d", tt.name, tt.code, tt.expected)
			}
		})
	}
}

func TestDetermineExitCode(t *testing.T) {
	validationErr := validate.Login("nope", "123")
	dialErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "nil error returns success",
			err:      nil,
			expected: Success,
		},
		{
			name:     "local validation",
			err:      fmt.Errorf("add employee: %w", validationErr),
			expected: ValidationError,
		},
		{
			name:     "auth required",
			err:      rerrors.NewAuthRequiredError(),
			expected: AuthError,
		},
		{
			name:     "unauthorized response",
			err:      &api.Error{Kind: api.KindUnauthorized, Status: 401},
			expected: AuthError,
		},
		{
			name:     "expired session wraps unauthorized",
			err:      rerrors.NewAuthExpiredError(&api.Error{Kind: api.KindUnauthorized, Status: 401}),
			expected: AuthError,
		},
		{
			name:     "server failure",
			err:      &api.Error{Kind: api.KindFailed, Status: 500},
			expected: NetworkError,
		},
		{
			name:     "rejected request",
			err:      &api.Error{Kind: api.KindRejected, Status: 404},
			expected: GeneralError,
		},
		{
			name:     "unreachable API",
			err:      rerrors.NewAPIUnreachableError("http://localhost:5000", dialErr),
			expected: NetworkError,
		},
		{
			name:     "raw dial error",
			err:      fmt.Errorf("list: %w", dialErr),
			expected: NetworkError,
		},
		{
			name:     "unknown config key",
			err:      rerrors.NewConfigKeyError("nope", nil),
			expected: UsageError,
		},
		{
			name:     "cobra unknown flag",
			err:      errors.New("unknown flag: --foo"),
			expected: UsageError,
		},
		{
			name:     "cobra arg count",
			err:      errors.New("accepts 1 arg(s), received 0"),
			expected: UsageError,
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			expected: GeneralError,
		},
		{
			name:     "generic error",
			err:      errors.New("something went wrong"),
			expected: GeneralError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetermineExitCode(tt.err); got != tt.expected {
				t.Errorf("DetermineExitCode(%v) = %d, want %d", tt.err, got, tt.expected)
			}
		})
	}
}

func TestGetExitCodeDescription(t *testing.T) {
	for _, code := range []int{Success, GeneralError, UsageError, ValidationError, AuthError, NetworkError} {
		if d := GetExitCodeDescription(code); d == "" || d == "Unknown error" {
			t.Errorf("missing description for code %d", code)
		}
	}
	if d := GetExitCodeDescription(42); d != "Unknown error" {
		t.Errorf("GetExitCodeDescription(42) = %q, want Unknown error", d)
	}
}
