package ux

import (
	"context"
	"errors"
	"fmt"

	"github.com/felixgeelhaar/roster/internal/api"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
	"github.com/felixgeelhaar/roster/internal/validate"
)

// EnhanceError turns a raw error into a coded RosterError with recovery
// suggestions. Errors that already carry a code are returned unchanged.
func EnhanceError(err error, baseURL string) error {
	if err == nil {
		return nil
	}

	var rerr *rerrors.RosterError
	if errors.As(err, &rerr) {
		return err
	}

	if validate.IsValidation(err) {
		return rerrors.NewValidationError(err)
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	var aerr *api.Error
	if !errors.As(err, &aerr) {
		return err
	}

	switch aerr.Kind {
	case api.KindUnauthorized:
		return rerrors.NewAuthExpiredError(err)
	case api.KindRejected:
		msg := "request rejected by the server"
		if aerr.Message != "" {
			msg = aerr.Message
		}
		return rerrors.Wrap(rerrors.ErrCodeAPIRejected, msg, err)
	default:
		if aerr.Status == 0 {
			return rerrors.NewAPIUnreachableError(baseURL, err)
		}
		return rerrors.Wrap(rerrors.ErrCodeAPIFailed, "the employee API failed", err).
			WithSuggestion("Retry in a moment; see the log for details")
	}
}

// FormatError provides consistent error formatting with context
func FormatError(err error, context, baseURL string) error {
	if err == nil {
		return nil
	}

	enhanced := EnhanceError(err, baseURL)
	if context != "" {
		return fmt.Errorf("%s: %w", context, enhanced)
	}
	return enhanced
}
