package api

import (
	"errors"
	"fmt"
)

// Kind classifies a failed request.
type Kind int

const (
	// KindFailed covers 5xx answers, transport failures and undecodable bodies.
	KindFailed Kind = iota
	// KindUnauthorized is a 401: the session is no longer valid.
	KindUnauthorized
	// KindRejected is any other 4xx; the server usually says why.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindRejected:
		return "rejected"
	default:
		return "failed"
	}
}

// Sentinels for errors.Is.
var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrRejected      = errors.New("request rejected")
	ErrRequestFailed = errors.New("request failed")
)

// Error is returned by every Client operation that fails.
type Error struct {
	Kind    Kind
	Op      string
	Method  string
	Path    string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0 && e.Message != "":
		return fmt.Sprintf("%s: %s %s: %d %s", e.Op, e.Method, e.Path, e.Status, e.Message)
	case e.Status > 0:
		return fmt.Sprintf("%s: %s %s: status %d", e.Op, e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.Path, e.Err)
	default:
		return fmt.Sprintf("%s: %s %s: %s", e.Op, e.Method, e.Path, e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case ErrRejected:
		return e.Kind == KindRejected
	case ErrRequestFailed:
		return e.Kind == KindFailed
	}
	return false
}

// LogAttrs exposes the full detail for structured logs; user-facing
// messages stay generic.
func (e *Error) LogAttrs() []any {
	attrs := []any{"api_kind", e.Kind.String(), "api_op", e.Op, "http_method", e.Method, "http_path", e.Path}
	if e.Status > 0 {
		attrs = append(attrs, "http_status", e.Status)
	}
	if e.Message != "" {
		attrs = append(attrs, "server_message", e.Message)
	}
	return attrs
}

// KindOf returns the kind of err, and false when err is not an *Error.
func KindOf(err error) (Kind, bool) {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr.Kind, true
	}
	return KindFailed, false
}

func kindForStatus(status int) Kind {
	switch {
	case status == 401:
		return KindUnauthorized
	case status >= 400 && status < 500:
		return KindRejected
	default:
		return KindFailed
	}
}
