package health

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/felixgeelhaar/roster/internal/api"
	"github.com/felixgeelhaar/roster/internal/session"
)

// APIChecker calls a cheap authenticated endpoint. A refused token still
// proves the server is up.
type APIChecker struct {
	BaseURL string
	Probe   func(ctx context.Context) error
}

func (c APIChecker) Name() string { return "employee-api" }

func (c APIChecker) Check(ctx context.Context) *Result {
	err := c.Probe(ctx)
	if err == nil {
		return Healthy("reachable").WithDetail("url", c.BaseURL)
	}

	var aerr *api.Error
	if !errors.As(err, &aerr) {
		return Unhealthy(err.Error()).WithDetail("url", c.BaseURL)
	}
	res := Unhealthy("request failed")
	switch {
	case aerr.Kind == api.KindUnauthorized:
		res = Degraded("reachable, but the session was refused")
	case aerr.Kind == api.KindRejected:
		res = Degraded("reachable, but the request was rejected")
	case aerr.Status == 0:
		res = Unhealthy("unreachable")
	}
	res.WithDetail("url", c.BaseURL)
	if aerr.Status > 0 {
		res.WithDetail("status", strconv.Itoa(aerr.Status))
	}
	if aerr.Err != nil {
		res.WithDetail("error", aerr.Err.Error())
	}
	return res
}

// SessionChecker reports whether a token is stored and, for JWTs, whether
// it has expired.
type SessionChecker struct {
	Session *session.Session
	Now     func() time.Time
}

func (c SessionChecker) Name() string { return "session" }

func (c SessionChecker) Check(ctx context.Context) *Result {
	token, ok := c.Session.Token()
	if !ok {
		return Degraded("not logged in")
	}
	claims, ok := session.Inspect(token)
	if !ok || claims.ExpiresAt == nil {
		return Healthy("token stored")
	}

	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	exp := claims.ExpiresAt.UTC().Format(time.RFC3339)
	if now().After(*claims.ExpiresAt) {
		return Degraded("token expired").WithDetail("expires_at", exp)
	}
	return Healthy("token stored").WithDetail("expires_at", exp)
}

// DirChecker verifies that files can be created in Dir.
type DirChecker struct {
	Label string
	Dir   string
}

func (c DirChecker) Name() string { return c.Label }

func (c DirChecker) Check(ctx context.Context) *Result {
	dir := c.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Unhealthy("cannot create directory").WithDetail("dir", dir).WithDetail("error", err.Error())
	}
	f, err := os.CreateTemp(dir, ".roster-doctor-*")
	if err != nil {
		return Unhealthy("directory is not writable").WithDetail("dir", dir).WithDetail("error", err.Error())
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return Healthy("writable").WithDetail("dir", abs)
}
