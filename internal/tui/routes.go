package tui

import (
	"github.com/felixgeelhaar/roster/internal/session"
)

// Route is a named screen path.
type Route string

const (
	RouteLogin     Route = "/login"
	RouteRegister  Route = "/register"
	RouteEmployees Route = "/employees"
)

// Protected reports whether the route needs a session.
func (r Route) Protected() bool {
	return r == RouteEmployees
}

// GuardState is the route guard's view of a protected screen.
type GuardState int

const (
	GuardChecking GuardState = iota
	GuardAuthenticated
	GuardRedirecting
)

func (s GuardState) String() string {
	switch s {
	case GuardAuthenticated:
		return "authenticated"
	case GuardRedirecting:
		return "redirecting"
	default:
		return "checking"
	}
}

// Guard gates protected screens on the session. It starts in checking
// and is re-evaluated on mount and on every session event.
type Guard struct {
	state GuardState
}

// State returns the current guard state.
func (g *Guard) State() GuardState { return g.state }

// Evaluate moves the guard to authenticated or redirecting.
func (g *Guard) Evaluate(authenticated bool) GuardState {
	if authenticated {
		g.state = GuardAuthenticated
	} else {
		g.state = GuardRedirecting
	}
	return g.state
}

// Reset returns the guard to checking for the next mount.
func (g *Guard) Reset() { g.state = GuardChecking }

// Resolve returns where navigating to target actually lands.
func Resolve(target Route, authenticated bool) Route {
	if target.Protected() && !authenticated {
		return RouteLogin
	}
	return target
}

// SessionChangedMsg is delivered after every session change.
type SessionChangedMsg struct {
	Event session.Event
}

// NavigateMsg asks the app to move to a route.
type NavigateMsg struct {
	To Route
}

// LogoutMsg asks the app to end the session.
type LogoutMsg struct{}
