// Package session holds the bearer token for the current user. A Session is
// an explicit object handed to every component that needs authentication
// state; components subscribe to it instead of polling storage.
package session

import (
	"sync"
)

// Event describes why the session changed.
type Event int

const (
	// EventLogin fires when a token is stored
	EventLogin Event = iota
	// EventLogout fires when the user clears the token
	EventLogout
	// EventExpired fires when the server rejected the token
	EventExpired
)

func (e Event) String() string {
	switch e {
	case EventLogin:
		return "login"
	case EventLogout:
		return "logout"
	case EventExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Storage persists the token between program runs.
type Storage interface {
	// Load returns the stored token, or "" when there is none.
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Session is the process-wide holder of at most one token.
type Session struct {
	mu      sync.Mutex
	storage Storage
	token   string
	subs    map[int]func(Event)
	nextID  int
}

// New loads the stored token (if any) and returns the session.
func New(storage Storage) (*Session, error) {
	token, err := storage.Load()
	if err != nil {
		return nil, err
	}
	return &Session{storage: storage, token: token, subs: make(map[int]func(Event))}, nil
}

// Token returns the current token and whether one is held.
func (s *Session) Token() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, s.token != ""
}

// Authenticated reports whether a token is held.
func (s *Session) Authenticated() bool {
	_, ok := s.Token()
	return ok
}

// SetToken stores token, replacing any previous one.
func (s *Session) SetToken(token string) error {
	s.mu.Lock()
	if err := s.storage.Save(token); err != nil {
		s.mu.Unlock()
		return err
	}
	s.token = token
	s.mu.Unlock()

	s.notify(EventLogin)
	return nil
}

// ClearToken removes the token on user logout.
func (s *Session) ClearToken() error {
	return s.clear(EventLogout)
}

// Expire removes the token after the server answered 401.
func (s *Session) Expire() error {
	return s.clear(EventExpired)
}

func (s *Session) clear(ev Event) error {
	s.mu.Lock()
	s.token = ""
	err := s.storage.Clear()
	s.mu.Unlock()

	s.notify(ev)
	return err
}

// Subscribe registers fn for every session change and returns a function
// that removes it. fn runs on the goroutine that changed the session.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) notify(ev Event) {
	s.mu.Lock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(ev)
	}
}
