package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s, err := New(NewMemoryStorage(""))
	require.NoError(t, err)

	_, ok := s.Token()
	assert.False(t, ok)

	require.NoError(t, s.SetToken("abc"))
	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.SetToken("def"))
	tok, _ = s.Token()
	assert.Equal(t, "def", tok, "last writer wins")

	require.NoError(t, s.ClearToken())
	assert.False(t, s.Authenticated())
}

func TestSessionLoadsStoredToken(t *testing.T) {
	s, err := New(NewMemoryStorage("persisted"))
	require.NoError(t, err)

	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "persisted", tok)
}

func TestSubscribe(t *testing.T) {
	s, err := New(NewMemoryStorage(""))
	require.NoError(t, err)

	var mu sync.Mutex
	var events []Event
	unsubscribe := s.Subscribe(func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	require.NoError(t, s.SetToken("abc"))
	require.NoError(t, s.Expire())
	require.NoError(t, s.SetToken("abc"))
	require.NoError(t, s.ClearToken())

	unsubscribe()
	require.NoError(t, s.SetToken("ignored"))

	assert.Equal(t, []Event{EventLogin, EventExpired, EventLogin, EventLogout}, events)
}

func TestSubscriberMayReadSession(t *testing.T) {
	s, err := New(NewMemoryStorage(""))
	require.NoError(t, err)

	var seen bool
	s.Subscribe(func(Event) {
		_, seen = s.Token()
	})

	require.NoError(t, s.SetToken("abc"))
	assert.True(t, seen)
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	fs := NewFileStorage(path)

	tok, err := fs.Load()
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file means no token")

	require.NoError(t, fs.Save("abc"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err = fs.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, fs.Clear())
	require.NoError(t, fs.Clear(), "clearing twice is not an error")

	tok, err = fs.Load()
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestSessionSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	first, err := New(NewFileStorage(path))
	require.NoError(t, err)
	require.NoError(t, first.SetToken("abc"))

	second, err := New(NewFileStorage(path))
	require.NoError(t, err)
	tok, ok := second.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
}

func TestEncryptedFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	require.NoError(t, NewEncryptedFileStorage(path, "correct horse").Save("secret-token"))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(raw, &rec))
	assert.NotEmpty(t, rec["sealed"])

	tok, err := NewEncryptedFileStorage(path, "correct horse").Load()
	require.NoError(t, err)
	assert.Equal(t, "secret-token", tok)

	_, err = NewEncryptedFileStorage(path, "wrong").Load()
	assert.ErrorIs(t, err, ErrWrongPassphrase)

	_, err = NewFileStorage(path).Load()
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestInspect(t *testing.T) {
	exp := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "42",
		"email": "ana@example.com",
		"exp":   exp.Unix(),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	c, ok := Inspect(token)
	require.True(t, ok)
	assert.Equal(t, "42", c.Subject)
	assert.Equal(t, "ana@example.com", c.Email)
	require.NotNil(t, c.ExpiresAt)
	assert.True(t, exp.Equal(*c.ExpiresAt))

	_, ok = Inspect("opaque-token")
	assert.False(t, ok)
}

func TestEventString(t *testing.T) {
	assert.Equal(t, "login", EventLogin.String())
	assert.Equal(t, "logout", EventLogout.String())
	assert.Equal(t, "expired", EventExpired.String())
}
