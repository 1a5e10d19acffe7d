package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/roster/internal/api"
	"github.com/felixgeelhaar/roster/internal/log"
	"github.com/felixgeelhaar/roster/internal/session"
	"github.com/felixgeelhaar/roster/internal/validate"
)

// InvalidCredentialsMessage is shown for every failed login.
const InvalidCredentialsMessage = "Invalid credentials"

// Authenticator exchanges credentials for a token.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResponse, error)
}

type loginResultMsg struct {
	ctx   context.Context
	token string
	err   error
}

// LoginModel is the login screen.
type LoginModel struct {
	auth   Authenticator
	sess   *session.Session
	logger *log.Logger
	styles Styles

	ctx    context.Context
	cancel context.CancelFunc

	email    string
	password string
	form     *huh.Form
	pending  bool
	message  string
	err      error
}

// NewLoginModel returns a login screen bound to parent's lifetime.
func NewLoginModel(parent context.Context, auth Authenticator, sess *session.Session, logger *log.Logger, styles Styles) *LoginModel {
	ctx, cancel := context.WithCancel(parent)
	m := &LoginModel{auth: auth, sess: sess, logger: logger, styles: styles, ctx: ctx, cancel: cancel}
	m.form = m.newForm()
	return m
}

func (m *LoginModel) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("email").
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.email),
			huh.NewInput().
				Key("password").
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password),
		),
	).WithShowHelp(false)
}

// Init starts the form.
func (m *LoginModel) Init() tea.Cmd {
	return m.form.Init()
}

// Leave cancels any in-flight login.
func (m *LoginModel) Leave() {
	m.cancel()
}

// Message is the text shown under the form.
func (m *LoginModel) Message() string { return m.message }

// Err is the full error behind the last failure.
func (m *LoginModel) Err() error { return m.err }

// Pending reports whether a login request is in flight.
func (m *LoginModel) Pending() bool { return m.pending }

// SetCredentials fills the inputs.
func (m *LoginModel) SetCredentials(email, password string) {
	m.email, m.password = email, password
}

func (m *LoginModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loginResultMsg:
		return m.finish(msg)
	case tea.KeyMsg:
		if m.pending {
			return nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
		if m.form.State == huh.StateCompleted {
			return m.attempt()
		}
	}
	return cmd
}

// attempt validates the inputs and, when they pass, sends the login request.
func (m *LoginModel) attempt() tea.Cmd {
	email := strings.TrimSpace(m.email)
	if err := validate.Login(email, m.password); err != nil {
		m.message = err.Error()
		m.err = err
		m.form = m.newForm()
		return m.form.Init()
	}

	m.pending = true
	m.message = ""
	ctx, auth := m.ctx, m.auth
	creds := api.Credentials{Email: email, Password: m.password}
	return func() tea.Msg {
		resp, err := auth.Login(ctx, creds)
		if err != nil {
			return loginResultMsg{ctx: ctx, err: err}
		}
		return loginResultMsg{ctx: ctx, token: resp.Token}
	}
}

func (m *LoginModel) finish(msg loginResultMsg) tea.Cmd {
	if msg.ctx.Err() != nil {
		return nil
	}
	m.pending = false

	err := msg.err
	if err == nil {
		err = m.sess.SetToken(msg.token)
	}
	if err != nil {
		m.logger.WithError(err).Warn("login failed")
		m.message = InvalidCredentialsMessage
		m.err = err
		m.form = m.newForm()
		return m.form.Init()
	}

	m.password = ""
	m.err = nil
	return navigate(RouteEmployees)
}

func (m *LoginModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Login"))
	b.WriteString("\n\n")
	b.WriteString(m.form.View())
	if m.pending {
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("Signing in..."))
	}
	if m.message != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.message))
	}
	return b.String()
}
