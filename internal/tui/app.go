package tui

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/roster/internal/directory"
	"github.com/felixgeelhaar/roster/internal/log"
	"github.com/felixgeelhaar/roster/internal/metrics"
	"github.com/felixgeelhaar/roster/internal/session"
)

// Client is everything the screens need from the API.
type Client interface {
	Authenticator
	directory.Service
}

// Config wires the app to its collaborators.
type Config struct {
	Session   *session.Session
	Client    Client
	PageSize  int
	ExportDir string
	Logger    *log.Logger
	Metrics   *metrics.Metrics
	Start     Route
	Now       func() time.Time
}

// App is the root model: nav bar, route guard and the active screen.
type App struct {
	cfg    Config
	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger
	styles Styles
	keys   navKeys

	watch *sessionWatch
	nav   NavBar
	guard Guard
	route Route

	login    *LoginModel
	list     *ListModel
	register RegisterModel

	width    int
	height   int
	quitting bool
}

// NewApp builds the root model. Close must be called when the program ends.
func NewApp(parent context.Context, cfg Config) *App {
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	if cfg.Start == "" {
		cfg.Start = RouteEmployees
	}
	styles := DefaultStyles()
	ctx, cancel := context.WithCancel(parent)
	return &App{
		cfg:      cfg,
		ctx:      ctx,
		cancel:   cancel,
		logger:   cfg.Logger,
		styles:   styles,
		keys:     defaultNavKeys(),
		watch:    watchSession(cfg.Session),
		nav:      NewNavBar(cfg.Session.Authenticated(), styles),
		register: RegisterModel{styles: styles},
	}
}

// Route returns the active route.
func (a *App) Route() Route { return a.route }

// Guard returns the guard of the protected screen.
func (a *App) Guard() GuardState { return a.guard.State() }

// NavBar returns the navigation bar.
func (a *App) NavBar() NavBar { return a.nav }

// Login returns the login screen while it is mounted.
func (a *App) Login() *LoginModel { return a.login }

// List returns the list screen while it is mounted.
func (a *App) List() *ListModel { return a.list }

// Close unmounts the active screen and stops watching the session.
func (a *App) Close() {
	a.leave()
	a.watch.stop()
	a.cancel()
}

// Init mounts the start route and starts listening for session events.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.watch.wait(), a.navigate(a.cfg.Start))
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			a.quitting = true
			a.Close()
			return a, tea.Quit
		}
		if cmd, ok := a.nav.HandleKey(msg); ok {
			return a, cmd
		}

	case SessionChangedMsg:
		return a, tea.Batch(a.watch.wait(), a.onSessionChanged(msg))

	case NavigateMsg:
		return a, a.navigate(msg.To)

	case LogoutMsg:
		if err := a.cfg.Session.ClearToken(); err != nil {
			a.logger.WithError(err).Error("logout failed")
		}
		a.nav.SetAuthenticated(false)
		return a, a.navigate(RouteLogin)
	}

	return a, a.forward(msg)
}

// onSessionChanged refreshes the nav bar and re-runs the guard of a mounted
// protected screen.
func (a *App) onSessionChanged(msg SessionChangedMsg) tea.Cmd {
	authenticated := a.cfg.Session.Authenticated()
	a.nav.SetAuthenticated(authenticated)
	a.logger.Debug("session changed", "event", msg.Event.String(), "authenticated", authenticated)

	if !a.route.Protected() {
		return nil
	}
	if a.guard.Evaluate(authenticated) == GuardRedirecting {
		return a.navigate(RouteLogin)
	}
	return nil
}

func (a *App) navigate(target Route) tea.Cmd {
	authenticated := a.cfg.Session.Authenticated()
	dest := Resolve(target, authenticated)
	if target.Protected() {
		a.guard.Reset()
		if a.guard.Evaluate(authenticated) == GuardRedirecting {
			a.logger.Debug("redirecting to login", "from", string(target))
		}
	}
	if dest == a.route && a.mounted() {
		return nil
	}

	a.leave()
	a.route = dest
	a.nav.SetCurrent(dest)

	switch dest {
	case RouteLogin:
		a.login = NewLoginModel(a.ctx, a.cfg.Client, a.cfg.Session, a.logger, a.styles)
		return a.login.Init()
	case RouteEmployees:
		a.list = NewListModel(a.ctx, a.cfg.Client, ListOptions{
			PageSize:  a.cfg.PageSize,
			ExportDir: a.cfg.ExportDir,
			Logger:    a.logger,
			Metrics:   a.cfg.Metrics,
			Now:       a.cfg.Now,
		}, a.styles)
		return a.list.Init()
	}
	return nil
}

func (a *App) mounted() bool {
	switch a.route {
	case RouteLogin:
		return a.login != nil
	case RouteEmployees:
		return a.list != nil
	case RouteRegister:
		return true
	}
	return false
}

func (a *App) leave() {
	if a.login != nil {
		a.login.Leave()
		a.login = nil
	}
	if a.list != nil {
		a.list.Leave()
		a.list = nil
	}
}

func (a *App) forward(msg tea.Msg) tea.Cmd {
	switch {
	case a.route == RouteLogin && a.login != nil:
		return a.login.Update(msg)
	case a.route == RouteEmployees && a.list != nil:
		return a.list.Update(msg)
	}
	return nil
}

func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(a.nav.View())
	b.WriteString("\n")

	switch a.route {
	case RouteLogin:
		if a.login != nil {
			b.WriteString(a.login.View())
		}
	case RouteRegister:
		b.WriteString(a.register.View())
	case RouteEmployees:
		switch {
		case a.guard.State() == GuardChecking:
			b.WriteString(a.styles.Muted.Render("Checking session..."))
		case a.list != nil:
			b.WriteString(a.list.View())
		}
	}
	return b.String()
}

// Run starts the program on the alternate screen and blocks until it exits.
func Run(ctx context.Context, cfg Config, opts ...tea.ProgramOption) error {
	app := NewApp(ctx, cfg)
	defer app.Close()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	if _, err := tea.NewProgram(app, opts...).Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
