package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// NavTitle is the application title shown in the bar.
const NavTitle = "Employee Management"

// NavBar shows the title and the links that fit the session state.
type NavBar struct {
	authenticated bool
	current       Route
	keys          navKeys
	styles        Styles
}

// NewNavBar returns a bar for the given initial session state.
func NewNavBar(authenticated bool, styles Styles) NavBar {
	return NavBar{authenticated: authenticated, keys: defaultNavKeys(), styles: styles}
}

// SetAuthenticated updates the links after a session event.
func (n *NavBar) SetAuthenticated(v bool) { n.authenticated = v }

// SetCurrent highlights the active route.
func (n *NavBar) SetCurrent(r Route) { n.current = r }

// Links returns the visible link labels in order.
func (n NavBar) Links() []string {
	var labels []string
	for _, l := range n.links() {
		labels = append(labels, l.label)
	}
	return labels
}

// HandleKey maps a nav shortcut to a command. ok is false when the key is
// not a nav key or its link is hidden.
func (n NavBar) HandleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, n.keys.Employees):
		return navigate(RouteEmployees), true
	case key.Matches(msg, n.keys.Logout) && n.authenticated:
		return func() tea.Msg { return LogoutMsg{} }, true
	case key.Matches(msg, n.keys.Login) && !n.authenticated:
		return navigate(RouteLogin), true
	case key.Matches(msg, n.keys.Signup) && !n.authenticated:
		return navigate(RouteRegister), true
	}
	return nil, false
}

func navigate(r Route) tea.Cmd {
	return func() tea.Msg { return NavigateMsg{To: r} }
}

type navLink struct {
	label string
	route Route
	bind  key.Binding
}

func (n NavBar) links() []navLink {
	links := []navLink{{"Employees", RouteEmployees, n.keys.Employees}}
	if n.authenticated {
		return append(links, navLink{"Logout", "", n.keys.Logout})
	}
	return append(links,
		navLink{"Login", RouteLogin, n.keys.Login},
		navLink{"Signup", RouteRegister, n.keys.Signup},
	)
}

func (n NavBar) View() string {
	parts := []string{n.styles.Title.Render(NavTitle) + "  "}
	for _, l := range n.links() {
		if l.route != "" && l.route == n.current {
			parts = append(parts, n.styles.NavFocus.Render(l.label))
			continue
		}
		text := l.label + " " + n.styles.Muted.Render("("+l.bind.Help().Key+")")
		parts = append(parts, n.styles.NavLink.Render(text))
	}
	return n.styles.NavBar.Render(strings.TrimRight(lipgloss.JoinHorizontal(lipgloss.Top, parts...), " "))
}
