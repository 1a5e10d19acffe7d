package tui

import "strings"

// RegisterModel is the signup placeholder. Accounts are created on the
// server side.
type RegisterModel struct {
	styles Styles
}

func (m RegisterModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Sign up"))
	b.WriteString("\n\n")
	b.WriteString("Registration is not available from this client.\n")
	b.WriteString(m.styles.Muted.Render("Ask an administrator for an account, then log in with alt+l."))
	return b.String()
}
