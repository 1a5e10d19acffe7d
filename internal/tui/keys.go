package tui

import "github.com/charmbracelet/bubbles/key"

// navKeys are global and use alt so they never collide with text input.
type navKeys struct {
	Employees key.Binding
	Login     key.Binding
	Signup    key.Binding
	Logout    key.Binding
	Quit      key.Binding
}

func defaultNavKeys() navKeys {
	return navKeys{
		Employees: key.NewBinding(key.WithKeys("alt+e"), key.WithHelp("alt+e", "employees")),
		Login:     key.NewBinding(key.WithKeys("alt+l"), key.WithHelp("alt+l", "login")),
		Signup:    key.NewBinding(key.WithKeys("alt+s"), key.WithHelp("alt+s", "signup")),
		Logout:    key.NewBinding(key.WithKeys("alt+o"), key.WithHelp("alt+o", "logout")),
		Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

type listKeys struct {
	Next    key.Binding
	Prev    key.Binding
	Search  key.Binding
	Dept    key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	CSV     key.Binding
	XLSX    key.Binding
	Refresh key.Binding
}

func defaultListKeys() listKeys {
	return listKeys{
		Next:    key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next page")),
		Prev:    key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "prev page")),
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Dept:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "department")),
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:    key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		CSV:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "export csv")),
		XLSX:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export xlsx")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	}
}

func (k listKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.Search, k.Dept, k.Add, k.Edit, k.Delete, k.CSV, k.XLSX}
}

func (k listKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Refresh, k.Cancel}}
}
