package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/felixgeelhaar/roster/internal/directory"
	"github.com/felixgeelhaar/roster/internal/employee"
	"github.com/felixgeelhaar/roster/internal/log"
	"github.com/felixgeelhaar/roster/internal/metrics"
)

type listResultMsg struct {
	ctx    context.Context
	result directory.Result
}

type deleteResultMsg struct {
	ctx context.Context
	id  int64
	err error
}

type saveResultMsg struct {
	ctx   context.Context
	saved *employee.Employee
	err   error
}

type exportResultMsg struct {
	ctx    context.Context
	format employee.ExportFormat
	result *employee.ExportResult
	err    error
}

// ListOptions configures the list screen.
type ListOptions struct {
	PageSize  int
	ExportDir string
	Logger    *log.Logger
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

// ListModel is the employee list screen with its add/edit form.
type ListModel struct {
	svc     directory.Service
	dir     *directory.Directory
	form    *directory.Form
	opts    ListOptions
	logger  *log.Logger
	metrics *metrics.Metrics
	styles  Styles
	keys    listKeys

	ctx    context.Context
	cancel context.CancelFunc

	table     table.Model
	pager     paginator.Model
	search    textinput.Model
	spin      spinner.Model
	help      help.Model
	searching bool
	loading   bool

	editor  *huh.Form
	draft   employee.Draft
	saving  bool
	pending *employee.Employee // awaiting delete confirmation
	status  string
}

// NewListModel returns a list screen bound to parent's lifetime.
func NewListModel(parent context.Context, svc directory.Service, opts ListOptions, styles Styles) *ListModel {
	if opts.PageSize < 1 {
		opts.PageSize = employee.DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ExportDir == "" {
		opts.ExportDir = "."
	}

	ctx, cancel := context.WithCancel(parent)

	km := table.DefaultKeyMap()
	km.PageDown.SetKeys("pgdown")
	km.PageUp.SetKeys("pgup")
	km.HalfPageDown.SetKeys("ctrl+d")
	km.HalfPageUp.SetKeys("ctrl+u")

	tbl := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Name", Width: 24},
			{Title: "Email", Width: 30},
			{Title: "Department", Width: 18},
		}),
		table.WithFocused(true),
		table.WithHeight(opts.PageSize+1),
		table.WithKeyMap(km),
	)

	pager := paginator.New()
	pager.Type = paginator.Arabic
	pager.ArabicFormat = "Page %d of %d"
	pager.PerPage = opts.PageSize

	search := textinput.New()
	search.Placeholder = "Search by name"
	search.Prompt = "Search: "

	return &ListModel{
		svc:     svc,
		dir:     directory.New(svc, opts.PageSize, directory.WithLogger(opts.Logger), directory.WithMetrics(opts.Metrics)),
		form:    directory.NewForm(),
		opts:    opts,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		styles:  styles,
		keys:    defaultListKeys(),
		ctx:     ctx,
		cancel:  cancel,
		table:   tbl,
		pager:   pager,
		search:  search,
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
	}
}

// Init loads the first page.
func (m *ListModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(m.dir.Refresh()), m.spin.Tick)
}

// Leave cancels in-flight work; late results are dropped.
func (m *ListModel) Leave() {
	m.cancel()
}

// Directory exposes the list state.
func (m *ListModel) Directory() *directory.Directory { return m.dir }

// Form exposes the add/edit form state.
func (m *ListModel) Form() *directory.Form { return m.form }

// Editing reports whether the add/edit form is open.
func (m *ListModel) Editing() bool { return m.editor != nil }

// Status is the last informational line.
func (m *ListModel) Status() string { return m.status }

func (m *ListModel) fetch(t directory.Ticket) tea.Cmd {
	m.loading = true
	ctx, dir := m.ctx, m.dir
	return func() tea.Msg {
		return listResultMsg{ctx: ctx, result: dir.Fetch(ctx, t)}
	}
}

func (m *ListModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case listResultMsg:
		return m.onList(msg)
	case deleteResultMsg:
		return m.onDelete(msg)
	case saveResultMsg:
		return m.onSave(msg)
	case exportResultMsg:
		m.onExport(msg)
		return nil
	case spinner.TickMsg:
		if !m.loading {
			return nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return cmd
	case tea.KeyMsg:
		return m.onKey(msg)
	}

	if m.editor != nil {
		return m.updateEditor(msg)
	}
	return nil
}

func (m *ListModel) onList(msg listResultMsg) tea.Cmd {
	if msg.ctx.Err() != nil {
		return nil
	}
	outcome, _ := m.dir.Commit(msg.result)
	if outcome == directory.Stale {
		return nil
	}
	m.loading = false
	if outcome == directory.Committed {
		m.syncRows()
	}
	return nil
}

func (m *ListModel) onKey(msg tea.KeyMsg) tea.Cmd {
	if m.editor != nil {
		if key.Matches(msg, m.keys.Cancel) && !m.saving {
			m.closeEditor()
			return nil
		}
		return m.updateEditor(msg)
	}

	if m.searching {
		switch msg.Type {
		case tea.KeyEnter, tea.KeyEsc:
			m.searching = false
			m.search.Blur()
			m.table.Focus()
			return nil
		}
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if v := m.search.Value(); v != before {
			return tea.Batch(cmd, m.fetch(m.dir.SetSearch(v)))
		}
		return cmd
	}

	if m.pending != nil {
		id := m.pending.ID
		m.pending = nil
		if key.Matches(msg, m.keys.Confirm) {
			return m.delete(id)
		}
		m.status = ""
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		if t, ok := m.dir.NextPage(); ok {
			return m.fetch(t)
		}
	case key.Matches(msg, m.keys.Prev):
		if t, ok := m.dir.PrevPage(); ok {
			return m.fetch(t)
		}
	case key.Matches(msg, m.keys.Refresh):
		return m.fetch(m.dir.Refresh())
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		m.table.Blur()
		return m.search.Focus()
	case key.Matches(msg, m.keys.Dept):
		return m.fetch(m.dir.SetDepartment(m.nextDepartment()))
	case key.Matches(msg, m.keys.Add):
		return m.openEditor(nil)
	case key.Matches(msg, m.keys.Edit):
		if e, ok := m.selected(); ok {
			return m.openEditor(&e)
		}
	case key.Matches(msg, m.keys.Delete):
		if e, ok := m.selected(); ok {
			m.pending = &e
			m.status = fmt.Sprintf("Delete %s? (y/N)", e.Name)
		}
	case key.Matches(msg, m.keys.CSV):
		return m.export(employee.FormatCSV)
	case key.Matches(msg, m.keys.XLSX):
		return m.export(employee.FormatXLSX)
	default:
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return cmd
	}
	return nil
}

// nextDepartment cycles the filter through "all" and every department.
func (m *ListModel) nextDepartment() string {
	deps := m.dir.Departments()
	current := m.dir.Query().DepartmentID
	if current == "" {
		if len(deps) == 0 {
			return ""
		}
		return strconv.FormatInt(deps[0].ID, 10)
	}
	for i, d := range deps {
		if strconv.FormatInt(d.ID, 10) == current && i+1 < len(deps) {
			return strconv.FormatInt(deps[i+1].ID, 10)
		}
	}
	return ""
}

func (m *ListModel) selected() (employee.Employee, bool) {
	rows := m.dir.Rows()
	i := m.table.Cursor()
	if i < 0 || i >= len(rows) {
		return employee.Employee{}, false
	}
	return rows[i], true
}

func (m *ListModel) delete(id int64) tea.Cmd {
	m.status = ""
	ctx, svc := m.ctx, m.svc
	return func() tea.Msg {
		return deleteResultMsg{ctx: ctx, id: id, err: svc.DeleteEmployee(ctx, id)}
	}
}

func (m *ListModel) onDelete(msg deleteResultMsg) tea.Cmd {
	if msg.ctx.Err() != nil {
		return nil
	}
	if msg.err != nil {
		m.logger.WithError(msg.err).Error("delete employee failed", "id", msg.id)
		return nil
	}
	m.dir.RemoveConfirmed(msg.id)
	m.syncRows()
	return nil
}

func (m *ListModel) export(format employee.ExportFormat) tea.Cmd {
	rows := m.dir.Rows()
	ctx, dir, now := m.ctx, m.opts.ExportDir, m.opts.Now()
	return func() tea.Msg {
		res, err := employee.Export(dir, rows, format, now)
		return exportResultMsg{ctx: ctx, format: format, result: res, err: err}
	}
}

func (m *ListModel) onExport(msg exportResultMsg) {
	if msg.ctx.Err() != nil {
		return
	}
	if msg.err != nil {
		m.logger.WithError(msg.err).Error("export failed", "format", string(msg.format))
		m.status = "Export failed"
		return
	}
	m.metrics.RecordExport(string(msg.format))
	m.status = fmt.Sprintf("Exported %d rows to %s", msg.result.Rows, msg.result.Path)
}

func (m *ListModel) openEditor(e *employee.Employee) tea.Cmd {
	m.form.Select(e)
	m.draft = m.form.Draft()
	m.editor = m.newEditor()
	m.table.Blur()
	return m.editor.Init()
}

func (m *ListModel) closeEditor() {
	m.form.Reset()
	m.editor = nil
	m.saving = false
	m.table.Focus()
}

func (m *ListModel) newEditor() *huh.Form {
	opts := []huh.Option[string]{huh.NewOption("Select a department", "")}
	for _, d := range m.dir.Departments() {
		opts = append(opts, huh.NewOption(d.Name, strconv.FormatInt(d.ID, 10)))
	}

	title := "Add employee"
	if m.form.Mode() == directory.ModeEdit {
		title = "Edit employee"
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Key("name").Title("Name").Value(&m.draft.Name),
			huh.NewInput().Key("email").Title("Email").Value(&m.draft.Email),
			huh.NewSelect[string]().Key("department").Title("Department").Options(opts...).Value(&m.draft.DepartmentID),
		).Title(title),
	).WithShowHelp(false)
}

func (m *ListModel) updateEditor(msg tea.Msg) tea.Cmd {
	if m.saving {
		return nil
	}
	form, cmd := m.editor.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.editor = f
		if m.editor.State == huh.StateCompleted {
			return m.submit()
		}
	}
	return cmd
}

// submit validates the draft and sends it. Validation failures reopen the
// form with the draft intact.
func (m *ListModel) submit() tea.Cmd {
	m.form.SetDraft(m.draft)
	in, err := m.form.Prepare()
	if err != nil {
		m.editor = m.newEditor()
		return m.editor.Init()
	}

	m.saving = true
	ctx, svc, form := m.ctx, m.svc, m.form
	return func() tea.Msg {
		saved, err := form.Send(ctx, svc, in)
		return saveResultMsg{ctx: ctx, saved: saved, err: err}
	}
}

func (m *ListModel) onSave(msg saveResultMsg) tea.Cmd {
	if msg.ctx.Err() != nil {
		return nil
	}
	m.saving = false
	mode, ok := m.form.Complete(msg.saved, msg.err)
	if !ok {
		if msg.err != nil {
			m.logger.WithError(msg.err).Error("save employee failed", "mode", mode.String())
		}
		m.draft = m.form.Draft()
		m.editor = m.newEditor()
		return m.editor.Init()
	}

	m.dir.ApplySaved(mode, *msg.saved)
	m.editor = nil
	m.table.Focus()
	m.syncRows()
	return nil
}

func (m *ListModel) syncRows() {
	deps := m.dir.Departments()
	emps := m.dir.Rows()
	rows := make([]table.Row, 0, len(emps))
	for _, e := range emps {
		rows = append(rows, table.Row{strconv.FormatInt(e.ID, 10), e.Name, e.Email, employee.NameFor(e, deps)})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}

	m.pager.TotalPages = max(m.dir.TotalPages(), 1)
	m.pager.Page = m.dir.Query().Page - 1
}

func (m *ListModel) departmentLabel() string {
	id := m.dir.Query().DepartmentID
	if id == "" {
		return "All departments"
	}
	for _, d := range m.dir.Departments() {
		if strconv.FormatInt(d.ID, 10) == id {
			return d.Name
		}
	}
	return "Department " + id
}

func (m *ListModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Employees"))
	b.WriteString("\n")
	b.WriteString(m.search.View())
	b.WriteString("  ")
	b.WriteString(m.styles.Muted.Render("Filter: " + m.departmentLabel()))
	if m.loading {
		b.WriteString("  " + m.spin.View())
	}
	b.WriteString("\n\n")

	if m.dir.Loaded() && len(m.dir.Rows()) == 0 {
		b.WriteString(m.styles.Muted.Render("No employees found"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
	}
	b.WriteString(m.pager.View())

	if m.editor != nil {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Border.Render(m.editor.View()))
		if msg := m.form.Message(); msg != "" {
			b.WriteString("\n")
			b.WriteString(m.styles.Error.Render(msg))
		}
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Success.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.help.View(m.keys)))
	return b.String()
}
