package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/roster/internal/directory"
	"github.com/felixgeelhaar/roster/internal/employee"
	rerrors "github.com/felixgeelhaar/roster/internal/errors"
	"github.com/felixgeelhaar/roster/internal/tui"
	"github.com/felixgeelhaar/roster/internal/ux"
)

var errNoConfirm = rerrors.New(rerrors.ErrCodeInvalidArgument, "refusing to delete without confirmation").
	WithSuggestion("Pass --yes to confirm")

// now is replaced in tests to pin export file names.
var now = time.Now

func newEmployeesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "employees",
		Aliases: []string{"employee", "emp"},
		Short:   "List, add, edit, delete and export employees",
		Long: `Manage employee records. Every subcommand needs a session; run
'roster login' first.

Examples:
  roster employees list --search ana --department 2
  roster employees add --name "Dan Park" --email dan@example.com --department 1
  roster employees edit 4 --email dan.park@example.com
  roster employees delete 4 --yes
  roster employees export --xlsx --out ./reports`,
	}

	cmd.AddCommand(
		newEmployeesListCmd(),
		newEmployeesAddCmd(),
		newEmployeesEditCmd(),
		newEmployeesDeleteCmd(),
		newEmployeesExportCmd(),
	)
	return cmd
}

// queryFlags are shared by list and export.
type queryFlags struct {
	page       int
	limit      int
	search     string
	department string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&q.page, "page", 1, "page to fetch")
	cmd.Flags().IntVar(&q.limit, "limit", 0, "rows per page (default config list.page_size)")
	cmd.Flags().StringVarP(&q.search, "search", "s", "", "filter by name or email")
	cmd.Flags().StringVarP(&q.department, "department", "d", "", "filter by department id")
}

// openDirectory builds a directory for the flags without fetching.
func (rt *runtime) openDirectory(q queryFlags) *directory.Directory {
	limit := q.limit
	if limit <= 0 {
		limit = rt.cfg.List.PageSize
	}
	d := directory.New(rt.client, limit,
		directory.WithLogger(rt.logger),
		directory.WithMetrics(rt.metrics),
	)
	d.SetSearch(q.search)
	d.SetDepartment(q.department)
	d.GoToPage(q.page)
	return d
}

// loadDirectory opens and fetches the directory for a protected command.
func (rt *runtime) loadDirectory(ctx context.Context, q queryFlags) (*directory.Directory, error) {
	if err := rt.requireSession(); err != nil {
		return nil, err
	}
	d := rt.openDirectory(q)
	if err := d.Load(ctx); err != nil {
		return nil, rt.fail(err, "list employees")
	}
	return d, nil
}

func pageOf(d *directory.Directory) ux.EmployeePage {
	q := d.Query()
	return ux.EmployeePage{
		Page: employee.Page{
			Employees: d.Rows(),
			Total:     d.Total(),
			Page:      q.Page,
			Limit:     q.Limit,
		},
		TotalPages: d.TotalPages(),
	}
}

func newEmployeesListCmd() *cobra.Command {
	var q queryFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List one page of employees",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			d, err := rt.loadDirectory(cmd.Context(), q)
			if err != nil {
				return err
			}
			return rt.print(pageOf(d))
		},
	}
	q.register(cmd)
	return cmd
}

// savedEmployee reports the result of add or edit.
type savedEmployee struct {
	mode     directory.Mode
	employee employee.Employee
}

func (s savedEmployee) String() string {
	verb := "Created"
	if s.mode == directory.ModeEdit {
		verb = "Updated"
	}
	return fmt.Sprintf("%s employee %d: %s <%s>", verb, s.employee.ID, s.employee.Name, s.employee.Email)
}

func (s savedEmployee) Value() any { return s.employee }

// draftFlags holds the employee fields given on the command line.
type draftFlags struct {
	name       string
	email      string
	department string
}

func (f *draftFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "employee name")
	cmd.Flags().StringVar(&f.email, "email", "", "employee email")
	cmd.Flags().StringVarP(&f.department, "department", "d", "", "department id")
}

// apply overwrites the fields whose flags were set.
func (f *draftFlags) apply(cmd *cobra.Command, d employee.Draft) employee.Draft {
	if cmd.Flags().Changed("name") {
		d.Name = f.name
	}
	if cmd.Flags().Changed("email") {
		d.Email = f.email
	}
	if cmd.Flags().Changed("department") {
		d.DepartmentID = f.department
	}
	return d
}

func (f *draftFlags) any(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("name") || cmd.Flags().Changed("email") || cmd.Flags().Changed("department")
}

// save submits form against d and prints the outcome.
func (rt *runtime) save(ctx context.Context, d *directory.Directory, form *directory.Form) error {
	mode := form.Mode()
	saved, err := form.Submit(ctx, d)
	if err != nil {
		return rt.fail(err, "save employee")
	}
	return rt.print(savedEmployee{mode: mode, employee: *saved})
}

// promptDraft lets the user fill the form when the terminal allows it.
func (rt *runtime) promptDraft(ctx context.Context, title string, draft employee.Draft) (employee.Draft, error) {
	if !rt.canPrompt() {
		return draft, nil
	}
	deps, err := rt.client.ListDepartments(ctx)
	if err != nil {
		return draft, rt.fail(err, "list departments")
	}
	return tui.PromptEmployee(title, draft, deps)
}

func newEmployeesAddCmd() *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.requireSession(); err != nil {
				return err
			}
			d := rt.openDirectory(queryFlags{})
			form := directory.NewForm()

			draft := f.apply(cmd, employee.Draft{})
			if draft.Name == "" || draft.Email == "" || draft.DepartmentID == "" {
				if draft, err = rt.promptDraft(cmd.Context(), "New employee", draft); err != nil {
					return err
				}
			}
			form.SetDraft(draft)
			return rt.save(cmd.Context(), d, form)
		},
	}
	f.register(cmd)
	return cmd
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id < 1 {
		return 0, rerrors.New(rerrors.ErrCodeInvalidArgument, fmt.Sprintf("invalid employee id: %q", arg))
	}
	return id, nil
}

// findEmployee walks the unfiltered listing page by page until id shows up.
func findEmployee(ctx context.Context, d *directory.Directory, id int64) (employee.Employee, error) {
	for page := 1; ; page++ {
		d.GoToPage(page)
		if err := d.Load(ctx); err != nil {
			return employee.Employee{}, err
		}
		if e, ok := employee.Find(d.Rows(), id); ok {
			return e, nil
		}
		if !d.CanNext() {
			return employee.Employee{}, rerrors.New(rerrors.ErrCodeInvalidArgument, fmt.Sprintf("employee %d not found", id))
		}
	}
}

func newEmployeesEditCmd() *cobra.Command {
	var f draftFlags

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Update an employee",
		Long: `Update an employee. Only the fields passed as flags change; with no
flags on a terminal, a form prefilled with the current values is shown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.requireSession(); err != nil {
				return err
			}
			d := rt.openDirectory(queryFlags{})
			current, err := findEmployee(cmd.Context(), d, id)
			if err != nil {
				return rt.fail(err, "find employee")
			}

			form := directory.NewForm()
			form.Select(&current)

			draft := form.Draft()
			if f.any(cmd) {
				draft = f.apply(cmd, draft)
			} else if draft, err = rt.promptDraft(cmd.Context(), "Edit "+current.Name, draft); err != nil {
				return err
			}
			form.SetDraft(draft)
			return rt.save(cmd.Context(), d, form)
		},
	}
	f.register(cmd)
	return cmd
}

func newEmployeesDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete an employee",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.requireSession(); err != nil {
				return err
			}

			if !yes {
				ok, err := rt.confirm(fmt.Sprintf("Delete employee %d?", id))
				if err != nil {
					return err
				}
				if !ok {
					return rt.print("Cancelled")
				}
			}

			d := rt.openDirectory(queryFlags{})
			if err := d.Delete(cmd.Context(), id); err != nil {
				return rt.fail(err, "delete employee")
			}
			return rt.print(fmt.Sprintf("Deleted employee %d", id))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// confirm asks on the terminal, or reads a y/n line from piped stdin.
func (rt *runtime) confirm(message string) (bool, error) {
	switch {
	case rt.flags.NoInput:
		return false, errNoConfirm
	case rt.canPrompt():
		return tui.PromptForConfirmation(message, false)
	default:
		return rt.linePrompter().Confirm(message, false), nil
	}
}

// exportSummary reports a written export file.
type exportSummary struct {
	Path   string `json:"path" yaml:"path"`
	Format string `json:"format" yaml:"format"`
	Rows   int    `json:"rows" yaml:"rows"`
	Digest string `json:"blake3" yaml:"blake3"`
}

func (s exportSummary) String() string {
	return fmt.Sprintf("Exported %d rows to %s\nblake3: %s", s.Rows, s.Path, s.Digest)
}

func newEmployeesExportCmd() *cobra.Command {
	var (
		q    queryFlags
		xlsx bool
		out  string
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the listed employees to employees_<date>.csv",
		Long: `Write one page of employees (or every page with --all) to
employees_<YYYY-MM-DD>.csv in --out, or the config export.dir. With --xlsx a
spreadsheet is written instead. The file's BLAKE3 digest is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := newRuntime(cmd, runtimeOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			if all {
				q.page = 1
			}
			d, err := rt.loadDirectory(cmd.Context(), q)
			if err != nil {
				return err
			}
			rows := d.Rows()
			if all {
				if rows, err = collectAll(cmd.Context(), d); err != nil {
					return rt.fail(err, "list employees")
				}
			}

			format := employee.FormatCSV
			if xlsx {
				format = employee.FormatXLSX
			}
			dir := out
			if dir == "" {
				dir = rt.cfg.Export.Dir
			}

			res, err := employee.Export(dir, rows, format, now())
			if err != nil {
				rt.logger.WithError(err).Error("export failed", "format", string(format))
				return rerrors.Wrap(rerrors.ErrCodeExportFailed, "export failed", err)
			}
			rt.metrics.RecordExport(string(format))
			rt.logger.Info("exported employees", "path", res.Path, "rows", res.Rows)

			return rt.print(exportSummary{Path: res.Path, Format: string(format), Rows: res.Rows, Digest: res.Digest})
		},
	}
	q.register(cmd)
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "write an .xlsx spreadsheet instead of CSV")
	cmd.Flags().StringVar(&out, "out", "", "output directory (default config export.dir)")
	cmd.Flags().BoolVar(&all, "all", false, "export every page of the current filter")
	return cmd
}

// collectAll appends the rows of every following page to the loaded ones.
func collectAll(ctx context.Context, d *directory.Directory) ([]employee.Employee, error) {
	rows := append([]employee.Employee{}, d.Rows()...)
	for d.CanNext() {
		t, _ := d.NextPage()
		outcome, err := d.Commit(d.Fetch(ctx, t))
		if err != nil {
			return nil, err
		}
		if outcome != directory.Committed {
			return nil, errors.New("listing changed while exporting")
		}
		rows = append(rows, d.Rows()...)
	}
	return rows, nil
}
