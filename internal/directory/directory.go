// Package directory owns the employee list state: the query, the rows on
// screen, the department options and the total count. Every query change
// issues a Ticket; only the result of the latest ticket is committed.
package directory

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/felixgeelhaar/roster/internal/employee"
	"github.com/felixgeelhaar/roster/internal/log"
	"github.com/felixgeelhaar/roster/internal/metrics"
)

// Fetcher loads list data.
type Fetcher interface {
	ListEmployees(ctx context.Context, q employee.Query) (*employee.Page, error)
	ListDepartments(ctx context.Context) ([]employee.Department, error)
}

// Mutator changes employees on the server.
type Mutator interface {
	CreateEmployee(ctx context.Context, in employee.Input) (*employee.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, in employee.Input) (*employee.Employee, error)
	DeleteEmployee(ctx context.Context, id int64) error
}

// Service is everything the list screen needs from the API.
type Service interface {
	Fetcher
	Mutator
}

// Ticket identifies one issued fetch.
type Ticket struct {
	Generation uint64
	Query      employee.Query
}

// Result is the joined outcome of a ticket's employee and department fetches.
type Result struct {
	Ticket
	Page        *employee.Page
	Departments []employee.Department
	Err         error
}

// Outcome says what Commit did with a result.
type Outcome int

const (
	Committed Outcome = iota
	Stale
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Committed:
		return "committed"
	case Stale:
		return "stale"
	default:
		return "failed"
	}
}

// Directory is the list screen's state. It is not safe for concurrent use;
// only Fetch may run off the owning goroutine.
type Directory struct {
	svc     Service
	logger  *log.Logger
	metrics *metrics.Metrics

	query       employee.Query
	generation  uint64
	rows        []employee.Employee
	departments []employee.Department
	total       int
	loaded      bool
}

// Option configures a Directory.
type Option func(*Directory)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// WithMetrics records fetch outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Directory) { d.metrics = m }
}

// New returns an empty directory on page 1 with the given page size.
func New(svc Service, limit int, opts ...Option) *Directory {
	d := &Directory{
		svc:    svc,
		logger: log.Nop(),
		query:  employee.NewQuery(limit),
		rows:   []employee.Employee{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Query returns the current query state.
func (d *Directory) Query() employee.Query { return d.query }

// Rows returns a copy of the rows on screen.
func (d *Directory) Rows() []employee.Employee {
	return append([]employee.Employee(nil), d.rows...)
}

// Departments returns the department options.
func (d *Directory) Departments() []employee.Department {
	return append([]employee.Department(nil), d.departments...)
}

// Total is the server-side match count of the last committed page.
func (d *Directory) Total() int { return d.total }

// Loaded reports whether any result has been committed.
func (d *Directory) Loaded() bool { return d.loaded }

// TotalPages is ceil(total/limit).
func (d *Directory) TotalPages() int { return employee.TotalPages(d.total, d.query.Limit) }

// CanPrev reports whether "Previous" is enabled.
func (d *Directory) CanPrev() bool { return employee.CanPrev(d.query.Page) }

// CanNext reports whether "Next" is enabled.
func (d *Directory) CanNext() bool { return employee.CanNext(d.query.Page, d.TotalPages()) }

// Generation is the number of the latest issued ticket.
func (d *Directory) Generation() uint64 { return d.generation }

func (d *Directory) issue() Ticket {
	d.generation++
	return Ticket{Generation: d.generation, Query: d.query}
}

// Refresh issues a ticket for the current query.
func (d *Directory) Refresh() Ticket { return d.issue() }

// SetSearch changes the search text and returns to page 1.
func (d *Directory) SetSearch(s string) Ticket {
	d.query.Search = s
	d.query.Page = 1
	return d.issue()
}

// SetDepartment changes the department filter ("" for all) and returns to page 1.
func (d *Directory) SetDepartment(id string) Ticket {
	d.query.DepartmentID = id
	d.query.Page = 1
	return d.issue()
}

// NextPage advances one page. ok is false when "Next" is disabled.
func (d *Directory) NextPage() (t Ticket, ok bool) {
	if !d.CanNext() {
		return Ticket{}, false
	}
	d.query.Page++
	return d.issue(), true
}

// PrevPage goes back one page, clamped at 1. ok is false on page 1.
func (d *Directory) PrevPage() (t Ticket, ok bool) {
	if !d.CanPrev() {
		return Ticket{}, false
	}
	d.query.Page = employee.PrevPage(d.query.Page)
	return d.issue(), true
}

// GoToPage jumps to page n (values below 1 become 1).
func (d *Directory) GoToPage(n int) Ticket {
	if n < 1 {
		n = 1
	}
	d.query.Page = n
	return d.issue()
}

// Fetch runs the employee and department requests concurrently and joins
// them. It reads no Directory state and may run on any goroutine.
func (d *Directory) Fetch(ctx context.Context, t Ticket) Result {
	res := Result{Ticket: t}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := d.svc.ListEmployees(gctx, t.Query)
		res.Page = page
		return err
	})
	g.Go(func() error {
		deps, err := d.svc.ListDepartments(gctx)
		res.Departments = deps
		return err
	})
	res.Err = g.Wait()
	return res
}

// Commit applies r when it belongs to the latest ticket and both fetches
// succeeded. Stale and failed results leave the state unchanged.
func (d *Directory) Commit(r Result) (Outcome, error) {
	if r.Generation != d.generation {
		d.logger.Debug("discarding stale list result", "generation", r.Generation, "latest", d.generation)
		d.metrics.RecordListFetch(Stale.String())
		return Stale, nil
	}
	if r.Err != nil {
		if !errors.Is(r.Err, context.Canceled) {
			d.logger.WithError(r.Err).Warn("list fetch failed", "page", r.Query.Page)
		}
		d.metrics.RecordListFetch(Failed.String())
		return Failed, r.Err
	}

	d.rows = append([]employee.Employee{}, r.Page.Employees...)
	d.total = r.Page.Total
	d.departments = append([]employee.Department{}, r.Departments...)
	d.loaded = true
	d.metrics.RecordListFetch(Committed.String())
	return Committed, nil
}

// Load fetches and commits the current query synchronously.
func (d *Directory) Load(ctx context.Context) error {
	_, err := d.Commit(d.Fetch(ctx, d.Refresh()))
	return err
}

// RemoveConfirmed drops the row after the server confirmed its deletion.
func (d *Directory) RemoveConfirmed(id int64) {
	d.rows = employee.Remove(d.rows, id)
}

// Delete deletes an employee on the server and, only on success, removes
// the row. A failure is logged and leaves the rows untouched.
func (d *Directory) Delete(ctx context.Context, id int64) error {
	if err := d.svc.DeleteEmployee(ctx, id); err != nil {
		d.logger.WithError(err).Error("delete employee failed", "id", id)
		return err
	}
	d.RemoveConfirmed(id)
	return nil
}

// ApplySaved merges a saved employee: edit replaces the matching row,
// create appends. Save responses carry no department reference, so it is
// resolved from the loaded departments.
func (d *Directory) ApplySaved(mode Mode, saved employee.Employee) {
	if saved.Department == nil {
		if name := employee.NameFor(saved, d.departments); name != "" {
			saved.Department = &employee.DepartmentRef{Name: name}
		}
	}
	if mode == ModeEdit {
		d.rows = employee.Replace(d.rows, saved)
		return
	}
	d.rows = employee.Append(d.rows, saved)
}
