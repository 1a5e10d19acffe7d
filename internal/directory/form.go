package directory

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/roster/internal/employee"
	"github.com/felixgeelhaar/roster/internal/validate"
)

// Mode is create or edit.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// SaveErrorMessage is shown for every failed save.
const SaveErrorMessage = "Error saving employee"

// Form is the add/edit employee form state. Its mode follows whether an
// employee is selected.
type Form struct {
	selected *employee.Employee
	draft    employee.Draft
	message  string
	lastErr  error
}

// NewForm returns an empty form in create mode.
func NewForm() *Form {
	return &Form{}
}

// Select switches to edit mode for e, or to create mode when e is nil.
func (f *Form) Select(e *employee.Employee) {
	if e == nil {
		f.Reset()
		return
	}
	sel := *e
	f.selected = &sel
	f.draft = employee.DraftFrom(sel)
	f.message = ""
	f.lastErr = nil
}

// Reset clears the draft and returns to create mode.
func (f *Form) Reset() {
	f.selected = nil
	f.draft = employee.Draft{}
	f.message = ""
	f.lastErr = nil
}

// Mode reports create or edit.
func (f *Form) Mode() Mode {
	if f.selected != nil {
		return ModeEdit
	}
	return ModeCreate
}

// Selected returns the employee being edited.
func (f *Form) Selected() (employee.Employee, bool) {
	if f.selected == nil {
		return employee.Employee{}, false
	}
	return *f.selected, true
}

// Draft returns the current input.
func (f *Form) Draft() employee.Draft { return f.draft }

// SetDraft replaces the current input.
func (f *Form) SetDraft(d employee.Draft) { f.draft = d }

// Message is the error text to show, or "".
func (f *Form) Message() string { return f.message }

// Err is the full error behind Message, kept for logs and tests.
func (f *Form) Err() error { return f.lastErr }

// Prepare validates the draft. On failure the aggregated message is shown
// and the draft is kept.
func (f *Form) Prepare() (employee.Input, error) {
	in, err := validate.Employee(f.draft)
	if err != nil {
		f.message = err.Error()
		f.lastErr = err
		return employee.Input{}, err
	}
	return in, nil
}

// Send performs the create or update call. It reads only the selection and
// may run on any goroutine.
func (f *Form) Send(ctx context.Context, svc Mutator, in employee.Input) (*employee.Employee, error) {
	if f.selected != nil {
		return svc.UpdateEmployee(ctx, f.selected.ID, in)
	}
	return svc.CreateEmployee(ctx, in)
}

// Complete records the outcome of Send. On success it returns the mode the
// save ran in and resets to create mode; on failure the draft is kept.
func (f *Form) Complete(saved *employee.Employee, err error) (Mode, bool) {
	mode := f.Mode()
	if err != nil {
		f.lastErr = err
		if !errors.Is(err, context.Canceled) {
			f.message = SaveErrorMessage
		}
		return mode, false
	}
	f.Reset()
	return mode, saved != nil
}

// Submit validates, saves and merges the result into d. It is the
// synchronous path used by the CLI.
func (f *Form) Submit(ctx context.Context, d *Directory) (*employee.Employee, error) {
	in, err := f.Prepare()
	if err != nil {
		return nil, err
	}
	saved, err := f.Send(ctx, d.svc, in)
	mode, ok := f.Complete(saved, err)
	if !ok {
		if err != nil {
			d.logger.WithError(err).Error("save employee failed", "mode", mode.String())
		}
		return nil, err
	}
	d.ApplySaved(mode, *saved)
	return saved, nil
}
