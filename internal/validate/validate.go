// Package validate holds the client-side input schemas for the login and
// employee forms. A failed validation reports every violated rule at once.
package validate

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/felixgeelhaar/roster/internal/employee"
)

// MinPasswordLength is the shortest password the login form will submit.
const MinPasswordLength = 6

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	_ = val.RegisterValidation("posint", func(fl validator.FieldLevel) bool {
		n, err := strconv.ParseInt(strings.TrimSpace(fl.Field().String()), 10, 64)
		return err == nil && n > 0
	})
	return val
}

// FieldError is one violated rule.
type FieldError struct {
	Field   string
	Message string
}

// Errors aggregates every violated rule of a submission.
type Errors []FieldError

// Error joins the messages in field order, separated by ", ".
func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, ", ")
}

// Has reports whether field has a violation.
func (e Errors) Has(field string) bool {
	for _, fe := range e {
		if fe.Field == field {
			return true
		}
	}
	return false
}

// IsValidation reports whether err came from a local schema check.
func IsValidation(err error) bool {
	var verrs Errors
	return errors.As(err, &verrs)
}

type loginSchema struct {
	Email    string `validate:"email"`
	Password string `validate:"min=6"`
}

type employeeSchema struct {
	Name         string `validate:"required"`
	Email        string `validate:"email"`
	DepartmentID string `validate:"required,posint"`
}

var messages = map[string]string{
	"loginSchema.Email.email":              "Invalid email",
	"loginSchema.Password.min":             "Password must be at least 6 characters",
	"employeeSchema.Name.required":         "Name is required",
	"employeeSchema.Email.email":           "Invalid email",
	"employeeSchema.DepartmentID.required": "Department is required",
	"employeeSchema.DepartmentID.posint":   "Department must be a positive number",
}

func check(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		msg, ok := messages[fe.StructNamespace()+"."+fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out = append(out, FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

// Login checks the login form shape.
func Login(email, password string) error {
	return check(loginSchema{Email: email, Password: password})
}

// Employee checks a draft and converts it to a request body.
func Employee(d employee.Draft) (employee.Input, error) {
	if err := check(employeeSchema{Name: d.Name, Email: d.Email, DepartmentID: d.DepartmentID}); err != nil {
		return employee.Input{}, err
	}
	id, _ := strconv.ParseInt(strings.TrimSpace(d.DepartmentID), 10, 64)
	return employee.Input{Name: d.Name, Email: d.Email, DepartmentID: id}, nil
}
