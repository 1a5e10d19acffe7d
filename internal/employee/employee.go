// Package employee holds the view models exchanged with the employee API and
// the pure operations the list screen performs on them: merging saved rows,
// pagination arithmetic and export.
package employee

import (
	"strconv"
)

// DefaultPageSize is the fixed number of rows requested per page.
const DefaultPageSize = 10

// DepartmentRef is the department summary embedded in list responses.
type DepartmentRef struct {
	Name string `json:"name" yaml:"name"`
}

// Employee is a server-owned employee record.
type Employee struct {
	ID           int64          `json:"id" yaml:"id"`
	Name         string         `json:"name" yaml:"name"`
	Email        string         `json:"email" yaml:"email"`
	DepartmentID int64          `json:"departmentId" yaml:"department_id"`
	Department   *DepartmentRef `json:"department,omitempty" yaml:"department,omitempty"`
}

// DepartmentName returns the embedded department name, or "" when the record
// came from a create/update response that does not embed it.
func (e Employee) DepartmentName() string {
	if e.Department == nil {
		return ""
	}
	return e.Department.Name
}

// Department is a read-only department.
type Department struct {
	ID   int64  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Input is the body of create and update requests.
type Input struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	DepartmentID int64  `json:"departmentId"`
}

// Page is one page of the employee listing.
type Page struct {
	Employees []Employee `json:"employees" yaml:"employees"`
	Total     int        `json:"total" yaml:"total"`
	Page      int        `json:"page" yaml:"page"`
	Limit     int        `json:"limit" yaml:"limit"`
}

// Draft is the editable form state. DepartmentID stays a string until the
// draft is validated so an empty selection can be told apart from zero.
type Draft struct {
	Name         string
	Email        string
	DepartmentID string
}

// DraftFrom copies an employee into a draft for editing.
func DraftFrom(e Employee) Draft {
	return Draft{
		Name:         e.Name,
		Email:        e.Email,
		DepartmentID: strconv.FormatInt(e.DepartmentID, 10),
	}
}

// NameFor resolves a department name from a department list, falling back to
// the employee's embedded reference.
func NameFor(e Employee, departments []Department) string {
	if name := e.DepartmentName(); name != "" {
		return name
	}
	for _, d := range departments {
		if d.ID == e.DepartmentID {
			return d.Name
		}
	}
	return ""
}
