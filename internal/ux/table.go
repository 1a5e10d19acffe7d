package ux

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/felixgeelhaar/roster/internal/employee"
)

// Tabular is data the text formatter draws as a table.
type Tabular interface {
	Headers() []string
	Rows() [][]string
	Footer() string
}

// Valuer lets table wrappers hand their plain value to JSON and YAML output.
type Valuer interface {
	Value() any
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	oddRowStyle = cellStyle.Foreground(lipgloss.Color("245"))
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// RenderTable draws t with a rounded border.
func RenderTable(t Tabular, noColor bool) string {
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(t.Headers()...).
		Rows(t.Rows()...)

	if noColor {
		tbl = tbl.StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
	} else {
		tbl = tbl.
			BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))).
			StyleFunc(func(row, col int) lipgloss.Style {
				switch {
				case row == table.HeaderRow:
					return headerStyle
				case row%2 == 1:
					return oddRowStyle
				default:
					return cellStyle
				}
			})
	}

	out := tbl.String()
	if footer := t.Footer(); footer != "" {
		if noColor {
			out += "\n" + footer
		} else {
			out += "\n" + footerStyle.Render(footer)
		}
	}
	return out
}

// EmployeePage is one page of the employee list.
type EmployeePage struct {
	Page       employee.Page
	TotalPages int
}

func (p EmployeePage) Headers() []string { return []string{"ID", "Name", "Email", "Department"} }

func (p EmployeePage) Rows() [][]string {
	rows := make([][]string, 0, len(p.Page.Employees))
	for _, e := range p.Page.Employees {
		rows = append(rows, []string{strconv.FormatInt(e.ID, 10), e.Name, e.Email, e.DepartmentName()})
	}
	return rows
}

func (p EmployeePage) Footer() string {
	if len(p.Page.Employees) == 0 {
		return "No employees found"
	}
	pages := p.TotalPages
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("Page %d of %d (%d total)", p.Page.Page, pages, p.Page.Total)
}

func (p EmployeePage) Value() any { return p.Page }

// Departments is the department list.
type Departments []employee.Department

func (d Departments) Headers() []string { return []string{"ID", "Name"} }

func (d Departments) Rows() [][]string {
	rows := make([][]string, 0, len(d))
	for _, dep := range d {
		rows = append(rows, []string{strconv.FormatInt(dep.ID, 10), dep.Name})
	}
	return rows
}

func (d Departments) Footer() string {
	if len(d) == 0 {
		return "No departments"
	}
	return ""
}

func (d Departments) Value() any { return []employee.Department(d) }
