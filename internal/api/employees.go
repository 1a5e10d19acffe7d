package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/felixgeelhaar/roster/internal/employee"
)

// ListEmployees fetches one page of employees.
func (c *Client) ListEmployees(ctx context.Context, q employee.Query) (*employee.Page, error) {
	var page employee.Page
	err := c.do(ctx, call{
		op:     "list employees",
		method: http.MethodGet,
		route:  "/api/employees",
		path:   "/api/employees?" + q.Encode(),
		auth:   true,
	}, &page)
	if err != nil {
		return nil, err
	}
	if page.Employees == nil {
		page.Employees = []employee.Employee{}
	}
	return &page, nil
}

// ListDepartments fetches every department.
func (c *Client) ListDepartments(ctx context.Context) ([]employee.Department, error) {
	var deps []employee.Department
	err := c.do(ctx, call{
		op:     "list departments",
		method: http.MethodGet,
		route:  "/api/employees/departments",
		path:   "/api/employees/departments",
		auth:   true,
	}, &deps)
	if err != nil {
		return nil, err
	}
	return deps, nil
}

// CreateEmployee creates an employee and returns the server's record.
func (c *Client) CreateEmployee(ctx context.Context, in employee.Input) (*employee.Employee, error) {
	var e employee.Employee
	err := c.do(ctx, call{
		op:     "create employee",
		method: http.MethodPost,
		route:  "/api/employees",
		path:   "/api/employees",
		body:   in,
		auth:   true,
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// UpdateEmployee replaces an employee and returns the server's record.
func (c *Client) UpdateEmployee(ctx context.Context, id int64, in employee.Input) (*employee.Employee, error) {
	var e employee.Employee
	err := c.do(ctx, call{
		op:     "update employee",
		method: http.MethodPut,
		route:  "/api/employees/{id}",
		path:   fmt.Sprintf("/api/employees/%d", id),
		body:   in,
		auth:   true,
	}, &e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// DeleteEmployee deletes an employee.
func (c *Client) DeleteEmployee(ctx context.Context, id int64) error {
	return c.do(ctx, call{
		op:     "delete employee",
		method: http.MethodDelete,
		route:  "/api/employees/{id}",
		path:   fmt.Sprintf("/api/employees/%d", id),
		auth:   true,
	}, nil)
}
