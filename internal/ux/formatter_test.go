package ux

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/roster/internal/employee"
)

type testData struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

func samplePage() EmployeePage {
	return EmployeePage{
		Page: employee.Page{
			Employees: []employee.Employee{
				{ID: 1, Name: "Ana", Email: "ana@example.com", DepartmentID: 1, Department: &employee.DepartmentRef{Name: "Engineering"}},
				{ID: 2, Name: "Bob", Email: "bob@example.com", DepartmentID: 2},
			},
			Total: 12,
			Page:  1,
			Limit: 10,
		},
		TotalPages: 2,
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{"json format", "json", false},
		{"yaml format", "yaml", false},
		{"text format", "text", false},
		{"empty format defaults to text", "", false},
		{"unknown format", "xml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFormatter(tt.format, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(testData{Name: "test", Value: 42}))
	assert.Contains(t, buf.String(), `"name": "test"`)
	assert.Contains(t, buf.String(), `"value": 42`)
}

func TestJSONFormatterUnwrapsTables(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("json", &FormatterOptions{Writer: &buf, Compact: true})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(samplePage()))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `{"employees":[`), out)
	assert.Contains(t, out, `"total":12`)
	assert.NotContains(t, out, "TotalPages")
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("yaml", &FormatterOptions{Writer: &buf})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(Departments{{ID: 1, Name: "Engineering"}}))
	assert.Contains(t, buf.String(), "name: Engineering")
}

func TestTextFormatterTable(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("text", &FormatterOptions{Writer: &buf, NoColor: true})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(samplePage()))
	out := buf.String()
	for _, want := range []string{"ID", "Department", "ana@example.com", "Engineering", "Page 1 of 2 (12 total)"} {
		assert.Contains(t, out, want)
	}
}

func TestTextFormatterEmptyPage(t *testing.T) {
	var buf bytes.Buffer
	formatter, err := NewFormatter("text", &FormatterOptions{Writer: &buf, NoColor: true})
	require.NoError(t, err)

	require.NoError(t, formatter.Format(EmployeePage{}))
	assert.Contains(t, buf.String(), "No employees found")
}

func TestTextFormatterRejectsStructs(t *testing.T) {
	formatter, err := NewFormatter("text", &FormatterOptions{Writer: &bytes.Buffer{}})
	require.NoError(t, err)

	err = formatter.Format(testData{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--format json")
}
