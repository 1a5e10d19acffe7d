package employee

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleRows() []Employee {
	return []Employee{
		{ID: 1, Name: "Ana Lopez", Email: "ana@example.com", DepartmentID: 2, Department: &DepartmentRef{Name: "Sales"}},
		{ID: 2, Name: "Ben \"B\" Ortiz", Email: "ben@example.com", DepartmentID: 3, Department: &DepartmentRef{Name: "R&D, Labs"}},
		{ID: 3, Name: "Cy", Email: "cy@example.com", DepartmentID: 2, Department: &DepartmentRef{Name: "Sales"}},
	}
}

func TestAppendGrowsByOne(t *testing.T) {
	rows := sampleRows()
	created := Employee{ID: 9, Name: "Dee", Email: "dee@example.com", DepartmentID: 2}

	got := Append(rows, created)

	require.Len(t, got, len(rows)+1)
	assert.Equal(t, created, got[len(got)-1])
	assert.Len(t, rows, 3, "input must not be mutated")
}

func TestReplaceKeepsSize(t *testing.T) {
	rows := sampleRows()
	saved := Employee{ID: 2, Name: "Ben Ortiz", Email: "b.ortiz@example.com", DepartmentID: 4}

	got := Replace(rows, saved)

	require.Len(t, got, len(rows))
	assert.Equal(t, saved, got[1])
	assert.Equal(t, rows[0], got[0])
	assert.Equal(t, rows[2], got[2])
	assert.Equal(t, "Ben \"B\" Ortiz", rows[1].Name, "input must not be mutated")
}

func TestRemoveExactlyOne(t *testing.T) {
	got := Remove(sampleRows(), 2)

	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)

	unchanged := Remove(sampleRows(), 42)
	assert.Len(t, unchanged, 3)
}

func TestFind(t *testing.T) {
	e, ok := Find(sampleRows(), 3)
	require.True(t, ok)
	assert.Equal(t, "Cy", e.Name)

	_, ok = Find(sampleRows(), 99)
	assert.False(t, ok)
}

func TestDraftFrom(t *testing.T) {
	d := DraftFrom(sampleRows()[0])
	assert.Equal(t, Draft{Name: "Ana Lopez", Email: "ana@example.com", DepartmentID: "2"}, d)
}

func TestNameFor(t *testing.T) {
	deps := []Department{{ID: 4, Name: "Finance"}}
	assert.Equal(t, "Sales", NameFor(sampleRows()[0], deps))
	assert.Equal(t, "Finance", NameFor(Employee{DepartmentID: 4}, deps))
	assert.Equal(t, "", NameFor(Employee{DepartmentID: 5}, deps))
}

func TestPagination(t *testing.T) {
	totalPages := TotalPages(25, 10)
	assert.Equal(t, 3, totalPages)

	for page := 1; page <= totalPages; page++ {
		assert.Equal(t, page == 1, !CanPrev(page), "previous disabled exactly on page 1 (page %d)", page)
		assert.Equal(t, page == 3, !CanNext(page, totalPages), "next disabled exactly on page 3 (page %d)", page)
	}

	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
	assert.Equal(t, 1, PrevPage(1))
	assert.Equal(t, 2, PrevPage(3))
}

func TestQueryEncode(t *testing.T) {
	q := NewQuery(0)
	q.Search = "ana"

	assert.Equal(t, DefaultPageSize, q.Limit)
	assert.Equal(t, "page=1&limit=10&search=ana&departmentId=", q.Encode())

	q.Search = "a b&c"
	q.DepartmentID = "3"
	assert.Equal(t, "page=1&limit=10&search=a+b%26c&departmentId=3", q.Encode())
}

func TestCSV(t *testing.T) {
	out := CSV(sampleRows())
	lines := strings.Split(out, "\n")

	require.Len(t, lines, 4, "N rows produce N+1 lines")
	assert.Equal(t, "ID,Name,Email,Department", lines[0])
	assert.Equal(t, `1,"Ana Lopez","ana@example.com","Sales"`, lines[1])
	assert.Equal(t, `2,"Ben ""B"" Ortiz","ben@example.com","R&D, Labs"`, lines[2])
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestCSVEmpty(t *testing.T) {
	assert.Equal(t, "ID,Name,Email,Department", CSV(nil))
}

func TestCSVIsIdempotent(t *testing.T) {
	rows := sampleRows()
	assert.Equal(t, CSV(rows), CSV(rows))
}

func TestFileName(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	assert.Equal(t, "employees_2026-03-10.csv", FileName(now, FormatCSV))
	assert.Equal(t, "employees_2026-03-10.xlsx", FileName(now, FormatXLSX))
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	res, err := Export(dir, sampleRows(), FormatCSV, now)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "employees_2026-10-16.csv"), res.Path)
	assert.Equal(t, 3, res.Rows)
	assert.Len(t, res.Digest, 64)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, CSV(sampleRows()), string(data))

	again, err := Export(dir, sampleRows(), FormatCSV, now)
	require.NoError(t, err)
	assert.Equal(t, res.Digest, again.Digest)
}

func TestExportXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRows()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Employees")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"ID", "Name", "Email", "Department"}, rows[0])
	assert.Equal(t, "Ben \"B\" Ortiz", rows[2][1])
}

func TestExportUnsupportedFormat(t *testing.T) {
	_, err := Export(t.TempDir(), nil, ExportFormat("pdf"), time.Now())
	assert.Error(t, err)
}
