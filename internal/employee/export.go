package employee

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"github.com/zeebo/blake3"
)

// ExportFormat selects the export file type.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
)

var exportHeader = []string{"ID", "Name", "Email", "Department"}

// CSV renders rows as comma-separated text: a header line followed by one
// line per row, joined by "\n" with no trailing newline. Text fields are
// always quoted with inner quotes doubled; the ID is written bare.
func CSV(rows []Employee) string {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(exportHeader, ","))
	for _, e := range rows {
		lines = append(lines, strings.Join([]string{
			strconv.FormatInt(e.ID, 10),
			quote(e.Name),
			quote(e.Email),
			quote(e.DepartmentName()),
		}, ","))
	}
	return strings.Join(lines, "\n")
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// WriteXLSX writes rows to a single-sheet workbook.
func WriteXLSX(w io.Writer, rows []Employee) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Employees"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, e := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.ID, e.Name, e.Email, e.DepartmentName()}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// FileName returns employees_<YYYY-MM-DD>.<ext> for the UTC date of now.
func FileName(now time.Time, format ExportFormat) string {
	return fmt.Sprintf("employees_%s.%s", now.UTC().Format("2006-01-02"), format)
}

// ExportResult describes a written export file.
type ExportResult struct {
	Path   string
	Rows   int
	Digest string
}

// Export writes the currently loaded rows to dir and returns the file's path
// and BLAKE3 digest. It never touches the network.
func Export(dir string, rows []Employee, format ExportFormat, now time.Time) (*ExportResult, error) {
	var buf bytes.Buffer
	switch format {
	case FormatCSV, "":
		format = FormatCSV
		buf.WriteString(CSV(rows))
	case FormatXLSX:
		if err := WriteXLSX(&buf, rows); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}

	path := filepath.Join(dir, FileName(now, format))
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}

	sum := blake3.Sum256(buf.Bytes())
	return &ExportResult{
		Path:   path,
		Rows:   len(rows),
		Digest: hex.EncodeToString(sum[:]),
	}, nil
}
