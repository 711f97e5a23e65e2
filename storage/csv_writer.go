package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"usgs-water-summary/models"
)

// CSVWriter writes the cleaned series to a delimited file, one row per
// reading, header included and no index column.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer for path. The file is only created on Write,
// so a run that stops early leaves the previous output untouched.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the output location.
func (c *CSVWriter) Path() string { return c.path }

// Write creates (or truncates) the file and writes every reading.
func (c *CSVWriter) Write(series *models.Series) error {
	if err := ensureDir(c.path); err != nil {
		return err
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("%w: csv: create file %q: %v", models.ErrIO, c.path, err)
	}

	w := csv.NewWriter(f)

	if err := w.Write(series.Columns); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: csv: write header: %v", models.ErrIO, err)
	}

	row := make([]string, len(series.Columns))
	for _, r := range series.Readings {
		for i, col := range series.Columns {
			row[i] = cellValue(r, col)
		}
		if err := w.Write(row); err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: csv: write row: %v", models.ErrIO, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: csv: flush: %v", models.ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: csv: close %q: %v", models.ErrIO, c.path, err)
	}
	return nil
}

func cellValue(r models.Reading, col string) string {
	switch col {
	case models.ColumnTimestamp:
		return r.Timestamp.Format(models.TimestampLayout)
	case models.ColumnDischarge:
		return models.FormatDischarge(r.Discharge)
	case models.ColumnApprovalStatus:
		return r.ApprovalStatus
	default:
		return r.Fields[col]
	}
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%w: create output dir %q: %v", models.ErrIO, dir, err)
	}
	return nil
}
