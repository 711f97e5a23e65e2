package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"usgs-water-summary/models"
)

// JSONWriter writes the summary document with four-space indentation.
type JSONWriter struct {
	path string
}

func NewJSONWriter(path string) *JSONWriter {
	return &JSONWriter{path: path}
}

// Path returns the output location.
func (j *JSONWriter) Path() string { return j.path }

func (j *JSONWriter) Write(doc models.SummaryDocument) error {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return fmt.Errorf("json: encode summary: %w", err)
	}

	if err := ensureDir(j.path); err != nil {
		return err
	}
	if err := os.WriteFile(j.path, data, 0644); err != nil {
		return fmt.Errorf("%w: json: write %q: %v", models.ErrIO, j.path, err)
	}
	return nil
}
