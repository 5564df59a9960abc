// Package fs provides file-based audit output for scraped record batches.
package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/fwojciec/profdir"
)

// Ensure AuditWriter implements profdir.AuditWriter at compile time.
var _ profdir.AuditWriter = (*AuditWriter)(nil)

// AuditWriter writes the validated record batch to a flat JSON array file.
// The file is regenerated on every run as an inspection trail independent
// of store success or failure.
type AuditWriter struct {
	path string
}

// NewAuditWriter creates an AuditWriter that writes to the given path.
func NewAuditWriter(path string) *AuditWriter {
	return &AuditWriter{path: path}
}

// Path returns the audit file path.
func (w *AuditWriter) Path() string {
	return w.path
}

// WriteBatch writes records as an indented JSON array. The write is atomic:
// content goes to a temp file in the same directory, then renames over the
// target, so a crash never leaves a truncated audit file.
func (w *AuditWriter) WriteBatch(ctx context.Context, records []*profdir.ProfessorRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if records == nil {
		records = []*profdir.ProfessorRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".audit-*.json")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, w.path)
}
