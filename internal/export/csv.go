package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/renameio/v2"

	"github.com/mtlprog/condoexport/internal/table"
)

// EncodeCSV serializes a table with its header as the first record.
func EncodeCSV(t table.Table) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(t.Records()); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", t.Name, err)
	}
	return buf.Bytes(), nil
}

// CSVWriter writes each table to <dir>/<table name>.csv.
type CSVWriter struct {
	dir string
}

// NewCSVWriter creates a CSVWriter rooted at dir.
func NewCSVWriter(dir string) *CSVWriter {
	return &CSVWriter{dir: dir}
}

func (w *CSVWriter) Name() string { return "csv" }

// Write replaces each file atomically, one table at a time. A failure leaves
// the files already written intact.
func (w *CSVWriter) Write(ctx context.Context, tables []table.Table) error {
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := EncodeCSV(t)
		if err != nil {
			return err
		}
		target := filepath.Join(w.dir, filepath.FromSlash(t.Name)+".csv")
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("creating directory for %s: %w", t.Name, err)
		}
		if err := renameio.WriteFile(target, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", t.Name, err)
		}
	}
	return nil
}
