// Package export writes aggregated tables to their destinations.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mtlprog/condoexport/internal/table"
)

// TableWriter writes a complete set of tables to one destination.
type TableWriter interface {
	Name() string
	Write(ctx context.Context, tables []table.Table) error
}

// Service fans the same tables out to every configured writer, in order.
type Service struct {
	writers []TableWriter
}

// NewService creates an export Service.
func NewService(writers ...TableWriter) *Service {
	return &Service{writers: writers}
}

// Export runs each writer in turn and stops at the first failure. Whatever
// earlier writers produced stays in place.
func (s *Service) Export(ctx context.Context, tables []table.Table) error {
	for _, w := range s.writers {
		if err := w.Write(ctx, tables); err != nil {
			return fmt.Errorf("%s export: %w", w.Name(), err)
		}
		slog.Info("export completed", "writer", w.Name(), "tables", len(tables))
	}
	return nil
}

const maxSheetNameLen = 31

// sheetNames maps table names to unique spreadsheet tab titles.
// Budget tables become "budget <label>"; characters spreadsheets reject are replaced.
func sheetNames(tables []table.Table) []string {
	replacer := strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")", "'", "")
	used := make(map[string]bool, len(tables))
	names := make([]string, len(tables))
	for i, t := range tables {
		name := t.Name
		if label, ok := strings.CutPrefix(name, "annual-budgets/"); ok {
			name = "budget " + label
		}
		name = truncateRunes(replacer.Replace(name), maxSheetNameLen)
		if name == "" {
			name = "table"
		}

		candidate := name
		for n := 2; used[strings.ToLower(candidate)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			candidate = truncateRunes(name, maxSheetNameLen-len(suffix)) + suffix
		}
		used[strings.ToLower(candidate)] = true
		names[i] = candidate
	}
	return names
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// typedValue converts a raw JSON cell into a spreadsheet value: numbers and
// booleans keep their type, everything else is rendered as text.
func typedValue(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return ""
	}
	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err == nil {
			return b
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err == nil {
			if f, err := n.Float64(); err == nil {
				return f
			}
		}
	}
	return table.FormatCell(trimmed)
}

// typedRecords returns the header row followed by typed data rows.
func typedRecords(t table.Table) [][]any {
	header := t.Header()
	out := make([][]any, 0, len(t.Rows)+1)
	head := make([]any, len(header))
	for i, h := range header {
		head[i] = h
	}
	out = append(out, head)
	for _, row := range t.Rows {
		cells := make([]any, len(header))
		for i, k := range header {
			raw, _ := row.Get(k)
			cells[i] = typedValue(raw)
		}
		out = append(out, cells)
	}
	return out
}
