package export

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/condoexport/internal/table"
)

// defaultSheet is created by excelize.NewFile.
const defaultSheet = "Sheet1"

// XLSXWriter writes every table into one workbook, one sheet per table.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter saving to path.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (w *XLSXWriter) Name() string { return "xlsx" }

func (w *XLSXWriter) Write(ctx context.Context, tables []table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9EAD3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	names := sheetNames(tables)
	for i, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeSheet(f, names[i], t, headerStyle); err != nil {
			return fmt.Errorf("writing sheet %s: %w", names[i], err)
		}
	}

	if len(tables) > 0 {
		if !lo.Contains(names, defaultSheet) {
			if err := f.DeleteSheet(defaultSheet); err != nil {
				return fmt.Errorf("removing default sheet: %w", err)
			}
		}
		idx, err := f.GetSheetIndex(names[0])
		if err != nil {
			return fmt.Errorf("locating first sheet: %w", err)
		}
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, name string, t table.Table, headerStyle int) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	for i, record := range typedRecords(t) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &record); err != nil {
			return err
		}
	}

	if err := f.SetRowStyle(name, 1, 1, headerStyle); err != nil {
		return err
	}
	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
