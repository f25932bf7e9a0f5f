package export

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/condoexport/internal/table"
)

// SheetsWriter implements TableWriter using the Google Sheets API.
// Each table gets its own tab, cleared and rewritten on every export.
type SheetsWriter struct {
	spreadsheetID string
	maxRows       int
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
// Tables with more than maxRows rows are skipped with a warning.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string, maxRows int) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, maxRows: maxRows, svc: svc}, nil
}

func (w *SheetsWriter) Name() string { return "sheets" }

// Write ensures a tab exists per table, then clears and rewrites all of them.
func (w *SheetsWriter) Write(ctx context.Context, tables []table.Table) error {
	var (
		kept  []table.Table
		names []string
	)
	allNames := sheetNames(tables)
	for i, t := range tables {
		if w.maxRows > 0 && len(t.Rows) > w.maxRows {
			slog.Warn("sheets: table too large, skipping", "table", t.Name, "rows", len(t.Rows), "max", w.maxRows)
			continue
		}
		kept = append(kept, t)
		names = append(names, allNames[i])
	}
	if len(kept) == 0 {
		return nil
	}

	ids, err := w.ensureSheets(ctx, names...)
	if err != nil {
		return err
	}

	ranges := make([]string, len(names))
	data := make([]*sheets.ValueRange, len(names))
	for i, t := range kept {
		ranges[i] = quoteSheet(names[i])
		data[i] = &sheets.ValueRange{Range: quoteSheet(names[i]) + "!A1", Values: buildValues(t)}
	}

	_, err = w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{Ranges: ranges},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "RAW",
			Data:             data,
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	reqs := make([]*sheets.Request, 0, 2*len(names))
	for _, name := range names {
		reqs = append(reqs, headerFormatRequests(ids[name])...)
	}
	_, err = w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("formatting sheets: %w", err)
	}

	return nil
}

// buildValues converts a table into the Sheets value grid.
func buildValues(t table.Table) [][]any {
	return typedRecords(t)
}

func quoteSheet(name string) string {
	return "'" + name + "'"
}

// headerFormatRequests bolds and freezes the header row of a sheet.
func headerFormatRequests(sheetID int64) []*sheets.Request {
	// #D9EAD3, light green
	lightGreen := &sheets.Color{Red: 0.851, Green: 0.918, Blue: 0.827}

	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:         sheetID,
					StartRowIndex:   0,
					EndRowIndex:     1,
					ForceSendFields: []string{"SheetId", "StartRowIndex"},
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: lightGreen,
						TextFormat:      &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat(backgroundColor,textFormat)",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:         sheetID,
					GridProperties:  &sheets.GridProperties{FrozenRowCount: 1},
					ForceSendFields: []string{"SheetId"},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
}

// ensureSheets creates any of the named sheets that do not already exist and
// returns the sheet id of every requested name.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) (map[string]int64, error) {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	ids := make(map[string]int64, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		ids[s.Properties.Title] = s.Properties.SheetId
	}

	var requests []*sheets.Request
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return ids, nil
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating sheets: %w", err)
	}
	for _, reply := range resp.Replies {
		if reply.AddSheet != nil && reply.AddSheet.Properties != nil {
			ids[reply.AddSheet.Properties.Title] = reply.AddSheet.Properties.SheetId
		}
	}

	return ids, nil
}
