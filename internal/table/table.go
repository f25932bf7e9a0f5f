package table

// Table is a named, fully materialized sequence of rows.
// Name is slash separated and doubles as the relative export path.
type Table struct {
	Name string
	Rows []Row
}

// Header returns the union of row keys in first-seen order.
func (t Table) Header() []string {
	seen := make(map[string]bool)
	var header []string
	for _, row := range t.Rows {
		for _, k := range row.Keys() {
			if !seen[k] {
				seen[k] = true
				header = append(header, k)
			}
		}
	}
	return header
}

// Records returns the header followed by one cell slice per row.
// Rows missing a header column get an empty cell.
func (t Table) Records() [][]string {
	header := t.Header()
	records := make([][]string, 0, len(t.Rows)+1)
	records = append(records, header)
	for _, row := range t.Rows {
		cells := make([]string, len(header))
		for i, k := range header {
			cells[i] = row.Cell(k)
		}
		records = append(records, cells)
	}
	return records
}
