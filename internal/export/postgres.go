package export

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/condoexport/internal/table"
)

// PgWriter stores every table of one export as jsonb rows tagged with a run id.
// Earlier runs are kept, so exports can be compared over time.
type PgWriter struct {
	pool *pgxpool.Pool
}

// NewPgWriter creates a PostgreSQL table writer.
func NewPgWriter(pool *pgxpool.Pool) *PgWriter {
	return &PgWriter{pool: pool}
}

func (w *PgWriter) Name() string { return "postgres" }

// Write inserts all tables in one transaction.
func (w *PgWriter) Write(ctx context.Context, tables []table.Table) error {
	runID := uuid.New()
	pgID := pgtype.UUID{Bytes: runID, Valid: true}

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning export transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO export_runs (id, table_count) VALUES ($1, $2)`,
		pgID, len(tables)); err != nil {
		return fmt.Errorf("recording export run: %w", err)
	}

	total := 0
	for _, t := range tables {
		rows, err := copyRows(pgID, t)
		if err != nil {
			return err
		}
		total += len(rows)
		if _, err := tx.CopyFrom(ctx,
			pgx.Identifier{"export_rows"},
			[]string{"run_id", "table_name", "row_index", "data"},
			pgx.CopyFromRows(rows),
		); err != nil {
			return fmt.Errorf("copying %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing export run: %w", err)
	}
	slog.Info("postgres export stored", "run_id", runID.String(), "tables", len(tables), "rows", total)
	return nil
}

// copyRows builds the COPY input for one table.
func copyRows(runID pgtype.UUID, t table.Table) ([][]any, error) {
	rows := make([][]any, 0, len(t.Rows))
	for i, row := range t.Rows {
		data, err := row.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("encoding %s row %d: %w", t.Name, i, err)
		}
		rows = append(rows, []any{runID, t.Name, int32(i), data})
	}
	return rows, nil
}
