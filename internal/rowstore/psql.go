package rowstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
)

var _ Store = (*PsqlStore)(nil)

// pgxIface is satisfied by *pgxpool.Pool and by pgxmock pools.
type pgxIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const psqlSchema = `
CREATE TABLE IF NOT EXISTS rowstore_header (
	sheet   TEXT PRIMARY KEY,
	columns TEXT[] NOT NULL
);
CREATE TABLE IF NOT EXISTS rowstore_row (
	id         BIGSERIAL PRIMARY KEY,
	sheet      TEXT NOT NULL REFERENCES rowstore_header (sheet),
	cells      TEXT[] NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS rowstore_row_sheet_idx ON rowstore_row (sheet, id);`

// PsqlStore emulates spreadsheet tabs on top of two postgres tables.
type PsqlStore struct {
	db pgxIface
}

func NewPsqlStore(db pgxIface) *PsqlStore {
	return &PsqlStore{
		db: db,
	}
}

// Migrate creates the backing tables if needed.
func (s *PsqlStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, psqlSchema); err != nil {
		return classifyPsqlErr("schema", err)
	}
	return nil
}

func (s *PsqlStore) ReadAll(ctx context.Context, table string) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "rowstore.psql.readall")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", table))

	header, err := s.header(ctx, table)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		ctx,
		`SELECT cells FROM rowstore_row WHERE sheet = $1 ORDER BY id;`,
		table,
	)
	if err != nil {
		return nil, classifyPsqlErr(table, err)
	}
	defer rows.Close()

	var cells [][]string
	for rows.Next() {
		var c []string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPsqlErr(table, err)
	}

	span.SetAttributes(attribute.Int("rows", len(cells)))
	return toRecords(header, cells), nil
}

func (s *PsqlStore) header(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.Query(
		ctx,
		`SELECT columns FROM rowstore_header WHERE sheet = $1;`,
		table,
	)
	if err != nil {
		return nil, classifyPsqlErr(table, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, classifyPsqlErr(table, err)
		}
		return nil, fmt.Errorf("%w: %s", ErrMissingTable, table)
	}

	var header []string
	if err := rows.Scan(&header); err != nil {
		return nil, fmt.Errorf("header scan: %w", err)
	}
	return header, nil
}

func (s *PsqlStore) AppendRow(ctx context.Context, table string, row Row) error {
	return s.AppendRows(ctx, table, []Row{row})
}

// AppendRows inserts all rows in one transaction, so a batch lands entirely or not at all.
func (s *PsqlStore) AppendRows(ctx context.Context, table string, rows []Row) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "rowstore.psql.appendrows")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("table", table), attribute.Int("rows", len(rows)))

	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return classifyPsqlErr(table, err)
	}

	for _, row := range rows {
		if _, err := tx.Exec(
			ctx,
			`INSERT INTO rowstore_row (sheet, cells) VALUES ($1, $2);`,
			table, []string(row),
		); err != nil {
			_ = tx.Rollback(ctx)
			return classifyPsqlErr(table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyPsqlErr(table, err)
	}
	return nil
}

func (s *PsqlStore) DistinctValues(ctx context.Context, table, column string) ([]string, error) {
	return distinctValues(ctx, s, table, column)
}

func (s *PsqlStore) EnsureTable(ctx context.Context, table string, header []string) error {
	if _, err := s.db.Exec(
		ctx,
		`INSERT INTO rowstore_header (sheet, columns) VALUES ($1, $2) ON CONFLICT (sheet) DO NOTHING;`,
		table, header,
	); err != nil {
		return classifyPsqlErr(table, err)
	}
	return nil
}

func classifyPsqlErr(table string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case pkg.IsForeignKeyViolationError(err), pkg.IsUndefinedTableError(err):
		return fmt.Errorf("%w: %s", ErrMissingTable, table)
	case pkg.IsPgError(err):
		return fmt.Errorf("psql table %s: %w", table, err)
	default:
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
}
