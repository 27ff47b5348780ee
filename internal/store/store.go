package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/assessment-export/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

const (
	runsTable = "assessment_report_runs"
	rowsTable = "assessment_report_rows"

	sqlInsertRun = `
        INSERT INTO assessment_report_runs (run_id, generated_at, columns, row_count)
        VALUES ($1, $2, $3, $4);
    `
	sqlCountRows = `
        SELECT count(*)
        FROM assessment_report_rows
        WHERE run_id = $1;
    `
)

// rowColumns are the archive columns in CopyFrom order. Every rendered
// column is stored, whatever shape the report was written in.
var rowColumns = []string{
	"run_id", "row_index", "kind",
	"hierarchy", "parent_business_unit", "business_unit", "assessment", "item_id",
	"sub", "email", "score", "last_modified_at", "percent_done", "answered",
}

// Store archives exported reports in PostgreSQL.
type Store struct {
	pool DBPool
	log  *zap.Logger
}

// NewPool opens a pgx connection pool for url.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}
	return pool, nil
}

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
	}, nil
}

// PersistReport records one run and all of its rows in a single transaction.
func (s *Store) PersistReport(ctx context.Context, report *schemas.Report) error {
	if report == nil {
		return errors.New("cannot persist a nil report")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			s.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlInsertRun,
		report.RunID, report.GeneratedAt.UTC(), report.Header(), len(report.Rows),
	); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", runsTable, err)
	}

	if len(report.Rows) > 0 {
		if err := s.persistRows(ctx, tx, report); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.log.Info("Report archived",
		zap.String("run_id", report.RunID),
		zap.Int("rows", len(report.Rows)),
	)
	return nil
}

func (s *Store) persistRows(ctx context.Context, tx pgx.Tx, report *schemas.Report) error {
	rows := make([][]any, len(report.Rows))
	for i, r := range report.Rows {
		rows[i] = []any{
			report.RunID, i, string(r.Kind),
			r.Value(schemas.ColumnHierarchy),
			r.Value(schemas.ColumnParentBusinessUnit),
			r.Value(schemas.ColumnBusinessUnit),
			r.Value(schemas.ColumnAssessment),
			r.Value(schemas.ColumnItemID),
			r.Value(schemas.ColumnSub),
			r.Value(schemas.ColumnEmail),
			r.Value(schemas.ColumnScore),
			r.Value(schemas.ColumnLastModifiedAt),
			r.Value(schemas.ColumnPercentDone),
			r.Value(schemas.ColumnAnswered),
		}
	}

	copyCount, err := tx.CopyFrom(ctx, pgx.Identifier{rowsTable}, rowColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy report rows: %w", err)
	}
	if int(copyCount) != len(rows) {
		return fmt.Errorf("mismatch in copied report rows count: expected %d, got %d", len(rows), copyCount)
	}
	return nil
}

// CountRows returns how many rows are archived for a run.
func (s *Store) CountRows(ctx context.Context, runID string) (int64, error) {
	rows, err := s.pool.Query(ctx, sqlCountRows, runID)
	if err != nil {
		return 0, fmt.Errorf("failed to query report rows: %w", err)
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, fmt.Errorf("failed to scan row count: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error during row iteration: %w", err)
	}
	return count, nil
}
