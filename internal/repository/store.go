package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/locvowork/hiring_analytics/internal/database"
	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/repository/builder"
)

type store struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewStore creates a new instance of domain.Store
func NewStore(db *sql.DB, dialect database.Dialect) domain.Store {
	return &store{db: db, dialect: dialect}
}

func (s *store) BeginDepartments(ctx context.Context) (domain.BatchWriter[domain.Department], error) {
	return begin(ctx, s, "departments", []string{"id", "department"}, func(d domain.Department) []interface{} {
		return []interface{}{d.ID, d.Name}
	})
}

func (s *store) BeginJobs(ctx context.Context) (domain.BatchWriter[domain.Job], error) {
	return begin(ctx, s, "jobs", []string{"id", "job"}, func(j domain.Job) []interface{} {
		return []interface{}{j.ID, j.Name}
	})
}

func (s *store) BeginEmployees(ctx context.Context) (domain.BatchWriter[domain.Employee], error) {
	return begin(ctx, s, "employees", []string{"id", "name", "hired_at", "department_id", "job_id"}, func(e domain.Employee) []interface{} {
		return []interface{}{e.ID, e.Name, e.HiredAt.UTC(), e.DepartmentID, e.JobID}
	})
}

func begin[T domain.Record](ctx context.Context, s *store, table string, columns []string, values func(T) []interface{}) (*txWriter[T], error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin %s transaction: %w", table, err)
	}
	return &txWriter[T]{tx: tx, dialect: s.dialect, table: table, columns: columns, values: values}, nil
}

// txWriter inserts rows of one table inside a single transaction.
// Every insert runs under its own savepoint so a rejected row leaves the transaction usable.
type txWriter[T domain.Record] struct {
	tx      *sql.Tx
	dialect database.Dialect
	table   string
	columns []string
	values  func(T) []interface{}
	seq     int
}

func (w *txWriter[T]) sql() *builder.SQLBuilder {
	return builder.NewSQLBuilder().WithFormat(w.dialect.Placeholder())
}

func (w *txWriter[T]) Exists(ctx context.Context, id int64) (bool, error) {
	query, args, err := w.sql().Select("1").From(w.table).Where("id = ?", id).BuildSafe()
	if err != nil {
		return false, fmt.Errorf("failed to build %s lookup: %w", w.table, err)
	}

	var one int
	err = w.tx.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s %d: %w", w.table, id, describe(err))
	}
	return true, nil
}

func (w *txWriter[T]) Insert(ctx context.Context, rec T) error {
	query, args, err := w.sql().Insert(w.table, w.columns...).Values(w.values(rec)...).BuildSafe()
	if err != nil {
		return fmt.Errorf("failed to build %s insert: %w", w.table, err)
	}

	w.seq++
	sp := fmt.Sprintf("row_%d", w.seq)
	if _, err := w.tx.ExecContext(ctx, w.dialect.Savepoint(sp)); err != nil {
		return fmt.Errorf("failed to open savepoint: %w", describe(err))
	}

	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		if _, rbErr := w.tx.ExecContext(ctx, w.dialect.RollbackTo(sp)); rbErr != nil {
			return fmt.Errorf("%v (rollback to savepoint failed: %w)", describe(err), rbErr)
		}
		return describe(err)
	}

	if release := w.dialect.Release(sp); release != "" {
		if _, err := w.tx.ExecContext(ctx, release); err != nil {
			return fmt.Errorf("failed to release savepoint: %w", describe(err))
		}
	}
	return nil
}

func (w *txWriter[T]) Commit() error {
	if err := w.tx.Commit(); err != nil {
		return describe(err)
	}
	return nil
}

func (w *txWriter[T]) Rollback() error {
	if err := w.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
