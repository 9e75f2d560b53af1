package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/locvowork/hiring_analytics/internal/database"
	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/repository/builder"
)

type hiringRepository struct {
	db      *sql.DB
	dialect database.Dialect
}

// NewHiringRepository creates a new instance of HiringRepository
func NewHiringRepository(db *sql.DB, dialect database.Dialect) domain.HiringRepository {
	return &hiringRepository{db: db, dialect: dialect}
}

// quarterBounds returns the five UTC instants delimiting the quarters of year.
func quarterBounds(year int) [5]time.Time {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return [5]time.Time{start, start.AddDate(0, 3, 0), start.AddDate(0, 6, 0), start.AddDate(0, 9, 0), start.AddDate(1, 0, 0)}
}

func (r *hiringRepository) QuarterlyHires(ctx context.Context, year int) ([]domain.QuarterlyHires, error) {
	q := quarterBounds(year)
	b := builder.NewSQLBuilder().WithFormat(r.dialect.Placeholder()).
		Select("d.department", "j.job")
	for i := 0; i < 4; i++ {
		b.SelectExpr(fmt.Sprintf("SUM(CASE WHEN e.hired_at >= ? AND e.hired_at < ? THEN 1 ELSE 0 END) AS q%d", i+1), q[i], q[i+1])
	}
	query, args, err := b.From("employees e").
		Join("INNER", "departments d", "e.department_id = d.id").
		Join("INNER", "jobs j", "e.job_id = j.id").
		Where("e.hired_at >= ?", q[0]).
		Where("e.hired_at < ?", q[4]).
		GroupBy("d.department", "j.job").
		OrderBy("d.department").
		OrderBy("j.job").
		BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("failed to build quarterly hires query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query quarterly hires: %w", err)
	}
	defer rows.Close()

	out := make([]domain.QuarterlyHires, 0)
	for rows.Next() {
		var h domain.QuarterlyHires
		if err := rows.Scan(&h.Department, &h.Job, &h.Q1, &h.Q2, &h.Q3, &h.Q4); err != nil {
			return nil, fmt.Errorf("failed to scan quarterly hires: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quarterly hires: %w", err)
	}
	return out, nil
}

func (r *hiringRepository) DepartmentHires(ctx context.Context, year int) ([]domain.DepartmentHires, error) {
	q := quarterBounds(year)
	query, args, err := builder.NewSQLBuilder().WithFormat(r.dialect.Placeholder()).
		Select("d.id", "d.department", "COUNT(e.id) AS hired").
		From("departments d").
		Join("LEFT", "employees e", "e.department_id = d.id AND e.hired_at >= ? AND e.hired_at < ?", q[0], q[4]).
		GroupBy("d.id", "d.department").
		OrderBy("d.id").
		BuildSafe()
	if err != nil {
		return nil, fmt.Errorf("failed to build department hires query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query department hires: %w", err)
	}
	defer rows.Close()

	out := make([]domain.DepartmentHires, 0)
	for rows.Next() {
		var h domain.DepartmentHires
		if err := rows.Scan(&h.ID, &h.Department, &h.Hired); err != nil {
			return nil, fmt.Errorf("failed to scan department hires: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating department hires: %w", err)
	}
	return out, nil
}
