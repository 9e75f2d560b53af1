package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/metrics"
)

// DefaultReportYear is the calendar year both reports cover.
const DefaultReportYear = 2021

// HiringService computes the hiring reports.
type HiringService interface {
	// HiringByQuarter returns per (department, job) hire counts for each quarter
	// of the report year, ordered by department then job.
	HiringByQuarter(ctx context.Context) ([]domain.QuarterlyHires, error)
	// DepartmentsAboveAverage returns departments that hired strictly more than
	// the mean across all departments, ordered by hires descending.
	DepartmentsAboveAverage(ctx context.Context) ([]domain.DepartmentHires, error)
}

type hiringService struct {
	repo domain.HiringRepository
	year int
}

// NewHiringService creates a new HiringService for the given report year.
func NewHiringService(repo domain.HiringRepository, year int) HiringService {
	if year == 0 {
		year = DefaultReportYear
	}
	return &hiringService{repo: repo, year: year}
}

func (s *hiringService) HiringByQuarter(ctx context.Context) ([]domain.QuarterlyHires, error) {
	start := time.Now()
	rows, err := s.repo.QuarterlyHires(ctx, s.year)
	metrics.RecordStep("report", "hiring_by_quarter", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("hiring by quarter: %w", err)
	}

	// database collations differ, the report is ordered by byte value
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Department != rows[j].Department {
			return rows[i].Department < rows[j].Department
		}
		return rows[i].Job < rows[j].Job
	})
	if rows == nil {
		rows = []domain.QuarterlyHires{}
	}
	return rows, nil
}

func (s *hiringService) DepartmentsAboveAverage(ctx context.Context) ([]domain.DepartmentHires, error) {
	start := time.Now()
	all, err := s.repo.DepartmentHires(ctx, s.year)
	metrics.RecordStep("report", "departments_above_average", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("departments above average: %w", err)
	}
	return AboveAverage(all), nil
}

// AboveAverage keeps departments whose hires are strictly greater than the
// mean over all given departments, zero-hire departments included.
// The result is sorted by hires descending, then id ascending.
func AboveAverage(all []domain.DepartmentHires) []domain.DepartmentHires {
	out := make([]domain.DepartmentHires, 0)
	if len(all) == 0 {
		return out
	}

	var total int64
	for _, d := range all {
		total += d.Hired
	}
	mean := float64(total) / float64(len(all))

	for _, d := range all {
		if float64(d.Hired) > mean {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Hired != out[j].Hired {
			return out[i].Hired > out[j].Hired
		}
		return out[i].ID < out[j].ID
	})
	return out
}
