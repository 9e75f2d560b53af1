package domain

import "context"

// BatchWriter is a transaction-scoped writer for one entity type.
// A writer is used for exactly one batch and must end with Commit or Rollback.
type BatchWriter[T Record] interface {
	Exists(ctx context.Context, id int64) (bool, error)
	Insert(ctx context.Context, rec T) error
	Commit() error
	Rollback() error
}

// Store opens batch writers.
type Store interface {
	BeginDepartments(ctx context.Context) (BatchWriter[Department], error)
	BeginJobs(ctx context.Context) (BatchWriter[Job], error)
	BeginEmployees(ctx context.Context) (BatchWriter[Employee], error)
}

// HiringRepository defines the read side used by the reports
type HiringRepository interface {
	// QuarterlyHires counts employees hired in year per (department, job) and quarter.
	QuarterlyHires(ctx context.Context, year int) ([]QuarterlyHires, error)
	// DepartmentHires lists every department with its hires in year, zero included.
	DepartmentHires(ctx context.Context, year int) ([]DepartmentHires, error)
}

// EmployeeIndex is an optional full-text index over employee names.
type EmployeeIndex interface {
	IndexEmployees(ctx context.Context, employees []Employee) error
	SearchEmployees(ctx context.Context, query string, limit int) ([]Employee, error)
}
