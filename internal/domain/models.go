package domain

import "time"

// Dataset identifies one of the uploadable CSV files.
type Dataset string

const (
	DatasetDepartments Dataset = "departments"
	DatasetJobs        Dataset = "jobs"
	DatasetEmployees   Dataset = "employees"
)

// Entity returns the singular record name used in row messages.
func (d Dataset) Entity() string {
	switch d {
	case DatasetDepartments:
		return "department"
	case DatasetJobs:
		return "job"
	case DatasetEmployees:
		return "employee"
	}
	return string(d)
}

// Valid reports whether d is a known dataset.
func (d Dataset) Valid() bool {
	return d == DatasetDepartments || d == DatasetJobs || d == DatasetEmployees
}

// Record is implemented by every persisted entity.
type Record interface {
	Key() int64
}

// ==================== ENTITIES ====================

// Department represents the departments table
type Department struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"department" db:"department"`
}

func (d Department) Key() int64 { return d.ID }

// Job represents the jobs table
type Job struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"job" db:"job"`
}

func (j Job) Key() int64 { return j.ID }

// Employee represents a single hiring event in the employees table.
// DepartmentID and JobID are nullable.
type Employee struct {
	ID           int64     `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	HiredAt      time.Time `json:"datetime" db:"hired_at"`
	DepartmentID *int64    `json:"department_id" db:"department_id"`
	JobID        *int64    `json:"job_id" db:"job_id"`
}

func (e Employee) Key() int64 { return e.ID }

// ==================== REPORTS ====================

// QuarterlyHires is one (department, job) row of the hiring-by-quarter report.
type QuarterlyHires struct {
	Department string `json:"department"`
	Job        string `json:"job"`
	Q1         int64  `json:"Q1"`
	Q2         int64  `json:"Q2"`
	Q3         int64  `json:"Q3"`
	Q4         int64  `json:"Q4"`
}

// DepartmentHires holds the number of hires of a department in the report year.
type DepartmentHires struct {
	ID         int64  `json:"id"`
	Department string `json:"department"`
	Hired      int64  `json:"hired"`
}

// UploadResult is returned for every accepted upload.
type UploadResult struct {
	Message       string   `json:"message"`
	ProcessedRows int      `json:"processed_rows"`
	Errors        []string `json:"errors"`
}

// Bounds are the accepted ranges for employee foreign keys.
type Bounds struct {
	DepartmentMin int64
	DepartmentMax int64
	JobMin        int64
	JobMax        int64
}

// DefaultBounds returns the ranges of the standard department and job catalogues.
func DefaultBounds() Bounds {
	return Bounds{DepartmentMin: 1, DepartmentMax: 12, JobMin: 1, JobMax: 183}
}
