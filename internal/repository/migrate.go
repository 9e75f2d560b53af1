package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/locvowork/hiring_analytics/internal/database"
)

var ansiSchema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id BIGINT PRIMARY KEY,
		department VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id BIGINT PRIMARY KEY,
		job VARCHAR(255) NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS employees (
		id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		hired_at TIMESTAMP NOT NULL,
		department_id BIGINT NULL REFERENCES departments(id),
		job_id BIGINT NULL REFERENCES jobs(id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_employees_hired_at ON employees (hired_at)`,
}

var sqlServerSchema = []string{
	`IF OBJECT_ID(N'departments', N'U') IS NULL
	CREATE TABLE departments (
		id BIGINT NOT NULL PRIMARY KEY,
		department NVARCHAR(255) NOT NULL UNIQUE
	)`,
	`IF OBJECT_ID(N'jobs', N'U') IS NULL
	CREATE TABLE jobs (
		id BIGINT NOT NULL PRIMARY KEY,
		job NVARCHAR(255) NOT NULL UNIQUE
	)`,
	`IF OBJECT_ID(N'employees', N'U') IS NULL
	CREATE TABLE employees (
		id BIGINT NOT NULL PRIMARY KEY,
		name NVARCHAR(255) NOT NULL,
		hired_at DATETIME2 NOT NULL,
		department_id BIGINT NULL REFERENCES departments(id),
		job_id BIGINT NULL REFERENCES jobs(id)
	)`,
	`IF NOT EXISTS (SELECT 1 FROM sys.indexes WHERE name = N'idx_employees_hired_at')
	CREATE INDEX idx_employees_hired_at ON employees (hired_at)`,
}

// Migrate creates the schema if it does not exist yet. It is safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB, dialect database.Dialect) error {
	stmts := ansiSchema
	if dialect == database.SQLServer {
		stmts = sqlServerSchema
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}
	return nil
}
