package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Constraint classes reported by the drivers.
const (
	UniqueViolation     = "unique_violation"
	ForeignKeyViolation = "foreign_key_violation"
	NotNullViolation    = "not_null_violation"
)

// ConstraintClass maps a driver error to a constraint class, or "" if it is not a constraint error.
func ConstraintClass(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pgClass(string(pqErr.Code))
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgClass(pgErr.Code)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return UniqueViolation
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return ForeignKeyViolation
		case sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return NotNullViolation
		}
		return ""
	}
	var msErr mssql.Error
	if errors.As(err, &msErr) {
		switch msErr.Number {
		case 2601, 2627:
			return UniqueViolation
		case 547:
			return ForeignKeyViolation
		case 515:
			return NotNullViolation
		}
	}
	return ""
}

func pgClass(code string) string {
	switch code {
	case "23505":
		return UniqueViolation
	case "23503":
		return ForeignKeyViolation
	case "23502":
		return NotNullViolation
	}
	return ""
}

// describe tags constraint violations with their class.
func describe(err error) error {
	if class := ConstraintClass(err); class != "" {
		return fmt.Errorf("%w (%s)", err, class)
	}
	return err
}
