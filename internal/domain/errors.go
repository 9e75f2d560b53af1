package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrSearchDisabled is returned when no search index is configured.
	ErrSearchDisabled = errors.New("employee search is not configured")
	// ErrUnknownDataset is returned for an upload target that does not exist.
	ErrUnknownDataset = errors.New("unknown dataset")
)

// MalformedInputError aborts a whole upload: the payload could not be
// tokenised as CSV with the expected shape.
type MalformedInputError struct {
	Dataset Dataset
	Err     error
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed %s csv: %v", e.Dataset, e.Err)
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// RowValidationError describes a record rejected at persistence time.
type RowValidationError struct {
	Entity string
	ID     int64
	Reason string
}

func (e *RowValidationError) Error() string {
	return fmt.Sprintf("Invalid data for %s ID %d", e.Entity, e.ID)
}
