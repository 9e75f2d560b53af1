package ingest

import (
	"context"
	"fmt"

	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/logger"
)

// Writer persists one batch of records through a transaction-scoped BatchWriter.
// Row problems are reported as messages; only the commit decides whether the batch lands.
type Writer[T domain.Record] struct {
	dataset     domain.Dataset
	validate    func(T) error
	afterCommit func(context.Context, []T)
}

// NewWriter returns a writer that re-validates every record with validate before inserting it.
func NewWriter[T domain.Record](ds domain.Dataset, validate func(T) error) *Writer[T] {
	return &Writer[T]{dataset: ds, validate: validate}
}

// OnCommit registers fn to receive the records of every committed batch.
func (w *Writer[T]) OnCommit(fn func(context.Context, []T)) *Writer[T] {
	w.afterCommit = fn
	return w
}

// SaveBatch writes records and commits once. Records whose id already exists
// are skipped silently. On commit failure the batch is rolled back and no
// record of it counts as saved.
func (w *Writer[T]) SaveBatch(ctx context.Context, tx domain.BatchWriter[T], records []T) (int, []string) {
	entity := w.dataset.Entity()
	errs := make([]string, 0)
	inserted := make([]T, 0, len(records))

	for _, rec := range records {
		exists, err := tx.Exists(ctx, rec.Key())
		if err != nil {
			errs = append(errs, fmt.Sprintf("Error saving %s ID %d: %v", entity, rec.Key(), err))
			continue
		}
		if exists {
			continue
		}
		if w.validate != nil {
			if err := w.validate(rec); err != nil {
				errs = append(errs, err.Error())
				continue
			}
		}
		if err := tx.Insert(ctx, rec); err != nil {
			errs = append(errs, fmt.Sprintf("Error saving %s ID %d: %v", entity, rec.Key(), err))
			continue
		}
		inserted = append(inserted, rec)
	}

	if err := tx.Commit(); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.WarnLog(ctx, "rollback %s batch: %v", w.dataset, rbErr)
		}
		logger.ErrorLog(ctx, fmt.Sprintf("commit %s batch of %d", w.dataset, len(records)), err)
		return 0, append(errs, fmt.Sprintf("Database commit error: %v", err))
	}

	if w.afterCommit != nil && len(inserted) > 0 {
		w.afterCommit(ctx, inserted)
	}
	return len(inserted), errs
}
