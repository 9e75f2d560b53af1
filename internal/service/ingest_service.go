package service

import (
	"context"
	"fmt"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/ingest"
	"github.com/locvowork/hiring_analytics/internal/logger"
	"github.com/locvowork/hiring_analytics/internal/metrics"
	"github.com/locvowork/hiring_analytics/pkg/dataflow"
)

// IngestService loads uploaded CSV payloads into storage.
type IngestService interface {
	// Upload decodes payload as dataset and persists the accepted rows.
	// Only malformed input and storage failures that prevent a batch from
	// starting are returned as errors; row problems are reported in the result.
	Upload(ctx context.Context, dataset domain.Dataset, payload []byte) (domain.UploadResult, error)
}

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	BatchSize int
	Bounds    domain.Bounds
}

type ingestService struct {
	store domain.Store
	index domain.EmployeeIndex
	cfg   IngestConfig
}

// NewIngestService creates a new IngestService. index may be nil.
func NewIngestService(store domain.Store, index domain.EmployeeIndex, cfg IngestConfig) IngestService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = ingest.DefaultBatchSize
	}
	if cfg.Bounds == (domain.Bounds{}) {
		cfg.Bounds = domain.DefaultBounds()
	}
	return &ingestService{store: store, index: index, cfg: cfg}
}

func (s *ingestService) Upload(ctx context.Context, ds domain.Dataset, payload []byte) (domain.UploadResult, error) {
	ctx = logger.WithLogger(ctx, map[string]interface{}{
		"dataset":  string(ds),
		"bytes":    len(payload),
		"checksum": fmt.Sprintf("%016x", xxh3.Hash(payload)),
	})
	logger.InfoLog(ctx, "upload received")

	switch ds {
	case domain.DatasetDepartments:
		recs, err := decodeStep(ctx, ds, func() ([]domain.Department, ingest.DecodeStats, error) {
			return ingest.DecodeDepartments(ctx, payload)
		})
		if err != nil {
			return domain.UploadResult{}, err
		}
		w := ingest.NewWriter(ds, ingest.ValidateDepartment)
		return finish(ctx, ds, "Departments uploaded successfully", persist(ctx, ds, s.store.BeginDepartments, w, ingest.Split(recs, 0)))

	case domain.DatasetJobs:
		recs, err := decodeStep(ctx, ds, func() ([]domain.Job, ingest.DecodeStats, error) {
			return ingest.DecodeJobs(ctx, payload)
		})
		if err != nil {
			return domain.UploadResult{}, err
		}
		w := ingest.NewWriter(ds, ingest.ValidateJob)
		return finish(ctx, ds, "Jobs uploaded successfully", persist(ctx, ds, s.store.BeginJobs, w, ingest.Split(recs, 0)))

	case domain.DatasetEmployees:
		recs, err := decodeStep(ctx, ds, func() ([]domain.Employee, ingest.DecodeStats, error) {
			return ingest.DecodeEmployees(ctx, payload, s.cfg.Bounds)
		})
		if err != nil {
			return domain.UploadResult{}, err
		}
		bounds := s.cfg.Bounds
		w := ingest.NewWriter(ds, func(e domain.Employee) error { return ingest.ValidateEmployee(e, bounds) })
		if s.index != nil {
			w.OnCommit(s.indexEmployees)
		}
		batches := ingest.Split(recs, s.cfg.BatchSize)
		msg := fmt.Sprintf("Employees uploaded successfully in %d batches", len(batches))
		return finish(ctx, ds, msg, persist(ctx, ds, s.store.BeginEmployees, w, batches))
	}

	return domain.UploadResult{}, fmt.Errorf("%w: %q", domain.ErrUnknownDataset, ds)
}

const (
	indexChunkSize = 500
	indexWorkers   = 2
	indexRetries   = 2
)

// indexEmployees mirrors committed employees into the search index. Failures are only logged.
func (s *ingestService) indexEmployees(ctx context.Context, employees []domain.Employee) {
	chunks := ingest.Split(employees, indexChunkSize)
	_ = dataflow.ForEach(ctx, dataflow.From(ctx, chunks...),
		func(chunk []domain.Employee) error {
			return s.index.IndexEmployees(ctx, chunk)
		},
		dataflow.WithWorkers(indexWorkers),
		dataflow.WithRetry(indexRetries, func(attempt int) time.Duration {
			return time.Duration(attempt) * 100 * time.Millisecond
		}),
		dataflow.WithErrorHandler(func(err error) bool {
			logger.WarnLog(ctx, "index employees: %v", err)
			return true
		}),
	)
}

func decodeStep[T any](ctx context.Context, ds domain.Dataset, decode func() ([]T, ingest.DecodeStats, error)) ([]T, error) {
	start := time.Now()
	recs, stats, err := decode()
	metrics.RecordStep(string(ds), "decode", err, time.Since(start))
	if err != nil {
		logger.ErrorLog(ctx, "decode failed", err)
		return nil, err
	}
	metrics.RecordRows(string(ds), "read", stats.Read)
	metrics.RecordRows(string(ds), "dropped", stats.Dropped)
	logger.InfoLog(ctx, "decoded %d rows, %d accepted, %d dropped", stats.Read, stats.Accepted, stats.Dropped)
	return recs, nil
}

type persistResult struct {
	saved int
	errs  []string
	err   error
}

// persist runs one transaction per batch; batches commit independently.
func persist[T domain.Record](
	ctx context.Context,
	ds domain.Dataset,
	begin func(context.Context) (domain.BatchWriter[T], error),
	w *ingest.Writer[T],
	batches [][]T,
) persistResult {
	res := persistResult{errs: make([]string, 0)}
	for i, batch := range batches {
		start := time.Now()
		tx, err := begin(ctx)
		if err != nil {
			metrics.RecordStep(string(ds), "persist", err, time.Since(start))
			res.err = fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
			return res
		}

		saved, errs := w.SaveBatch(ctx, tx, batch)
		metrics.RecordStep(string(ds), "persist", nil, time.Since(start))
		metrics.RecordBatches(string(ds), 1)
		metrics.RecordRows(string(ds), "saved", saved)
		metrics.RecordRows(string(ds), "failed", len(errs))
		logger.DebugLog(ctx, "batch %d/%d: %d saved, %d errors", i+1, len(batches), saved, len(errs))

		res.saved += saved
		res.errs = append(res.errs, errs...)
	}
	return res
}

func finish(ctx context.Context, ds domain.Dataset, msg string, res persistResult) (domain.UploadResult, error) {
	if res.err != nil {
		logger.ErrorLog(ctx, "persist failed", res.err)
		return domain.UploadResult{}, res.err
	}
	logger.InfoLog(ctx, "%s: %d saved, %d errors", ds, res.saved, len(res.errs))
	return domain.UploadResult{Message: msg, ProcessedRows: res.saved, Errors: res.errs}, nil
}
