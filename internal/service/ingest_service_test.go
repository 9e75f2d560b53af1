package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hiring_analytics/internal/database"
	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/repository"
)

type fixture struct {
	db     *sql.DB
	ingest IngestService
	hiring HiringService
	index  *fakeIndex
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed []int64
}

func (f *fakeIndex) IndexEmployees(_ context.Context, employees []domain.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range employees {
		f.indexed = append(f.indexed, e.ID)
	}
	return errors.New("index unavailable")
}

func (f *fakeIndex) SearchEmployees(context.Context, string, int) ([]domain.Employee, error) {
	return nil, nil
}

func newFixture(t *testing.T, batchSize int) *fixture {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.SQLite, DSN: "file::memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(ctx, db, database.SQLite))

	idx := &fakeIndex{}
	return &fixture{
		db:     db,
		ingest: NewIngestService(repository.NewStore(db, database.SQLite), idx, IngestConfig{BatchSize: batchSize}),
		hiring: NewHiringService(repository.NewHiringRepository(db, database.SQLite), 2021),
		index:  idx,
	}
}

func (f *fixture) upload(t *testing.T, ds domain.Dataset, payload string) domain.UploadResult {
	t.Helper()
	res, err := f.ingest.Upload(context.Background(), ds, []byte(payload))
	require.NoError(t, err)
	return res
}

const (
	departmentsCSV = "1,Engineering\n2,Sales\n3,Marketing\n"
	jobsCSV        = "1,Software Engineer\n2,Sales Manager\n3,Marketing Specialist\n"
	employeesCSV   = "1,John Doe,2021-01-15T10:30:00Z,1,1\n" +
		"2,Jane Smith,2021-02-20T14:00:00Z,1,1\n" +
		"3,Bob Johnson,2021-04-10T09:00:00Z,2,2\n" +
		"4,Alice Brown,2021-07-05T09:00:00Z,2,2\n" +
		"5,Charlie Wilson,2021-10-12T09:00:00Z,3,3\n" +
		"6,Diana Davis,2021-11-08T09:00:00Z,3,3\n" +
		"7,Eve Miller,2022-01-15T09:00:00Z,1,1\n"
)

func TestUploadFlow(t *testing.T) {
	f := newFixture(t, 0)

	res := f.upload(t, domain.DatasetDepartments, departmentsCSV)
	assert.Equal(t, domain.UploadResult{Message: "Departments uploaded successfully", ProcessedRows: 3, Errors: []string{}}, res)

	res = f.upload(t, domain.DatasetJobs, jobsCSV)
	assert.Equal(t, "Jobs uploaded successfully", res.Message)
	assert.Equal(t, 3, res.ProcessedRows)

	res = f.upload(t, domain.DatasetEmployees, employeesCSV)
	assert.Equal(t, "Employees uploaded successfully in 1 batches", res.Message)
	assert.Equal(t, 7, res.ProcessedRows)
	assert.Empty(t, res.Errors)

	quarterly, err := f.hiring.HiringByQuarter(context.Background())
	require.NoError(t, err)
	require.Len(t, quarterly, 3)
	assert.Equal(t, domain.QuarterlyHires{Department: "Engineering", Job: "Software Engineer", Q1: 2}, quarterly[0])

	above, err := f.hiring.DepartmentsAboveAverage(context.Background())
	require.NoError(t, err)
	assert.Empty(t, above)

	// indexing failures are retried and never reach the caller
	assert.Len(t, f.index.indexed, 7*(1+indexRetries))
}

func TestUploadIsIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	f.upload(t, domain.DatasetDepartments, departmentsCSV)

	res := f.upload(t, domain.DatasetDepartments, departmentsCSV)
	assert.Equal(t, 0, res.ProcessedRows)
	assert.Empty(t, res.Errors)

	var n int
	require.NoError(t, f.db.QueryRow("SELECT COUNT(*) FROM departments").Scan(&n))
	assert.Equal(t, 3, n)
}

func TestUploadDropsInvalidEmployees(t *testing.T) {
	f := newFixture(t, 0)
	f.upload(t, domain.DatasetDepartments, departmentsCSV)
	f.upload(t, domain.DatasetJobs, jobsCSV)

	res := f.upload(t, domain.DatasetEmployees,
		"1,John Doe,2021-01-15T10:30:00Z,1,1\n"+
			"2,Out Of Range,2021-01-16T10:30:00Z,13,1\n"+
			"3,Bad Date,yesterday,1,1\n"+
			"4,No Department,2021-02-01T00:00:00Z,,1\n")
	assert.Equal(t, 2, res.ProcessedRows)
	assert.Empty(t, res.Errors)

	above, err := f.hiring.DepartmentsAboveAverage(context.Background())
	require.NoError(t, err)
	// Engineering has 1 hire against a mean of 1/3
	assert.Equal(t, []domain.DepartmentHires{{ID: 1, Department: "Engineering", Hired: 1}}, above)
}

func TestUploadReportsRowErrors(t *testing.T) {
	f := newFixture(t, 0)
	f.upload(t, domain.DatasetDepartments, departmentsCSV)
	f.upload(t, domain.DatasetJobs, jobsCSV)

	// department 9 is in range but was never uploaded
	res := f.upload(t, domain.DatasetEmployees,
		"1,John Doe,2021-01-15T10:30:00Z,9,1\n"+
			"2,Jane Smith,2021-02-20T14:00:00Z,1,1\n")
	assert.Equal(t, 1, res.ProcessedRows)
	require.Len(t, res.Errors, 1)
	assert.True(t, strings.HasPrefix(res.Errors[0], "Error saving employee ID 1: "), res.Errors[0])
	assert.Contains(t, res.Errors[0], repository.ForeignKeyViolation)
}

func TestUploadEmployeesInBatches(t *testing.T) {
	f := newFixture(t, 2)
	f.upload(t, domain.DatasetDepartments, departmentsCSV)
	f.upload(t, domain.DatasetJobs, jobsCSV)

	var sb strings.Builder
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&sb, "%d,Employee %d,2021-03-0%dT00:00:00Z,1,1\n", i, i, i)
	}
	res := f.upload(t, domain.DatasetEmployees, sb.String())
	assert.Equal(t, "Employees uploaded successfully in 3 batches", res.Message)
	assert.Equal(t, 5, res.ProcessedRows)
}

func TestUploadMalformed(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.ingest.Upload(context.Background(), domain.DatasetDepartments, []byte("invalid,csv,content,without,proper,structure"))
	var malformed *domain.MalformedInputError
	assert.True(t, errors.As(err, &malformed))

	_, err = f.ingest.Upload(context.Background(), domain.Dataset("salaries"), []byte("1,2"))
	assert.ErrorIs(t, err, domain.ErrUnknownDataset)
}

func TestUploadEmptyAfterFiltering(t *testing.T) {
	f := newFixture(t, 0)

	res := f.upload(t, domain.DatasetEmployees, "1,,2021-01-01T00:00:00Z,1,1\n")
	assert.Equal(t, "Employees uploaded successfully in 0 batches", res.Message)
	assert.Equal(t, 0, res.ProcessedRows)
	assert.NotNil(t, res.Errors)
}
