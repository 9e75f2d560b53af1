package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/locvowork/hiring_analytics/internal/domain"
	"github.com/locvowork/hiring_analytics/internal/logger"
	"github.com/locvowork/hiring_analytics/pkg/dataflow"
)

const (
	departmentFields = 2
	jobFields        = 2
	employeeFields   = 5
)

// DecodeStats summarises a decode run.
type DecodeStats struct {
	Read     int
	Accepted int
	Dropped  int
}

// drop marks a row that is left out of the result without failing the decode.
func drop(row int, reason string) error {
	return fmt.Errorf("%w: row %d: %s", dataflow.ErrSkip, row, reason)
}

type csvRow struct {
	index  int
	fields []string
}

// DecodeDepartments parses a headerless "id,name" CSV.
func DecodeDepartments(ctx context.Context, payload []byte) ([]domain.Department, DecodeStats, error) {
	return decode(ctx, domain.DatasetDepartments, payload, departmentFields, func(r csvRow) (domain.Department, error) {
		id, name, err := parseCatalogRow(r)
		return domain.Department{ID: id, Name: name}, err
	})
}

// DecodeJobs parses a headerless "id,name" CSV.
func DecodeJobs(ctx context.Context, payload []byte) ([]domain.Job, DecodeStats, error) {
	return decode(ctx, domain.DatasetJobs, payload, jobFields, func(r csvRow) (domain.Job, error) {
		id, name, err := parseCatalogRow(r)
		return domain.Job{ID: id, Name: name}, err
	})
}

// DecodeEmployees parses a headerless "id,name,datetime,department_id,job_id" CSV.
// Rows whose department or job id falls outside b are dropped entirely.
func DecodeEmployees(ctx context.Context, payload []byte, b domain.Bounds) ([]domain.Employee, DecodeStats, error) {
	return decode(ctx, domain.DatasetEmployees, payload, employeeFields, func(r csvRow) (domain.Employee, error) {
		var e domain.Employee
		name, ok := CleanString(r.fields[1])
		if !ok {
			return e, drop(r.index, "missing name")
		}
		if _, ok := CleanString(r.fields[2]); !ok {
			return e, drop(r.index, "missing datetime")
		}
		deptID := ParseOptionalID(r.fields[3])
		jobID := ParseOptionalID(r.fields[4])
		if !InRange(deptID, b.DepartmentMin, b.DepartmentMax) {
			return e, drop(r.index, "department_id out of range")
		}
		if !InRange(jobID, b.JobMin, b.JobMax) {
			return e, drop(r.index, "job_id out of range")
		}
		hiredAt, ok := ParseTimestamp(r.fields[2])
		if !ok {
			return e, drop(r.index, "unparseable datetime")
		}
		id, ok := ParseID(r.fields[0])
		if !ok {
			return e, drop(r.index, "invalid id")
		}
		return domain.Employee{ID: id, Name: name, HiredAt: hiredAt, DepartmentID: deptID, JobID: jobID}, nil
	})
}

func parseCatalogRow(r csvRow) (int64, string, error) {
	name, ok := CleanString(r.fields[1])
	if !ok {
		return 0, "", drop(r.index, "missing name")
	}
	id, ok := ParseID(r.fields[0])
	if !ok {
		return 0, "", drop(r.index, "invalid id")
	}
	return id, name, nil
}

// decode tokenises the payload and runs every row through parse, keeping input order.
func decode[T any](ctx context.Context, ds domain.Dataset, payload []byte, width int, parse func(csvRow) (T, error)) ([]T, DecodeStats, error) {
	var stats DecodeStats

	rows, err := readRows(payload, width)
	if err != nil {
		return nil, stats, &domain.MalformedInputError{Dataset: ds, Err: err}
	}
	stats.Read = len(rows)

	logged := func(r csvRow) (T, error) {
		rec, err := parse(r)
		if errors.Is(err, dataflow.ErrSkip) {
			logger.DebugLog(ctx, "%s: %v", ds, err)
		}
		return rec, err
	}
	accepted := dataflow.Map(ctx, dataflow.From(ctx, rows...), logged,
		dataflow.WithErrorHandler(func(err error) bool {
			logger.WarnLog(ctx, "%s: %v", ds, err)
			return true
		}))
	out, err := dataflow.Collect(ctx, accepted)
	if err != nil {
		return nil, stats, fmt.Errorf("decode %s: %w", ds, err)
	}

	stats.Accepted = len(out)
	stats.Dropped = stats.Read - stats.Accepted
	return out, stats, nil
}

// readRows splits a headerless CSV payload into rows padded to width.
// Quotes inside unquoted fields are kept as text. A row wider than width
// or a quoted field left open at the end of the payload makes the whole
// payload malformed.
func readRows(payload []byte, width int) ([]csvRow, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, errors.New("empty file")
	}
	if !utf8.Valid(payload) {
		return nil, errors.New("file is not valid UTF-8")
	}

	if unterminatedQuote(bytes.TrimPrefix(payload, utf8BOM)) {
		return nil, errors.New("quoted field is not terminated")
	}

	r := csv.NewReader(transform.NewReader(bytes.NewReader(payload), unicode.BOMOverride(transform.Nop)))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.New("no rows")
	}

	rows := make([]csvRow, 0, len(records))
	for i, rec := range records {
		if len(rec) > width {
			return nil, fmt.Errorf("row %d has %d fields, expected %d", i+1, len(rec), width)
		}
		for len(rec) < width {
			rec = append(rec, "")
		}
		rows = append(rows, csvRow{index: i + 1, fields: rec})
	}
	return rows, nil
}

var utf8BOM = []byte("\xef\xbb\xbf")

// unterminatedQuote reports whether a field opened with a quote runs to the
// end of b. It follows the lazy quoting rules of the csv reader: inside a
// quoted field "" is an escaped quote and a quote only closes the field when
// followed by a delimiter, a line break or the end of input.
func unterminatedQuote(b []byte) bool {
	quoted, fieldStart := false, true
	for i := 0; i < len(b); i++ {
		c := b[i]
		if quoted {
			if c != '"' {
				continue
			}
			if i+1 == len(b) {
				return false
			}
			switch b[i+1] {
			case '"':
				i++
			case ',', '\n', '\r':
				quoted = false
			}
			continue
		}
		if fieldStart && c == '"' {
			quoted, fieldStart = true, false
			continue
		}
		fieldStart = c == ',' || c == '\n'
	}
	return quoted
}
