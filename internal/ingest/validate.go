package ingest

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/locvowork/hiring_analytics/internal/domain"
)

const maxExactFloat = 1 << 53

// zoned layouts keep their own offset; naive layouts are read as UTC.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05Z07:00",
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02T15:04:05Z0700",
		"2006-01-02 15:04:05 -0700",
	}
	naiveLayouts = []string{
		"2006-01-02T15:04:05",
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02",
	}
)

// CleanString trims whitespace and a stray BOM and NFC-normalises s.
// An empty result is reported as missing.
func CleanString(s string) (string, bool) {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	if s == "" {
		return "", false
	}
	return norm.NFC.String(s), true
}

// ParseID coerces s to an integer id. Integral floats such as "3.0" are accepted.
func ParseID(s string) (int64, bool) {
	s, ok := CleanString(s)
	if !ok {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
		return 0, false
	}
	return int64(f), true
}

// ParseOptionalID is ParseID for nullable columns: failures become nil.
func ParseOptionalID(s string) *int64 {
	v, ok := ParseID(s)
	if !ok {
		return nil
	}
	return &v
}

// InRange reports whether v lies in [min, max]. A nil value is always in range.
func InRange(v *int64, min, max int64) bool {
	if v == nil {
		return true
	}
	return *v >= min && *v <= max
}

// ParseTimestamp parses an ISO-8601 style timestamp and returns it in UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s, ok := CleanString(s)
	if !ok {
		return time.Time{}, false
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ValidateDepartment re-checks a decoded department before it is written.
func ValidateDepartment(d domain.Department) error {
	if strings.TrimSpace(d.Name) == "" {
		return invalid(domain.DatasetDepartments, d.ID, "empty name")
	}
	return nil
}

// ValidateJob re-checks a decoded job before it is written.
func ValidateJob(j domain.Job) error {
	if strings.TrimSpace(j.Name) == "" {
		return invalid(domain.DatasetJobs, j.ID, "empty name")
	}
	return nil
}

// ValidateEmployee re-checks a decoded employee before it is written.
func ValidateEmployee(e domain.Employee, b domain.Bounds) error {
	switch {
	case strings.TrimSpace(e.Name) == "":
		return invalid(domain.DatasetEmployees, e.ID, "empty name")
	case e.HiredAt.IsZero():
		return invalid(domain.DatasetEmployees, e.ID, "missing hire time")
	case !InRange(e.DepartmentID, b.DepartmentMin, b.DepartmentMax):
		return invalid(domain.DatasetEmployees, e.ID, "department out of range")
	case !InRange(e.JobID, b.JobMin, b.JobMax):
		return invalid(domain.DatasetEmployees, e.ID, "job out of range")
	}
	return nil
}

func invalid(ds domain.Dataset, id int64, reason string) error {
	return &domain.RowValidationError{Entity: ds.Entity(), ID: id, Reason: reason}
}
