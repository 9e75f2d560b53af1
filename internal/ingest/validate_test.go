package ingest

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/locvowork/hiring_analytics/internal/domain"
)

func TestCleanString(t *testing.T) {
	s, ok := CleanString("  Engineering \t")
	assert.True(t, ok)
	assert.Equal(t, "Engineering", s)

	s, ok = CleanString("\ufeffSales")
	assert.True(t, ok)
	assert.Equal(t, "Sales", s)

	// decomposed e + combining acute becomes a single code point
	s, ok = CleanString("Jose\u0301")
	assert.True(t, ok)
	assert.Equal(t, "Jos\u00e9", s)

	_, ok = CleanString("   ")
	assert.False(t, ok)
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"1", 1, true},
		{" 42 ", 42, true},
		{"3.0", 3, true},
		{"-7", -7, true},
		{"3.5", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"1e30", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseID(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseOptionalID(t *testing.T) {
	assert.Nil(t, ParseOptionalID(""))
	assert.Nil(t, ParseOptionalID("x"))
	v := ParseOptionalID("12")
	require.NotNil(t, v)
	assert.Equal(t, int64(12), *v)
}

func TestInRange(t *testing.T) {
	v := func(n int64) *int64 { return &n }
	assert.True(t, InRange(nil, 1, 12))
	assert.True(t, InRange(v(1), 1, 12))
	assert.True(t, InRange(v(12), 1, 12))
	assert.False(t, InRange(v(0), 1, 12))
	assert.False(t, InRange(v(13), 1, 12))
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2021, 1, 15, 10, 30, 0, 0, time.UTC)

	for _, in := range []string{
		"2021-01-15T10:30:00Z",
		"2021-01-15T10:30:00",
		"2021-01-15 10:30:00",
		"2021-01-15T12:30:00+02:00",
		" 2021-01-15T10:30:00.000Z ",
	} {
		got, ok := ParseTimestamp(in)
		require.True(t, ok, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
		assert.Equal(t, time.UTC, got.Location())
	}

	got, ok := ParseTimestamp("2021-07-01")
	require.True(t, ok)
	assert.Equal(t, time.Date(2021, 7, 1, 0, 0, 0, 0, time.UTC), got)

	for _, in := range []string{"", "not-a-date", "2021-13-40T00:00:00Z", "15/01/2021"} {
		_, ok := ParseTimestamp(in)
		assert.False(t, ok, in)
	}
}

func TestValidateEmployee(t *testing.T) {
	b := domain.DefaultBounds()
	dept := int64(13)
	hired := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateEmployee(domain.Employee{ID: 1, Name: "Ana", HiredAt: hired}, b))

	err := ValidateEmployee(domain.Employee{ID: 2, Name: "Bo", HiredAt: hired, DepartmentID: &dept}, b)
	var rowErr *domain.RowValidationError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, "Invalid data for employee ID 2", err.Error())

	assert.Error(t, ValidateEmployee(domain.Employee{ID: 3, Name: " ", HiredAt: hired}, b))
	assert.Error(t, ValidateEmployee(domain.Employee{ID: 4, Name: "Cy"}, b))
}

func TestValidateCatalog(t *testing.T) {
	assert.NoError(t, ValidateDepartment(domain.Department{ID: 1, Name: "Sales"}))
	assert.EqualError(t, ValidateDepartment(domain.Department{ID: 1}), "Invalid data for department ID 1")
	assert.NoError(t, ValidateJob(domain.Job{ID: 1, Name: "Engineer"}))
	assert.EqualError(t, ValidateJob(domain.Job{ID: 9}), "Invalid data for job ID 9")
}
