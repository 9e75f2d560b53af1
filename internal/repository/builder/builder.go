package builder

import (
	"fmt"
	"strconv"
	"strings"
)

// PlaceholderFormat selects how bind markers are rendered.
type PlaceholderFormat int

const (
	// Dollar renders $1, $2, ... (PostgreSQL).
	Dollar PlaceholderFormat = iota
	// Question keeps ? markers (SQLite, MySQL).
	Question
	// AtP renders @p1, @p2, ... (SQL Server).
	AtP
)

// SQLBuilder helps construct SQL queries dynamically.
// Conditions are written with ? markers and rebound to the target format in Build.
type SQLBuilder struct {
	format     PlaceholderFormat
	table      string
	columns    []string
	selectArgs []interface{}
	values     []interface{}
	joins      []clause
	where      []clause
	groupBy    []string
	orderBy    []string
	isInsert   bool
	isSelect   bool
}

// clause is a SQL fragment with its bind arguments.
type clause struct {
	sql  string
	args []interface{}
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{format: Dollar}
}

// WithFormat sets the placeholder format of the built query.
func (b *SQLBuilder) WithFormat(f PlaceholderFormat) *SQLBuilder {
	b.format = f
	return b
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.isSelect = true
	b.columns = append(b.columns, cols...)
	return b
}

// SelectExpr adds a computed column whose expression carries bind arguments.
func (b *SQLBuilder) SelectExpr(expr string, args ...interface{}) *SQLBuilder {
	b.isSelect = true
	b.columns = append(b.columns, expr)
	b.selectArgs = append(b.selectArgs, args...)
	return b
}

// Insert specifies the table and columns for insertion.
func (b *SQLBuilder) Insert(table string, cols ...string) *SQLBuilder {
	b.isInsert = true
	b.table = table
	b.columns = cols
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Values specifies the values for insertion.
func (b *SQLBuilder) Values(vals ...interface{}) *SQLBuilder {
	b.values = vals
	return b
}

// Where adds a condition to the query. Multiple Where calls are joined with AND.
func (b *SQLBuilder) Where(condition string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, clause{sql: condition, args: args})
	return b
}

// Join adds a JOIN clause. The ON condition may carry bind arguments.
func (b *SQLBuilder) Join(joinType, table, on string, args ...interface{}) *SQLBuilder {
	b.joins = append(b.joins, clause{sql: fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on), args: args})
	return b
}

// GroupBy adds GROUP BY expressions.
func (b *SQLBuilder) GroupBy(cols ...string) *SQLBuilder {
	b.groupBy = append(b.groupBy, cols...)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// BuildSafe constructs the final SQL string and arguments.
// Returns an error if the number of placeholders doesn't match the number of arguments.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	sql, args := b.build()
	if n := strings.Count(sql, "?"); n != len(args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", n, len(args))
	}
	return b.format.rebind(sql), args, nil
}

func (b *SQLBuilder) build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	if b.isInsert {
		placeholders := make([]string, len(b.values))
		for i := range placeholders {
			placeholders[i] = "?"
		}
		fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES (%s)",
			b.table, strings.Join(b.columns, ", "), strings.Join(placeholders, ", "))
		return sb.String(), append(args, b.values...)
	}

	if b.isSelect {
		sb.WriteString("SELECT ")
		sb.WriteString(strings.Join(b.columns, ", "))
		args = append(args, b.selectArgs...)
		sb.WriteString(" FROM ")
		sb.WriteString(b.table)
		for _, join := range b.joins {
			sb.WriteString(" ")
			sb.WriteString(join.sql)
			args = append(args, join.args...)
		}
	}

	if len(b.where) > 0 {
		parts := make([]string, len(b.where))
		for i, w := range b.where {
			parts[i] = w.sql
			args = append(args, w.args...)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(parts, " AND "))
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}

	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}

	return sb.String(), args
}

// rebind replaces ? markers with the numbered markers of the format.
func (f PlaceholderFormat) rebind(sql string) string {
	if f == Question || !strings.Contains(sql, "?") {
		return sql
	}
	prefix := "$"
	if f == AtP {
		prefix = "@p"
	}

	var sb strings.Builder
	sb.Grow(len(sql) + 8)
	n := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] != '?' {
			sb.WriteByte(sql[i])
			continue
		}
		n++
		sb.WriteString(prefix)
		sb.WriteString(strconv.Itoa(n))
	}
	return sb.String()
}
