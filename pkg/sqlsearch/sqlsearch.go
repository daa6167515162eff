// Package sqlsearch builds filtered, paginated SELECT statements for both
// PostgreSQL ($n) and SQLite (?) placeholders.
package sqlsearch

import (
	"fmt"
	"strings"
)

// Placeholder selects the bind-parameter syntax.
type Placeholder int

const (
	Dollar Placeholder = iota
	Question
)

// Query accumulates WHERE fragments. Fragments are written with ? markers,
// which are renumbered for Dollar style when the SQL is rendered.
type Query struct {
	from    string
	cols    string
	style   Placeholder
	where   []string
	args    []interface{}
	orderBy string
}

// New creates a Query selecting cols from the given FROM expression.
func New(from, cols string, style Placeholder) *Query {
	return &Query{from: from, cols: cols, style: style}
}

// Add appends a WHERE fragment (without leading "AND").
func (q *Query) Add(clause string, args ...interface{}) {
	if n := strings.Count(clause, "?"); n != len(args) {
		panic(fmt.Sprintf("sqlsearch: clause %q has %d markers for %d args", clause, n, len(args)))
	}
	q.where = append(q.where, clause)
	q.args = append(q.args, args...)
}

// OrderBy sets the ORDER BY clause (without the "ORDER BY" keyword).
func (q *Query) OrderBy(orderBy string) {
	q.orderBy = orderBy
}

func (q *Query) whereSQL() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

// CountSQL returns the count query SQL.
func (q *Query) CountSQL() string {
	return q.bind(fmt.Sprintf("SELECT COUNT(*) FROM %s%s", q.from, q.whereSQL()))
}

// CountArgs returns the arguments for the count query.
func (q *Query) CountArgs() []interface{} {
	return q.args
}

// DataSQL returns the data query with ORDER BY and LIMIT/OFFSET. A limit of
// zero or less returns every row.
func (q *Query) DataSQL(limit int) string {
	sql := fmt.Sprintf("SELECT %s FROM %s%s", q.cols, q.from, q.whereSQL())
	if q.orderBy != "" {
		sql += " ORDER BY " + q.orderBy
	}
	if limit > 0 {
		sql += " LIMIT ? OFFSET ?"
	}
	return q.bind(sql)
}

// DataArgs returns the arguments matching DataSQL.
func (q *Query) DataArgs(limit, offset int) []interface{} {
	if limit <= 0 {
		return q.args
	}
	result := make([]interface{}, len(q.args)+2)
	copy(result, q.args)
	result[len(q.args)] = limit
	result[len(q.args)+1] = offset
	return result
}

func (q *Query) bind(sql string) string {
	if q.style == Question {
		return sql
	}
	var b strings.Builder
	n := 0
	for _, r := range sql {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
