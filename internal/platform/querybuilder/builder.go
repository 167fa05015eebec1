// Package querybuilder renders the handful of statement shapes the SQL
// backend needs, with PostgreSQL $n placeholders numbered in argument order.
package querybuilder

import (
	"fmt"
	"strconv"
	"strings"
)

// sqlWriter accumulates statement text and its bound arguments. The next
// placeholder number is always len(args)+1.
type sqlWriter struct {
	strings.Builder
	args []any
}

func (w *sqlWriter) bind(value any) {
	w.args = append(w.args, value)
	w.WriteByte('$')
	w.WriteString(strconv.Itoa(len(w.args)))
}

func (w *sqlWriter) where(conds []Condition) {
	if len(conds) == 0 {
		return
	}
	w.WriteString(" WHERE ")
	for i, cond := range conds {
		if i > 0 {
			w.WriteString(" AND ")
		}
		cond(w)
	}
}

// Condition writes one boolean SQL term.
type Condition func(w *sqlWriter)

func Eq(column string, value any) Condition {
	return func(w *sqlWriter) {
		w.WriteString(column)
		w.WriteString(" = ")
		w.bind(value)
	}
}

// Any matches column against a single array argument, e.g. pq.Array(ids).
// The statement text stays the same whatever the list length.
func Any(column string, array any) Condition {
	return func(w *sqlWriter) {
		w.WriteString(column)
		w.WriteString(" = ANY(")
		w.bind(array)
		w.WriteByte(')')
	}
}

// Expr embeds raw SQL, binding each ? to the next arg.
func Expr(expr string, args ...any) Condition {
	return func(w *sqlWriter) {
		next := 0
		for i := 0; i < len(expr); i++ {
			if expr[i] == '?' && next < len(args) {
				w.bind(args[next])
				next++
				continue
			}
			w.WriteByte(expr[i])
		}
	}
}

func Or(conds ...Condition) Condition {
	return func(w *sqlWriter) {
		if len(conds) == 0 {
			w.WriteString("FALSE")
			return
		}
		w.WriteByte('(')
		for i, cond := range conds {
			if i > 0 {
				w.WriteString(" OR ")
			}
			cond(w)
		}
		w.WriteByte(')')
	}
}

type SelectBuilder struct {
	columns []string
	table   string
	conds   []Condition
	order   []string
	limit   int
}

func Select(columns ...string) *SelectBuilder {
	return &SelectBuilder{columns: append([]string(nil), columns...)}
}

func (b *SelectBuilder) From(table string) *SelectBuilder {
	b.table = table
	return b
}

func (b *SelectBuilder) Where(conds ...Condition) *SelectBuilder {
	b.conds = append(b.conds, conds...)
	return b
}

func (b *SelectBuilder) OrderBy(terms ...string) *SelectBuilder {
	b.order = append(b.order, terms...)
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

func (b *SelectBuilder) ToSQL() (string, []any, error) {
	if len(b.columns) == 0 || strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("select needs columns and a table")
	}

	var w sqlWriter
	fmt.Fprintf(&w, "SELECT %s FROM %s", strings.Join(b.columns, ", "), b.table)
	w.where(b.conds)
	if len(b.order) > 0 {
		w.WriteString(" ORDER BY ")
		w.WriteString(strings.Join(b.order, ", "))
	}
	if b.limit > 0 {
		w.WriteString(" LIMIT ")
		w.WriteString(strconv.Itoa(b.limit))
	}
	return w.String(), w.args, nil
}

// InsertBuilder renders a single- or multi-row INSERT. The suffix is copied
// verbatim, which is where ON CONFLICT clauses go.
type InsertBuilder struct {
	table   string
	columns []string
	rows    [][]any
	suffix  string
}

func InsertInto(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

func (b *InsertBuilder) Columns(columns ...string) *InsertBuilder {
	b.columns = append([]string(nil), columns...)
	return b
}

func (b *InsertBuilder) Values(values ...any) *InsertBuilder {
	b.rows = append(b.rows, append([]any(nil), values...))
	return b
}

func (b *InsertBuilder) Suffix(sql string) *InsertBuilder {
	b.suffix = strings.TrimSpace(sql)
	return b
}

func (b *InsertBuilder) ToSQL() (string, []any, error) {
	switch {
	case strings.TrimSpace(b.table) == "":
		return "", nil, fmt.Errorf("insert table is required")
	case len(b.columns) == 0:
		return "", nil, fmt.Errorf("insert columns are required")
	case len(b.rows) == 0:
		return "", nil, fmt.Errorf("insert values are required")
	}

	w := sqlWriter{args: make([]any, 0, len(b.rows)*len(b.columns))}
	fmt.Fprintf(&w, "INSERT INTO %s (%s) VALUES ", b.table, strings.Join(b.columns, ", "))
	for r, row := range b.rows {
		if len(row) != len(b.columns) {
			return "", nil, fmt.Errorf("insert row %d has %d values, want %d", r, len(row), len(b.columns))
		}
		if r > 0 {
			w.WriteString(", ")
		}
		w.WriteByte('(')
		for c, value := range row {
			if c > 0 {
				w.WriteString(", ")
			}
			w.bind(value)
		}
		w.WriteByte(')')
	}
	if b.suffix != "" {
		w.WriteByte(' ')
		w.WriteString(b.suffix)
	}
	return w.String(), w.args, nil
}

type DeleteBuilder struct {
	table string
	conds []Condition
}

func DeleteFrom(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

func (b *DeleteBuilder) Where(conds ...Condition) *DeleteBuilder {
	b.conds = append(b.conds, conds...)
	return b
}

// ToSQL refuses to render a DELETE without conditions.
func (b *DeleteBuilder) ToSQL() (string, []any, error) {
	if strings.TrimSpace(b.table) == "" {
		return "", nil, fmt.Errorf("delete table is required")
	}
	if len(b.conds) == 0 {
		return "", nil, fmt.Errorf("delete from %s without conditions", b.table)
	}

	var w sqlWriter
	w.WriteString("DELETE FROM ")
	w.WriteString(b.table)
	w.where(b.conds)
	return w.String(), w.args, nil
}
