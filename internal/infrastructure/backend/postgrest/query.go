package postgrest

import (
	"net/url"
	"strings"

	"github.com/valyala/bytebufferpool"
)

// query accumulates PostgREST query parameters in insertion order.
type query struct {
	parts [][2]string
}

func newQuery() *query {
	return &query{}
}

func (q *query) add(key, value string) *query {
	q.parts = append(q.parts, [2]string{key, value})
	return q
}

func (q *query) eq(column, value string) *query {
	return q.add(column, "eq."+value)
}

func (q *query) in(column string, values []string) *query {
	return q.add(column, "in.("+quotedList(values)+")")
}

// or joins already rendered filters such as "user_id.eq.x".
func (q *query) or(filters ...string) *query {
	return q.add("or", "("+strings.Join(filters, ",")+")")
}

func (q *query) order(clause string) *query {
	return q.add("order", clause)
}

func (q *query) limit(n string) *query {
	return q.add("limit", n)
}

func (q *query) String() string {
	if len(q.parts) == 0 {
		return ""
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, part := range q.parts {
		if i > 0 {
			_ = buf.WriteByte('&')
		}
		_, _ = buf.WriteString(url.QueryEscape(part[0]))
		_ = buf.WriteByte('=')
		_, _ = buf.WriteString(url.QueryEscape(part[1]))
	}
	return buf.String()
}

// filter renders "column.op.value" for use inside or=(...).
func filter(column, op, value string) string {
	return column + "." + op + "." + quoteValue(value)
}

func quotedList(values []string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for i, v := range values {
		if i > 0 {
			_ = buf.WriteByte(',')
		}
		_, _ = buf.WriteString(quoteValue(v))
	}
	return buf.String()
}

// quoteValue wraps values holding PostgREST reserved characters in double quotes.
func quoteValue(v string) string {
	if !strings.ContainsAny(v, `,.:()" \`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	return `"` + v + `"`
}
