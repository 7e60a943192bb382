package querysql

import (
	"fmt"
	"strings"
)

// Query is compiled SQL with its bound arguments in placeholder order.
type Query struct {
	SQL  string
	Args []any
}

// String renders the query and its arguments for logs and snapshots.
func (q Query) String() string {
	args := make([]string, len(q.Args))
	for i, a := range q.Args {
		if s, ok := a.(string); ok {
			args[i] = fmt.Sprintf("%q", s)
		} else {
			args[i] = fmt.Sprintf("%v", a)
		}
	}
	return q.SQL + "\n-- args: [" + strings.Join(args, ", ") + "]"
}

// clause is one predicate fragment and the values its placeholders take.
type clause struct {
	fragment string
	args     []any
}

// Builder accumulates a SELECT statement.
//
// Predicates are appended with Where, which records the fragment and its
// value as one element. Build walks that sequence once to produce both the
// text and the argument list.
type Builder struct {
	base    string
	clauses []clause
	order   []string
	limit   int
	offset  int
}

// NewBuilder starts a query from a base SELECT ... FROM ... statement.
// The base must not contain a WHERE clause.
func NewBuilder(base string) *Builder {
	return &Builder{base: base}
}

// Where appends "AND fragment". The fragment must contain exactly one
// placeholder per value.
func (b *Builder) Where(fragment string, values ...any) *Builder {
	b.clauses = append(b.clauses, clause{fragment: fragment, args: values})
	return b
}

// OrderBy appends an ORDER BY term. column must already be validated.
func (b *Builder) OrderBy(column string, ascending bool) *Builder {
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	b.order = append(b.order, column+" "+dir)
	return b
}

// Window sets LIMIT and OFFSET. A limit of 0 leaves the result unbounded.
// OFFSET is only emitted when offset > 1.
func (b *Builder) Window(limit, offset int) *Builder {
	b.limit = limit
	b.offset = offset
	return b
}

// Build renders the statement.
func (b *Builder) Build() Query {
	var sb strings.Builder
	var args []any

	sb.WriteString(b.base)
	sb.WriteString(" WHERE 1 = 1")
	for _, c := range b.clauses {
		sb.WriteString(" AND ")
		sb.WriteString(c.fragment)
		args = append(args, c.args...)
	}

	if len(b.order) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.order, ", "))
	}

	if b.limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, b.limit)
		if b.offset > 1 {
			sb.WriteString(" OFFSET ?")
			args = append(args, b.offset)
		}
	}

	if args == nil {
		args = []any{}
	}
	return Query{SQL: sb.String(), Args: args}
}
