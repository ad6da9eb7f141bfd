package query

import (
	"fmt"
	"reflect"
	"strings"
)

// condition is one WHERE fragment. The clause contains a %s verb per
// argument, filled with the numbered placeholder when the query is
// assembled so conditions can be added in any order.
type condition struct {
	clause string
	args   []any
}

// SortField names one ORDER BY column by its projected field name.
// Descending false sorts ascending.
type SortField struct {
	Field      string
	Descending bool
}

// Builder assembles parameterized SELECT statements over a single
// projection. Condition methods are no-ops for absent values, so
// optional filters chain without nil checks at the call site.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder returns a Builder over projection. The default sort
// applies whenever OrderByFields is never called.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields splits a comma-separated sort expression into sort
// fields. A leading "-" marks a field descending: "name,-createdAt".
// Empty input yields nil.
func ParseSortFields(s string) []SortField {
	if s == "" {
		return nil
	}

	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		field, descending := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: field, Descending: descending})
	}
	return fields
}

// Build returns the full SELECT with conditions and ordering applied.
func (b *Builder) Build() (string, []any) {
	where, args := b.assembleWhere()
	sql := fmt.Sprintf(
		"SELECT %s FROM %s%s%s",
		b.projection.Columns(),
		b.projection.From(),
		where,
		b.assembleOrderBy(),
	)
	return sql, args
}

// BuildCount returns a COUNT(*) over the same conditions, for
// computing total pages alongside BuildPage.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.assembleWhere()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildPage returns one page of the Build query. Pages are 1-based.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	base, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", base, pageSize, (page-1)*pageSize), args
}

// BuildSingle returns a lookup of one record by the projected idField.
// Conditions and ordering on the builder are ignored.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	sql := fmt.Sprintf(
		"SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(),
		b.projection.From(),
		b.projection.Column(idField),
	)
	return sql, []any{id}
}

// OrderByFields replaces the default sort for this query.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// WhereContains matches field case-insensitively against a substring.
// Nil and empty values add nothing.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(b.projection.Column(field)+" ILIKE %s", "%"+*value+"%")
}

// WhereEquals matches field exactly. Nil values add nothing, including
// typed nil pointers.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = %s", value)
}

// WhereSearch matches the search term case-insensitively against any
// of the given fields. Nil and empty terms add nothing.
func (b *Builder) WhereSearch(search *string, fields ...string) *Builder {
	if search == nil || *search == "" || len(fields) == 0 {
		return b
	}

	clauses := make([]string, len(fields))
	args := make([]any, len(fields))
	pattern := "%" + *search + "%"

	for i, field := range fields {
		clauses[i] = b.projection.Column(field) + " ILIKE %s"
		args[i] = pattern
	}
	return b.where("("+strings.Join(clauses, " OR ")+")", args...)
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

// assembleWhere joins the accumulated conditions with AND, numbering
// placeholders from $1 in insertion order.
func (b *Builder) assembleWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	clauses := make([]string, 0, len(b.conditions))
	args := make([]any, 0, len(b.conditions))
	n := 0

	for _, c := range b.conditions {
		verbs := make([]any, len(c.args))
		for i := range c.args {
			n++
			verbs[i] = fmt.Sprintf("$%d", n)
		}
		clauses = append(clauses, fmt.Sprintf(c.clause, verbs...))
		args = append(args, c.args...)
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// assembleOrderBy renders the active sort. Sort input arrives from the
// request query string, so fields outside the projection are dropped
// rather than interpolated.
func (b *Builder) assembleOrderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		col, ok := b.projection.columns[f.Field]
		if !ok {
			continue
		}
		if f.Descending {
			parts = append(parts, col+" DESC")
		} else {
			parts = append(parts, col+" ASC")
		}
	}

	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

// isNil reports whether value is nil directly or through a nilable
// kind, so optional filter pointers skip cleanly.
func isNil(value any) bool {
	if value == nil {
		return true
	}

	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
