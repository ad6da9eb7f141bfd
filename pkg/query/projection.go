// Package query builds parameterized Postgres queries from projection
// maps that translate API field names into qualified columns.
package query

import (
	"fmt"
	"strings"
)

// ProjectionMap ties API-facing field names to qualified columns
// (alias.column) for one table. Builders resolve every identifier
// through the map, so request input never reaches SQL as a raw
// column name.
type ProjectionMap struct {
	from    string
	alias   string
	columns map[string]string
	order   []string
}

// NewProjectionMap starts an empty projection over schema.table with
// the given alias. Chain Project calls to declare columns.
func NewProjectionMap(schema, table, alias string) *ProjectionMap {
	return &ProjectionMap{
		from:    fmt.Sprintf("%s.%s %s", schema, table, alias),
		alias:   alias,
		columns: map[string]string{},
	}
}

// Project maps a database column to the field name the API exposes.
// Declaration order fixes the SELECT column order.
func (p *ProjectionMap) Project(column, field string) *ProjectionMap {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// From returns the aliased table reference (schema.table alias).
func (p *ProjectionMap) From() string {
	return p.from
}

// Column resolves field to its qualified column. Unprojected names
// echo back unchanged; they are only ever supplied by calling code,
// never from requests.
func (p *ProjectionMap) Column(field string) string {
	if col, ok := p.columns[field]; ok {
		return col
	}
	return field
}

// Columns returns the projected columns as a SELECT list.
func (p *ProjectionMap) Columns() string {
	return strings.Join(p.order, ", ")
}
