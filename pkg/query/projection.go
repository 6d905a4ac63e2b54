// Package query builds parameterized PostgreSQL SELECT statements over a
// projection of logical field names onto table columns.
package query

import (
	"fmt"
	"strings"
)

// Projection maps logical field names to alias-qualified columns.
type Projection struct {
	schema  string
	table   string
	alias   string
	columns map[string]string
	order   []string
}

// NewProjection creates a Projection over schema.table aliased as alias.
func NewProjection(schema, table, alias string) *Projection {
	return &Projection{
		schema:  schema,
		table:   table,
		alias:   alias,
		columns: make(map[string]string),
	}
}

// Project maps field onto column and appends it to the select list.
func (p *Projection) Project(column, field string) *Projection {
	qualified := p.alias + "." + column
	p.columns[field] = qualified
	p.order = append(p.order, qualified)
	return p
}

// From returns the FROM clause target, "schema.table alias".
func (p *Projection) From() string {
	return fmt.Sprintf("%s.%s %s", p.schema, p.table, p.alias)
}

// Column resolves field to its qualified column.
func (p *Projection) Column(field string) (string, bool) {
	col, ok := p.columns[field]
	return col, ok
}

// Columns returns the select list.
func (p *Projection) Columns() string {
	return strings.Join(p.order, ", ")
}
