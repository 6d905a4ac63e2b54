package query

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SortField is one ORDER BY term over a logical field.
type SortField struct {
	Field      string `json:"field"`
	Descending bool   `json:"descending"`
}

// ParseSortFields parses "field,-other" into sort terms; a leading "-"
// sorts descending.
func ParseSortFields(s string) []SortField {
	var fields []SortField
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, desc := strings.CutPrefix(part, "-")
		fields = append(fields, SortField{Field: name, Descending: desc})
	}
	return fields
}

type condition struct {
	clause string
	args   []any
}

// Builder accumulates conditions and ordering over a Projection. Clauses
// hold "?" markers that are numbered $1..$n when the statement is built.
type Builder struct {
	projection  *Projection
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder ordered by defaultSort unless OrderBy is called.
func NewBuilder(p *Projection, defaultSort ...SortField) *Builder {
	return &Builder{projection: p, defaultSort: defaultSort}
}

func (b *Builder) where(field, op string, arg any) *Builder {
	col, ok := b.projection.Column(field)
	if !ok {
		return b
	}
	b.conditions = append(b.conditions, condition{
		clause: col + " " + op + " ?",
		args:   []any{arg},
	})
	return b
}

// WhereEquals adds field = value. Empty strings and nil are ignored.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	switch v := value.(type) {
	case nil:
		return b
	case string:
		if v == "" {
			return b
		}
	case *string:
		if v == nil || *v == "" {
			return b
		}
		value = *v
	}
	return b.where(field, "=", value)
}

// WhereSince adds field >= t. A zero time is ignored.
func (b *Builder) WhereSince(field string, t time.Time) *Builder {
	if t.IsZero() {
		return b
	}
	return b.where(field, ">=", t)
}

// WhereBefore adds field < t. A zero time is ignored.
func (b *Builder) WhereBefore(field string, t time.Time) *Builder {
	if t.IsZero() {
		return b
	}
	return b.where(field, "<", t)
}

// WhereSearch matches search case-insensitively against any of fields.
func (b *Builder) WhereSearch(search string, fields ...string) *Builder {
	if search == "" {
		return b
	}

	pattern := "%" + search + "%"
	var clauses []string
	var args []any
	for _, f := range fields {
		if col, ok := b.projection.Column(f); ok {
			clauses = append(clauses, col+" ILIKE ?")
			args = append(args, pattern)
		}
	}
	if len(clauses) == 0 {
		return b
	}

	b.conditions = append(b.conditions, condition{
		clause: "(" + strings.Join(clauses, " OR ") + ")",
		args:   args,
	})
	return b
}

// OrderBy replaces the default ordering. Unknown fields are dropped.
func (b *Builder) OrderBy(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Build returns the full SELECT.
func (b *Builder) Build() (string, []any) {
	where, args := b.buildWhere()
	return fmt.Sprintf("SELECT %s FROM %s%s%s",
		b.projection.Columns(), b.projection.From(), where, b.buildOrderBy()), args
}

// BuildCount returns a COUNT(*) over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.buildWhere()
	return fmt.Sprintf("SELECT COUNT(*) FROM %s%s", b.projection.From(), where), args
}

// BuildPage returns the SELECT restricted to one page.
func (b *Builder) BuildPage(page, size int) (string, []any) {
	sql, args := b.Build()
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", sql, size, (page-1)*size), args
}

// BuildSingle selects the row whose field equals id.
func (b *Builder) BuildSingle(field string, id any) (string, []any) {
	col, ok := b.projection.Column(field)
	if !ok {
		col = field
	}
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1",
		b.projection.Columns(), b.projection.From(), col), []any{id}
}

func (b *Builder) buildOrderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}

	var parts []string
	for _, f := range fields {
		col, ok := b.projection.Column(f.Field)
		if !ok {
			continue
		}
		dir := "ASC"
		if f.Descending {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func (b *Builder) buildWhere() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var (
		clauses []string
		args    []any
	)
	for _, c := range b.conditions {
		clause := c.clause
		for _, arg := range c.args {
			args = append(args, arg)
			clause = strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1)
		}
		clauses = append(clauses, clause)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
