package query

import (
	"reflect"
	"strconv"
	"strings"
)

// SortField is one ORDER BY term. Field is a projection view name.
type SortField struct {
	Field      string
	Descending bool
}

// condition is a WHERE term written with ? placeholders, one per arg.
type condition struct {
	clause string
	args   []any
}

// Builder assembles SELECT statements over a ProjectionMap. Conditions are
// ANDed; placeholders are numbered $1..$n in the order conditions were added.
type Builder struct {
	projection  *ProjectionMap
	conditions  []condition
	sort        []SortField
	defaultSort []SortField
}

// NewBuilder creates a Builder for the given projection with optional default sort fields.
func NewBuilder(projection *ProjectionMap, defaultSort ...SortField) *Builder {
	return &Builder{
		projection:  projection,
		defaultSort: defaultSort,
	}
}

// ParseSortFields parses "a,-b" into ascending a and descending b.
// Returns nil for empty input.
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

// WhereEquals adds an equality condition. No-op for nil values.
func (b *Builder) WhereEquals(field string, value any) *Builder {
	if isNil(value) {
		return b
	}
	return b.where(b.projection.Column(field)+" = ?", value)
}

// WhereContains adds a case-insensitive substring match. LIKE wildcards in
// value match literally. No-op for nil or empty values.
func (b *Builder) WhereContains(field string, value *string) *Builder {
	if value == nil || *value == "" {
		return b
	}
	return b.where(b.projection.Column(field)+" ILIKE ?", "%"+escapeLike(*value)+"%")
}

// OrderByFields sets the sort order, overriding default sort fields.
func (b *Builder) OrderByFields(fields []SortField) *Builder {
	b.sort = fields
	return b
}

// Build returns a SELECT with the current conditions and ordering.
func (b *Builder) Build() (string, []any) {
	where, args := b.whereClause()
	return b.selectFrom() + where + b.orderBy(), args
}

// BuildCount returns a COUNT(*) over the current conditions.
func (b *Builder) BuildCount() (string, []any) {
	where, args := b.whereClause()
	return "SELECT COUNT(*) FROM " + b.projection.From() + where, args
}

// BuildPage returns a SELECT for one page (1-indexed) of the ordered result.
func (b *Builder) BuildPage(page, pageSize int) (string, []any) {
	where, args := b.whereClause()
	offset := (page - 1) * pageSize
	return b.selectFrom() + where + b.orderBy() +
		" LIMIT " + strconv.Itoa(pageSize) +
		" OFFSET " + strconv.Itoa(offset), args
}

// BuildSingle returns a SELECT for one record by id, ignoring other conditions.
func (b *Builder) BuildSingle(idField string, id any) (string, []any) {
	return b.selectFrom() + " WHERE " + b.projection.Column(idField) + " = $1", []any{id}
}

// BuildSingleOrNull returns a SELECT limited to one row matching the current conditions.
func (b *Builder) BuildSingleOrNull() (string, []any) {
	where, args := b.whereClause()
	return b.selectFrom() + where + " LIMIT 1", args
}

func (b *Builder) where(clause string, args ...any) *Builder {
	b.conditions = append(b.conditions, condition{clause: clause, args: args})
	return b
}

func (b *Builder) selectFrom() string {
	return "SELECT " + b.projection.Columns() + " FROM " + b.projection.From()
}

func (b *Builder) whereClause() (string, []any) {
	if len(b.conditions) == 0 {
		return "", nil
	}

	var sb strings.Builder
	var args []any
	sb.WriteString(" WHERE ")

	for i, cond := range b.conditions {
		if i > 0 {
			sb.WriteString(" AND ")
		}
		rest := cond.clause
		for _, arg := range cond.args {
			before, after, _ := strings.Cut(rest, "?")
			args = append(args, arg)
			sb.WriteString(before)
			sb.WriteString("$" + strconv.Itoa(len(args)))
			rest = after
		}
		sb.WriteString(rest)
	}

	return sb.String(), args
}

func (b *Builder) orderBy() string {
	fields := b.sort
	if len(fields) == 0 {
		fields = b.defaultSort
	}
	if len(fields) == 0 {
		return ""
	}

	terms := make([]string, len(fields))
	for i, f := range fields {
		dir := " ASC"
		if f.Descending {
			dir = " DESC"
		}
		terms[i] = b.projection.Column(f.Field) + dir
	}
	return " ORDER BY " + strings.Join(terms, ", ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func isNil(value any) bool {
	if value == nil {
		return true
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return v.IsNil()
	}
	return false
}
