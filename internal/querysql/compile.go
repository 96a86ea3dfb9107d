package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/flexstore/internal/queryir"
)

// EntryColumns is the column list selected for every entry query, in the
// order the store scans them.
const EntryColumns = "e.id, e.collection_id, e.created_at, e.created_by, e.name"

// SQLCompiler compiles queryir to parameterized SQL for SQLite.
//
// All values are parameterized, never interpolated. Table and column names
// come only from queryir.Table constants, never from caller input.
// Every query ends in ORDER BY created_at plus a rowid tiebreak.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts an EntrySelect to parameterized SQL.
// Returns (sql, params, error). The query is validated first; a structurally
// invalid query is never rendered.
func (c *SQLCompiler) Compile(q queryir.EntrySelect) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, err
	}

	var b strings.Builder
	var params []any

	b.WriteString("SELECT ")
	b.WriteString(EntryColumns)
	b.WriteString(" FROM entries ")
	b.WriteString(queryir.EntryAlias)

	for _, join := range q.Joins {
		fmt.Fprintf(&b, " INNER JOIN %s %s ON %s.%s = %s.id AND %s.field_id = ?",
			join.Table.Name, join.Alias,
			join.Alias, join.Table.EntryColumn, queryir.EntryAlias,
			join.Alias)
		params = append(params, join.FieldID)
	}

	b.WriteString(" WHERE ")
	b.WriteString(queryir.EntryAlias)
	b.WriteString(".collection_id = ?")
	params = append(params, q.CollectionID)

	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		if filterSQL != "" {
			b.WriteString(" AND ")
			b.WriteString(filterSQL)
			params = append(params, filterParams...)
		}
	}

	fmt.Fprintf(&b, " ORDER BY %s.created_at %s, %s.rowid %s",
		queryir.EntryAlias, q.Order, queryir.EntryAlias, q.Order)

	return b.String(), params, nil
}

// compilePredicate compiles a predicate to a WHERE fragment.
// Returns ("", nil, nil) for predicates that are always true.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "", nil, nil
	case queryir.Compare:
		return fmt.Sprintf("%s %s ?", pred.Column, pred.Op), []any{pred.Value.Any()}, nil
	case queryir.Like:
		return fmt.Sprintf("%s LIKE ?", pred.Column), []any{pred.Pattern}, nil
	case queryir.IsNull:
		if pred.Negated {
			return fmt.Sprintf("%s IS NOT NULL", pred.Column), nil, nil
		}
		return fmt.Sprintf("%s IS NULL", pred.Column), nil, nil
	case queryir.Exists:
		return c.compileExists(pred)
	case queryir.And:
		return c.compileAnd(pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

// compileAnd joins sub-predicates with AND. Always-true parts are dropped.
func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	var parts []string
	var params []any

	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		if sql == "" {
			continue
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}

	return strings.Join(parts, " AND "), params, nil
}

// compileExists renders a correlated [NOT] EXISTS subquery.
func (c *SQLCompiler) compileExists(ex queryir.Exists) (string, []any, error) {
	var b strings.Builder
	if ex.Negated {
		b.WriteString("NOT ")
	}
	fmt.Fprintf(&b, "EXISTS (SELECT 1 FROM %s %s WHERE %s.%s = %s.id AND %s.field_id = ?",
		ex.Table.Name, ex.Alias,
		ex.Alias, ex.Table.EntryColumn, queryir.EntryAlias,
		ex.Alias)
	params := []any{ex.FieldID}

	inner, innerParams, err := c.compilePredicate(ex.Filter)
	if err != nil {
		return "", nil, fmt.Errorf("compile exists %s: %w", ex.Alias, err)
	}
	if inner != "" {
		b.WriteString(" AND ")
		b.WriteString(inner)
		params = append(params, innerParams...)
	}
	b.WriteString(")")

	return b.String(), params, nil
}
