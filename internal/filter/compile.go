package filter

import (
	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/catalog"
	"github.com/roach88/flexstore/internal/queryir"
	"github.com/roach88/flexstore/internal/schema"
)

// Plan is a compiled filter set: the value joins it needs and the predicates
// that must all hold.
type Plan struct {
	Joins      []queryir.ValueJoin
	Predicates []queryir.Predicate
}

// Apply returns sel extended with the plan's joins and predicates.
// Existing joins and filter on sel are kept and conjoined.
func (p *Plan) Apply(sel queryir.EntrySelect) queryir.EntrySelect {
	if p == nil {
		return sel
	}
	sel.Joins = append(append([]queryir.ValueJoin{}, sel.Joins...), p.Joins...)

	preds := make([]queryir.Predicate, 0, len(p.Predicates)+1)
	if sel.Filter != nil {
		preds = append(preds, sel.Filter)
	}
	preds = append(preds, p.Predicates...)
	if len(preds) > 0 {
		sel.Filter = queryir.And{Predicates: preds}
	}
	return sel
}

// Compile validates filters against fields and produces a Plan.
//
// Filters are compiled kind by kind (text, number, boolean, date-time, list,
// relation, object) and in slice order within a kind. A nil filters value
// yields an empty plan.
func Compile(fields []schema.Field, filters *EntryFilters) (*Plan, error) {
	c := &compiler{fields: fields, plan: &Plan{}}
	if filters == nil {
		return c.plan, nil
	}

	for _, f := range filters.TextFilters {
		if err := c.text(f); err != nil {
			return nil, err
		}
	}
	for _, f := range filters.NumberFilters {
		if err := c.number(f); err != nil {
			return nil, err
		}
	}
	for _, f := range filters.BooleanFilters {
		if err := c.boolean(f); err != nil {
			return nil, err
		}
	}
	for _, f := range filters.DateTimeFilters {
		if err := c.dateTime(f); err != nil {
			return nil, err
		}
	}
	for _, f := range filters.ListFilters {
		if err := c.list(f); err != nil {
			return nil, err
		}
	}
	for _, f := range filters.RelationFilters {
		if err := c.relation(f); err != nil {
			return nil, err
		}
	}
	for _, f := range filters.ObjectFilters {
		if err := c.object(f); err != nil {
			return nil, err
		}
	}

	return c.plan, nil
}

// compiler accumulates joins and predicates and hands out unique aliases.
type compiler struct {
	fields []schema.Field
	plan   *Plan
	joins  int
	exists int
}

// join adds an inner join to the field's value table and returns the column
// filters compare against.
func (c *compiler) join(field schema.Field) (queryir.ColumnRef, error) {
	table, err := queryir.TableFor(field.DataType)
	if err != nil {
		return queryir.ColumnRef{}, err
	}
	alias := queryir.JoinAlias(c.joins)
	c.joins++
	c.plan.Joins = append(c.plan.Joins, queryir.ValueJoin{
		Alias:   alias,
		Table:   table,
		FieldID: field.ID.String(),
	})
	return queryir.Col(alias, table.ValueColumn), nil
}

func (c *compiler) existsAlias() string {
	alias := queryir.ExistsAlias(c.exists)
	c.exists++
	return alias
}

func (c *compiler) add(preds ...queryir.Predicate) {
	c.plan.Predicates = append(c.plan.Predicates, preds...)
}

func (c *compiler) text(f TextFilter) error {
	field, err := catalog.Resolve(c.fields, f.FieldName, schema.DataTypeText, schema.DataTypeTypstText)
	if err != nil {
		return err
	}

	var build func(queryir.ColumnRef) queryir.Predicate
	switch f.Comparison {
	case TextEq:
		build = compare(queryir.OpEq, queryir.String(f.Value))
	case TextNeq:
		build = compare(queryir.OpNeq, queryir.String(f.Value))
	case TextContains:
		build = like("%" + f.Value + "%")
	case TextStartsWith:
		build = like(f.Value + "%")
	case TextEndsWith:
		build = like("%" + f.Value)
	default:
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	}

	col, err := c.join(field)
	if err != nil {
		return err
	}
	c.add(build(col))
	return nil
}

func (c *compiler) number(f NumberFilter) error {
	field, err := catalog.Resolve(c.fields, f.FieldName, schema.DataTypeNumber)
	if err != nil {
		return err
	}

	op, ok := numberOps[f.Comparison]
	if !ok {
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	}

	col, err := c.join(field)
	if err != nil {
		return err
	}
	c.add(queryir.Compare{Column: col, Op: op, Value: queryir.Number(f.Value)})
	return nil
}

var numberOps = map[NumberComparison]queryir.CompareOp{
	NumberEq:  queryir.OpEq,
	NumberNeq: queryir.OpNeq,
	NumberGt:  queryir.OpGt,
	NumberGte: queryir.OpGte,
	NumberLt:  queryir.OpLt,
	NumberLte: queryir.OpLte,
}

func (c *compiler) boolean(f BooleanFilter) error {
	field, err := catalog.Resolve(c.fields, f.FieldName, schema.DataTypeBoolean)
	if err != nil {
		return err
	}

	var op queryir.CompareOp
	switch f.Comparison {
	case BooleanEq:
		op = queryir.OpEq
	case BooleanNeq:
		op = queryir.OpNeq
	default:
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	}

	col, err := c.join(field)
	if err != nil {
		return err
	}
	c.add(queryir.Compare{Column: col, Op: op, Value: queryir.Bool(f.Value)})
	return nil
}

func (c *compiler) dateTime(f DateTimeFilter) error {
	field, err := catalog.Resolve(c.fields, f.FieldName, schema.DataTypeDateTime)
	if err != nil {
		return err
	}

	op, ok := dateTimeOps[f.Comparison]
	if !ok {
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	}

	col, err := c.join(field)
	if err != nil {
		return err
	}
	// The literal is not parsed; stored values are RFC 3339 text and compare
	// lexicographically against it.
	c.add(queryir.Compare{Column: col, Op: op, Value: queryir.String(f.Value)})
	return nil
}

var dateTimeOps = map[DateTimeComparison]queryir.CompareOp{
	DateTimeEq:  queryir.OpEq,
	DateTimeNeq: queryir.OpNeq,
	DateTimeGt:  queryir.OpGt,
	DateTimeGte: queryir.OpGte,
	DateTimeLt:  queryir.OpLt,
	DateTimeLte: queryir.OpLte,
}

func (c *compiler) list(f ListFilter) error {
	field, err := catalog.Resolve(c.fields, f.FieldName, schema.DataTypeTextList, schema.DataTypeNumberList)
	if err != nil {
		return err
	}

	var build func(queryir.ColumnRef) queryir.Predicate
	switch f.Comparison {
	case ListContains:
		if len(f.Values) == 0 {
			return schema.NewMissingRequiredOperand(field.Name, "values", string(f.Comparison))
		}
		// Only the first supplied value participates.
		build = like("%" + f.Values[0] + "%")
	case ListIsEmpty:
		build = isNull(false)
	case ListIsNotEmpty:
		build = isNull(true)
	default:
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	}

	col, err := c.join(field)
	if err != nil {
		return err
	}
	c.add(build(col))
	return nil
}

func (c *compiler) relation(f RelationFilter) error {
	field, err := catalog.Resolve(c.fields, f.FieldName, schema.DataTypeRelation)
	if err != nil {
		return err
	}

	var target *uuid.UUID
	switch f.Comparison {
	case RelationConnectedTo, RelationNotConnectedTo:
		if f.TargetEntryID == nil {
			return schema.NewMissingRequiredOperand(field.Name, "target_entry_id", string(f.Comparison))
		}
		id, err := uuid.Parse(*f.TargetEntryID)
		if err != nil {
			return schema.NewInvalidOperand(field.Name, *f.TargetEntryID, "target_entry_id is not a valid UUID")
		}
		target = &id
	case RelationHasConnections, RelationHasNoConnections:
	default:
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	}

	fieldID := field.ID.String()
	edges := func(filter queryir.Predicate, negated bool) queryir.Exists {
		return queryir.Exists{
			Alias:   c.existsAlias(),
			Table:   queryir.RelationValues,
			FieldID: fieldID,
			Filter:  filter,
			Negated: negated,
		}
	}
	toTarget := func(alias string) queryir.Predicate {
		return queryir.Compare{
			Column: queryir.Col(alias, queryir.RelationValues.ValueColumn),
			Op:     queryir.OpEq,
			Value:  queryir.String(target.String()),
		}
	}

	// The presence guard stands in for the inner join used by the other
	// kinds: an entry with no edge for this field never matches.
	guard := edges(nil, false)

	switch f.Comparison {
	case RelationConnectedTo, RelationNotConnectedTo:
		edge := edges(nil, f.Comparison == RelationNotConnectedTo)
		edge.Filter = toTarget(edge.Alias)
		c.add(guard, edge)
	case RelationHasConnections:
		c.add(guard)
	case RelationHasNoConnections:
		c.add(guard, edges(nil, true))
	}
	return nil
}

func (c *compiler) object(f ObjectFilter) error {
	field, err := catalog.Resolve(c.fields, f.FieldName, schema.DataTypeObject)
	if err != nil {
		return err
	}

	var build func(queryir.ColumnRef) queryir.Predicate
	switch f.Comparison {
	case ObjectHasProperty, ObjectPropertyEquals, ObjectPropertyContains:
		if f.PropertyPath == nil || *f.PropertyPath == "" {
			return schema.NewMissingRequiredOperand(field.Name, "property_path", string(f.Comparison))
		}
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	case ObjectIsEmpty:
		build = isNull(false)
	case ObjectIsNotEmpty:
		build = isNull(true)
	default:
		return schema.NewUnsupportedComparison(field.Name, string(f.Comparison), field.DataType)
	}

	col, err := c.join(field)
	if err != nil {
		return err
	}
	c.add(build(col))
	return nil
}

func compare(op queryir.CompareOp, value queryir.Literal) func(queryir.ColumnRef) queryir.Predicate {
	return func(col queryir.ColumnRef) queryir.Predicate {
		return queryir.Compare{Column: col, Op: op, Value: value}
	}
}

func like(pattern string) func(queryir.ColumnRef) queryir.Predicate {
	return func(col queryir.ColumnRef) queryir.Predicate {
		return queryir.Like{Column: col, Pattern: pattern}
	}
}

func isNull(negated bool) func(queryir.ColumnRef) queryir.Predicate {
	return func(col queryir.ColumnRef) queryir.Predicate {
		return queryir.IsNull{Column: col, Negated: negated}
	}
}
