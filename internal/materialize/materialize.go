// Package materialize rebuilds the sparse typed values of an entry into a
// uniform []schema.FieldValue.
//
// Each field is read from its kind's value table keyed by (entry, field).
// Fields without a row are omitted; there is no placeholder for "unset".
package materialize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/schema"
)

// ValueReader reads a single value row per kind. Each method reports
// found=false when the entry has no row for the field.
type ValueReader interface {
	ReadText(ctx context.Context, entryID, fieldID uuid.UUID) (*string, bool, error)
	ReadTypstText(ctx context.Context, entryID, fieldID uuid.UUID) (raw, rendered string, found bool, err error)
	ReadBoolean(ctx context.Context, entryID, fieldID uuid.UUID) (*bool, bool, error)
	ReadNumber(ctx context.Context, entryID, fieldID uuid.UUID) (*float64, bool, error)
	ReadDateTime(ctx context.Context, entryID, fieldID uuid.UUID) (*time.Time, bool, error)
	ReadTextList(ctx context.Context, entryID, fieldID uuid.UUID) ([]string, bool, error)
	ReadNumberList(ctx context.Context, entryID, fieldID uuid.UUID) ([]float64, bool, error)
	ReadRelation(ctx context.Context, entryID, fieldID uuid.UUID) (uuid.UUID, bool, error)
	ReadObject(ctx context.Context, entryID, fieldID uuid.UUID) (json.RawMessage, bool, error)
}

// Materializer assembles field values for entries.
type Materializer struct {
	reader ValueReader
	lookup schema.EntryLookup
}

// New creates a Materializer. lookup backs the lazy FromEntry/ToEntry
// accessors of relation values; it may be nil.
func New(reader ValueReader, lookup schema.EntryLookup) *Materializer {
	return &Materializer{reader: reader, lookup: lookup}
}

// Materialize returns the values of entry for fields, in the order of
// fields. Fields the entry has no value for are skipped.
//
// A Relation field yields its first edge only.
func (m *Materializer) Materialize(ctx context.Context, entry schema.Entry, fields []schema.Field) ([]schema.FieldValue, error) {
	values := make([]schema.FieldValue, 0, len(fields))
	for _, field := range fields {
		value, found, err := m.read(ctx, entry.ID, field)
		if err != nil {
			var se *schema.Error
			if errors.As(err, &se) {
				return nil, err
			}
			return nil, schema.NewStoreError(fmt.Sprintf("read value of field %q", field.Name), err)
		}
		if !found {
			continue
		}
		values = append(values, schema.FieldValue{Field: field, Value: value})
	}
	return values, nil
}

func (m *Materializer) read(ctx context.Context, entryID uuid.UUID, field schema.Field) (schema.Value, bool, error) {
	switch field.DataType {
	case schema.DataTypeText:
		v, found, err := m.reader.ReadText(ctx, entryID, field.ID)
		return schema.TextValue{Value: v}, found, err

	case schema.DataTypeTypstText:
		raw, rendered, found, err := m.reader.ReadTypstText(ctx, entryID, field.ID)
		return schema.TypstTextValue{Raw: raw, Rendered: rendered}, found, err

	case schema.DataTypeBoolean:
		v, found, err := m.reader.ReadBoolean(ctx, entryID, field.ID)
		return schema.BooleanValue{Value: v}, found, err

	case schema.DataTypeNumber:
		v, found, err := m.reader.ReadNumber(ctx, entryID, field.ID)
		return schema.NumberValue{Value: v}, found, err

	case schema.DataTypeDateTime:
		v, found, err := m.reader.ReadDateTime(ctx, entryID, field.ID)
		return schema.DateTimeValue{Value: v}, found, err

	case schema.DataTypeTextList:
		v, found, err := m.reader.ReadTextList(ctx, entryID, field.ID)
		if v == nil {
			v = []string{}
		}
		return schema.TextListValue{Value: v}, found, err

	case schema.DataTypeNumberList:
		v, found, err := m.reader.ReadNumberList(ctx, entryID, field.ID)
		if v == nil {
			v = []float64{}
		}
		return schema.NumberListValue{Value: v}, found, err

	case schema.DataTypeRelation:
		to, found, err := m.reader.ReadRelation(ctx, entryID, field.ID)
		return schema.NewRelationValue(entryID, to, m.lookup), found, err

	case schema.DataTypeObject:
		v, found, err := m.reader.ReadObject(ctx, entryID, field.ID)
		if v == nil {
			v = json.RawMessage("null")
		}
		return schema.ObjectValue{Value: v}, found, err

	default:
		return nil, false, &schema.Error{
			Code:    schema.ErrCodeFieldTypeMismatch,
			Message: fmt.Sprintf("field %q has unknown data type %q", field.Name, field.DataType),
			Field:   field.Name,
		}
	}
}
