package schema

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Value is a sealed interface over the typed payload of one value record.
// Only the nine variants below implement it, one per DataType.
//
// Exhaustive type switch:
//
//	switch v := value.(type) {
//	case TextValue:
//	case TypstTextValue:
//	case BooleanValue:
//	case NumberValue:
//	case DateTimeValue:
//	case TextListValue:
//	case NumberListValue:
//	case RelationValue:
//	case ObjectValue:
//	}
type Value interface {
	Kind() DataType
	value() // Sealed
}

// TextValue holds an optional string.
type TextValue struct {
	Value *string `json:"value"`
}

func (TextValue) Kind() DataType { return DataTypeText }
func (TextValue) value()         {}

// TypstTextValue holds raw markup and its rendered output. Rendering happens
// outside this module; both strings are stored as written.
type TypstTextValue struct {
	Raw      string `json:"raw"`
	Rendered string `json:"rendered"`
}

func (TypstTextValue) Kind() DataType { return DataTypeTypstText }
func (TypstTextValue) value()         {}

// BooleanValue holds an optional bool.
type BooleanValue struct {
	Value *bool `json:"value"`
}

func (BooleanValue) Kind() DataType { return DataTypeBoolean }
func (BooleanValue) value()         {}

// NumberValue holds an optional 64-bit float.
type NumberValue struct {
	Value *float64 `json:"value"`
}

func (NumberValue) Kind() DataType { return DataTypeNumber }
func (NumberValue) value()         {}

// DateTimeValue holds an optional UTC timestamp.
type DateTimeValue struct {
	Value *time.Time `json:"value"`
}

func (DateTimeValue) Kind() DataType { return DataTypeDateTime }
func (DateTimeValue) value()         {}

// TextListValue holds an ordered list of strings. A stored NULL list
// materializes as an empty, non-nil slice.
type TextListValue struct {
	Value []string `json:"value"`
}

func (TextListValue) Kind() DataType { return DataTypeTextList }
func (TextListValue) value()         {}

// NumberListValue holds an ordered list of floats. A stored NULL list
// materializes as an empty, non-nil slice.
type NumberListValue struct {
	Value []float64 `json:"value"`
}

func (NumberListValue) Kind() DataType { return DataTypeNumberList }
func (NumberListValue) value()         {}

// ObjectValue holds an opaque JSON document. A stored NULL payload
// materializes as the JSON literal null.
type ObjectValue struct {
	Value json.RawMessage `json:"value"`
}

func (ObjectValue) Kind() DataType { return DataTypeObject }
func (ObjectValue) value()         {}

// EntryLookup resolves an entry by id. It returns (nil, nil) when no such
// entry exists.
type EntryLookup interface {
	Entry(ctx context.Context, id uuid.UUID) (*Entry, error)
}

// RelationValue is a directed edge from one entry to another through a
// Relation field. The related entries are fetched lazily on request.
type RelationValue struct {
	FromEntryID uuid.UUID `json:"from_entry_id"`
	ToEntryID   uuid.UUID `json:"to_entry_id"`

	lookup EntryLookup
}

// NewRelationValue builds a relation value whose FromEntry/ToEntry accessors
// resolve through lookup.
func NewRelationValue(from, to uuid.UUID, lookup EntryLookup) RelationValue {
	return RelationValue{FromEntryID: from, ToEntryID: to, lookup: lookup}
}

func (RelationValue) Kind() DataType { return DataTypeRelation }
func (RelationValue) value()         {}

// FromEntry fetches the source entry of the edge.
// Returns (nil, nil) if the entry no longer exists or no lookup is attached.
func (r RelationValue) FromEntry(ctx context.Context) (*Entry, error) {
	if r.lookup == nil {
		return nil, nil
	}
	return r.lookup.Entry(ctx, r.FromEntryID)
}

// ToEntry fetches the target entry of the edge.
// Returns (nil, nil) if the entry no longer exists or no lookup is attached.
func (r RelationValue) ToEntry(ctx context.Context) (*Entry, error) {
	if r.lookup == nil {
		return nil, nil
	}
	return r.lookup.Entry(ctx, r.ToEntryID)
}

// MarshalJSON renders a FieldValue with an explicit kind tag so clients can
// discriminate the union without inspecting the field declaration.
func (fv FieldValue) MarshalJSON() ([]byte, error) {
	var kind DataType
	if fv.Value != nil {
		kind = fv.Value.Kind()
	}
	return json.Marshal(struct {
		Field Field    `json:"field"`
		Kind  DataType `json:"kind"`
		Value Value    `json:"value"`
	}{fv.Field, kind, fv.Value})
}
