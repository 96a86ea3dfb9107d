package filter

import (
	"fmt"
	"strings"
)

// TextComparison applies to Text and TypstText fields.
type TextComparison string

const (
	TextEq         TextComparison = "Eq"
	TextNeq        TextComparison = "Neq"
	TextContains   TextComparison = "Contains"
	TextStartsWith TextComparison = "StartsWith"
	TextEndsWith   TextComparison = "EndsWith"
)

// NumberComparison applies to Number fields.
type NumberComparison string

const (
	NumberEq  NumberComparison = "Eq"
	NumberNeq NumberComparison = "Neq"
	NumberGt  NumberComparison = "Gt"
	NumberGte NumberComparison = "Gte"
	NumberLt  NumberComparison = "Lt"
	NumberLte NumberComparison = "Lte"
)

// BooleanComparison applies to Boolean fields.
type BooleanComparison string

const (
	BooleanEq  BooleanComparison = "Eq"
	BooleanNeq BooleanComparison = "Neq"
)

// DateTimeComparison applies to DateTime fields.
type DateTimeComparison string

const (
	DateTimeEq  DateTimeComparison = "Eq"
	DateTimeNeq DateTimeComparison = "Neq"
	DateTimeGt  DateTimeComparison = "Gt"
	DateTimeGte DateTimeComparison = "Gte"
	DateTimeLt  DateTimeComparison = "Lt"
	DateTimeLte DateTimeComparison = "Lte"
)

// ListComparison applies to TextList and NumberList fields.
type ListComparison string

const (
	ListContains    ListComparison = "Contains"
	ListContainsAll ListComparison = "ContainsAll"
	ListContainsAny ListComparison = "ContainsAny"
	ListIsEmpty     ListComparison = "IsEmpty"
	ListIsNotEmpty  ListComparison = "IsNotEmpty"
)

// RelationComparison applies to Relation fields.
type RelationComparison string

const (
	RelationConnectedTo      RelationComparison = "ConnectedTo"
	RelationNotConnectedTo   RelationComparison = "NotConnectedTo"
	RelationHasConnections   RelationComparison = "HasConnections"
	RelationHasNoConnections RelationComparison = "HasNoConnections"
)

// ObjectComparison applies to Object fields.
type ObjectComparison string

const (
	ObjectHasProperty      ObjectComparison = "HasProperty"
	ObjectPropertyEquals   ObjectComparison = "PropertyEquals"
	ObjectPropertyContains ObjectComparison = "PropertyContains"
	ObjectIsEmpty          ObjectComparison = "IsEmpty"
	ObjectIsNotEmpty       ObjectComparison = "IsNotEmpty"
)

// TextFilter compares a Text or TypstText field with a string.
type TextFilter struct {
	FieldName  string         `json:"field_name" yaml:"field_name"`
	Comparison TextComparison `json:"comparison" yaml:"comparison"`
	Value      string         `json:"value" yaml:"value"`
}

// NumberFilter compares a Number field with a float.
type NumberFilter struct {
	FieldName  string           `json:"field_name" yaml:"field_name"`
	Comparison NumberComparison `json:"comparison" yaml:"comparison"`
	Value      float64          `json:"value" yaml:"value"`
}

// BooleanFilter compares a Boolean field with a bool.
type BooleanFilter struct {
	FieldName  string            `json:"field_name" yaml:"field_name"`
	Comparison BooleanComparison `json:"comparison" yaml:"comparison"`
	Value      bool              `json:"value" yaml:"value"`
}

// DateTimeFilter compares a DateTime field with an ISO 8601 string. The
// literal is passed to the store as written.
type DateTimeFilter struct {
	FieldName  string             `json:"field_name" yaml:"field_name"`
	Comparison DateTimeComparison `json:"comparison" yaml:"comparison"`
	Value      string             `json:"value" yaml:"value"`
}

// ListFilter tests a TextList or NumberList field. Values is only consulted
// by Contains, and only its first element is used.
type ListFilter struct {
	FieldName  string         `json:"field_name" yaml:"field_name"`
	Comparison ListComparison `json:"comparison" yaml:"comparison"`
	Values     []string       `json:"values,omitempty" yaml:"values,omitempty"`
}

// RelationFilter tests the edges of a Relation field. TargetEntryID is
// required for ConnectedTo and NotConnectedTo and must be a UUID.
type RelationFilter struct {
	FieldName     string             `json:"field_name" yaml:"field_name"`
	Comparison    RelationComparison `json:"comparison" yaml:"comparison"`
	TargetEntryID *string            `json:"target_entry_id,omitempty" yaml:"target_entry_id,omitempty"`
}

// ObjectFilter tests an Object field.
type ObjectFilter struct {
	FieldName     string           `json:"field_name" yaml:"field_name"`
	Comparison    ObjectComparison `json:"comparison" yaml:"comparison"`
	PropertyPath  *string          `json:"property_path,omitempty" yaml:"property_path,omitempty"`
	PropertyValue *string          `json:"property_value,omitempty" yaml:"property_value,omitempty"`
}

// EntryFilters is the full filter set for an entries query. Every filter in
// every slice must hold for an entry to match; there is no OR.
type EntryFilters struct {
	TextFilters     []TextFilter     `json:"text_filters,omitempty" yaml:"text_filters,omitempty"`
	NumberFilters   []NumberFilter   `json:"number_filters,omitempty" yaml:"number_filters,omitempty"`
	BooleanFilters  []BooleanFilter  `json:"boolean_filters,omitempty" yaml:"boolean_filters,omitempty"`
	DateTimeFilters []DateTimeFilter `json:"date_time_filters,omitempty" yaml:"date_time_filters,omitempty"`
	ListFilters     []ListFilter     `json:"list_filters,omitempty" yaml:"list_filters,omitempty"`
	RelationFilters []RelationFilter `json:"relation_filters,omitempty" yaml:"relation_filters,omitempty"`
	ObjectFilters   []ObjectFilter   `json:"object_filters,omitempty" yaml:"object_filters,omitempty"`
}

// Len returns the total number of filters across all kinds.
func (f *EntryFilters) Len() int {
	if f == nil {
		return 0
	}
	return len(f.TextFilters) + len(f.NumberFilters) + len(f.BooleanFilters) +
		len(f.DateTimeFilters) + len(f.ListFilters) + len(f.RelationFilters) +
		len(f.ObjectFilters)
}

// OrderBy selects the creation-time sort direction of an entries query.
type OrderBy string

const (
	OrderAsc  OrderBy = "Asc"
	OrderDesc OrderBy = "Desc"
)

// ParseOrderBy parses "asc" or "desc" in any case. Empty means Asc.
func ParseOrderBy(s string) (OrderBy, error) {
	switch strings.ToLower(s) {
	case "", "asc":
		return OrderAsc, nil
	case "desc":
		return OrderDesc, nil
	default:
		return "", fmt.Errorf("invalid order %q: must be asc or desc", s)
	}
}
