package schema

import (
	"fmt"
	"strings"
)

// DataType is the declared kind of a Field. It selects the value table a
// field's values live in and the filter kinds that may target it.
type DataType string

const (
	DataTypeText       DataType = "Text"
	DataTypeTypstText  DataType = "TypstText"
	DataTypeBoolean    DataType = "Boolean"
	DataTypeNumber     DataType = "Number"
	DataTypeDateTime   DataType = "DateTime"
	DataTypeTextList   DataType = "TextList"
	DataTypeNumberList DataType = "NumberList"
	DataTypeRelation   DataType = "Relation"
	DataTypeObject     DataType = "Object"
)

// AllDataTypes lists every data kind in declaration order.
var AllDataTypes = []DataType{
	DataTypeText,
	DataTypeTypstText,
	DataTypeBoolean,
	DataTypeNumber,
	DataTypeDateTime,
	DataTypeTextList,
	DataTypeNumberList,
	DataTypeRelation,
	DataTypeObject,
}

// Valid reports whether t is one of the known data kinds.
func (t DataType) Valid() bool {
	for _, known := range AllDataTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t DataType) String() string {
	return string(t)
}

// ParseDataType resolves a data kind name. Matching is case-insensitive so
// fixture files may use "number" or "Number".
func ParseDataType(s string) (DataType, error) {
	for _, known := range AllDataTypes {
		if strings.EqualFold(string(known), s) {
			return known, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *DataType) UnmarshalText(text []byte) error {
	parsed, err := ParseDataType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ContainsDataType reports whether t is a member of set.
func ContainsDataType(set []DataType, t DataType) bool {
	for _, candidate := range set {
		if candidate == t {
			return true
		}
	}
	return false
}
