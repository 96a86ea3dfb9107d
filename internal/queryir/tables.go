package queryir

import (
	"fmt"

	"github.com/roach88/flexstore/internal/schema"
)

// TableFor returns the value table holding values of the given data kind.
func TableFor(t schema.DataType) (Table, error) {
	switch t {
	case schema.DataTypeText:
		return TextValues, nil
	case schema.DataTypeTypstText:
		return TypstTextValues, nil
	case schema.DataTypeBoolean:
		return BooleanValues, nil
	case schema.DataTypeNumber:
		return NumberValues, nil
	case schema.DataTypeDateTime:
		return DateTimeValues, nil
	case schema.DataTypeTextList:
		return TextListValues, nil
	case schema.DataTypeNumberList:
		return NumberListValues, nil
	case schema.DataTypeRelation:
		return RelationValues, nil
	case schema.DataTypeObject:
		return ObjectValues, nil
	default:
		return Table{}, fmt.Errorf("no value table for data type %q", t)
	}
}
