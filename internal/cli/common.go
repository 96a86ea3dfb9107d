package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/query"
	"github.com/roach88/flexstore/internal/schema"
	"github.com/roach88/flexstore/internal/store"
)

// resolveCollection accepts a collection id or name.
func resolveCollection(ctx context.Context, svc *query.Service, ref string) (schema.Collection, error) {
	id, err := uuid.Parse(ref)
	if err != nil {
		return svc.CollectionByName(ctx, ref)
	}
	all, err := svc.Collections(ctx)
	if err != nil {
		return schema.Collection{}, err
	}
	for _, c := range all {
		if c.ID == id {
			return c, nil
		}
	}
	return schema.Collection{}, schema.NewCollectionNotFound(ref)
}

// formatValue renders a value on one line for text output.
func formatValue(v schema.Value) string {
	switch v := v.(type) {
	case schema.TextValue:
		if v.Value == nil {
			return "null"
		}
		return strconv.Quote(*v.Value)
	case schema.TypstTextValue:
		return strconv.Quote(v.Raw)
	case schema.BooleanValue:
		if v.Value == nil {
			return "null"
		}
		return strconv.FormatBool(*v.Value)
	case schema.NumberValue:
		if v.Value == nil {
			return "null"
		}
		return strconv.FormatFloat(*v.Value, 'g', -1, 64)
	case schema.DateTimeValue:
		if v.Value == nil {
			return "null"
		}
		return store.FormatDateTime(*v.Value)
	case schema.TextListValue:
		quoted := make([]string, len(v.Value))
		for i, s := range v.Value {
			quoted[i] = strconv.Quote(s)
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case schema.NumberListValue:
		nums := make([]string, len(v.Value))
		for i, n := range v.Value {
			nums[i] = strconv.FormatFloat(n, 'g', -1, 64)
		}
		return "[" + strings.Join(nums, ", ") + "]"
	case schema.RelationValue:
		return "-> " + v.ToEntryID.String()
	case schema.ObjectValue:
		return string(v.Value)
	default:
		return fmt.Sprintf("<unknown %T>", v)
	}
}

func writeValues(w io.Writer, values []schema.FieldValue) {
	for _, fv := range values {
		fmt.Fprintf(w, "  %s (%s): %s\n", fv.Field.Name, fv.Field.DataType, formatValue(fv.Value))
	}
}
