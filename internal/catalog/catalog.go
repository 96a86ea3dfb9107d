// Package catalog loads and resolves field descriptors for a collection.
//
// The catalog holds no state between calls: every LoadFields re-reads the
// store, and Resolve works on the slice it is handed.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/schema"
)

// FieldFinder is the storage capability the catalog reads from.
type FieldFinder interface {
	FindFields(ctx context.Context, collectionID uuid.UUID) ([]schema.Field, error)
}

// Catalog loads field declarations through a FieldFinder.
type Catalog struct {
	finder FieldFinder
}

// New creates a Catalog backed by finder.
func New(finder FieldFinder) *Catalog {
	return &Catalog{finder: finder}
}

// LoadFields returns every field declared for the collection in creation
// order. No semantic field ordering beyond that is guaranteed.
func (c *Catalog) LoadFields(ctx context.Context, collectionID uuid.UUID) ([]schema.Field, error) {
	fields, err := c.finder.FindFields(ctx, collectionID)
	if err != nil {
		return nil, schema.NewStoreError("load fields", err)
	}
	return fields, nil
}

// Resolve finds the field with exactly the given name and checks that its
// data type is one of allowed.
//
// Returns FieldNotFound if no field has that name, and FieldTypeMismatch if
// the field's type is not in allowed.
func Resolve(fields []schema.Field, name string, allowed ...schema.DataType) (schema.Field, error) {
	for _, f := range fields {
		if f.Name != name {
			continue
		}
		if !schema.ContainsDataType(allowed, f.DataType) {
			return schema.Field{}, schema.NewFieldTypeMismatch(name, f.DataType, allowed)
		}
		return f, nil
	}
	return schema.Field{}, schema.NewFieldNotFound(name)
}
