package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/schema"
)

// Writer seeds collections, fields, entries and values inside one
// transaction. Value mutation is not part of the query surface; Writer
// exists for fixtures, tests and the load command.
type Writer struct {
	tx *sql.Tx
}

// Write runs fn with a Writer bound to a new transaction.
// The transaction commits if fn returns nil and rolls back otherwise.
func (s *Store) Write(ctx context.Context, fn func(w *Writer) error) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&Writer{tx: tx})
	})
}

func (w *Writer) exec(ctx context.Context, op, query string, args ...any) error {
	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateCollection inserts a collection.
func (w *Writer) CreateCollection(ctx context.Context, c schema.Collection) error {
	return w.exec(ctx, "insert collection", `
		INSERT INTO collections (id, name, created_at, created_by)
		VALUES (?, ?, ?, ?)
	`, c.ID.String(), c.Name, FormatTimestamp(c.CreatedAt), c.CreatedBy.String())
}

// CreateField inserts a field. The data type must be valid.
func (w *Writer) CreateField(ctx context.Context, f schema.Field) error {
	if !f.DataType.Valid() {
		return fmt.Errorf("insert field %q: invalid data type %q", f.Name, f.DataType)
	}
	return w.exec(ctx, "insert field", `
		INSERT INTO fields (id, collection_id, name, data_type, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, f.ID.String(), f.CollectionID.String(), f.Name, string(f.DataType), FormatTimestamp(f.CreatedAt))
}

// CreateEntry inserts an entry.
func (w *Writer) CreateEntry(ctx context.Context, e schema.Entry) error {
	return w.exec(ctx, "insert entry", `
		INSERT INTO entries (id, collection_id, created_at, created_by, name)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID.String(), e.CollectionID.String(), FormatTimestamp(e.CreatedAt), e.CreatedBy.String(), e.Name)
}

// upsert writes a single-column value row for (entry, field).
func (w *Writer) upsert(ctx context.Context, table string, entryID, fieldID uuid.UUID, value any) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (entry_id, field_id, value) VALUES (?, ?, ?)
		ON CONFLICT (entry_id, field_id) DO UPDATE SET value = excluded.value
	`, table)
	return w.exec(ctx, "write "+table, query, entryID.String(), fieldID.String(), value)
}

// SetText writes a Text value; nil stores NULL.
func (w *Writer) SetText(ctx context.Context, entryID, fieldID uuid.UUID, v *string) error {
	return w.upsert(ctx, "entry_text_values", entryID, fieldID, nullableString(v))
}

// SetTypstText writes a TypstText value.
func (w *Writer) SetTypstText(ctx context.Context, entryID, fieldID uuid.UUID, raw, rendered string) error {
	return w.exec(ctx, "write entry_typst_text_values", `
		INSERT INTO entry_typst_text_values (entry_id, field_id, raw, rendered) VALUES (?, ?, ?, ?)
		ON CONFLICT (entry_id, field_id) DO UPDATE SET raw = excluded.raw, rendered = excluded.rendered
	`, entryID.String(), fieldID.String(), raw, rendered)
}

// SetBoolean writes a Boolean value; nil stores NULL.
func (w *Writer) SetBoolean(ctx context.Context, entryID, fieldID uuid.UUID, v *bool) error {
	return w.upsert(ctx, "entry_boolean_values", entryID, fieldID, nullableBool(v))
}

// SetNumber writes a Number value; nil stores NULL.
func (w *Writer) SetNumber(ctx context.Context, entryID, fieldID uuid.UUID, v *float64) error {
	return w.upsert(ctx, "entry_number_values", entryID, fieldID, nullableFloat(v))
}

// SetDateTime writes a DateTime value at second precision; nil stores NULL.
func (w *Writer) SetDateTime(ctx context.Context, entryID, fieldID uuid.UUID, v *time.Time) error {
	return w.upsert(ctx, "entry_date_time_values", entryID, fieldID, nullableDateTime(v))
}

// SetTextList writes a TextList value; nil stores NULL.
func (w *Writer) SetTextList(ctx context.Context, entryID, fieldID uuid.UUID, v []string) error {
	payload, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return w.upsert(ctx, "entry_text_list_values", entryID, fieldID, payload)
}

// SetNumberList writes a NumberList value; nil stores NULL.
func (w *Writer) SetNumberList(ctx context.Context, entryID, fieldID uuid.UUID, v []float64) error {
	payload, err := encodeJSON(v)
	if err != nil {
		return err
	}
	return w.upsert(ctx, "entry_number_list_values", entryID, fieldID, payload)
}

// SetObject writes an Object value; nil stores NULL.
func (w *Writer) SetObject(ctx context.Context, entryID, fieldID uuid.UUID, v json.RawMessage) error {
	if v != nil && !json.Valid(v) {
		return fmt.Errorf("write entry_object_values: invalid JSON payload")
	}
	return w.upsert(ctx, "entry_object_values", entryID, fieldID, nullableJSON(v))
}

// AddRelation adds an edge from one entry to another. Adding an existing
// edge is a no-op.
func (w *Writer) AddRelation(ctx context.Context, fromEntryID, fieldID, toEntryID uuid.UUID) error {
	return w.exec(ctx, "write entry_relation_values", `
		INSERT OR IGNORE INTO entry_relation_values (from_entry_id, field_id, to_entry_id)
		VALUES (?, ?, ?)
	`, fromEntryID.String(), fieldID.String(), toEntryID.String())
}
