package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/queryir"
	"github.com/roach88/flexstore/internal/schema"
)

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// FindFields returns all fields of a collection in creation order.
// Returns an empty slice (not nil) if the collection has none.
func (s *Store) FindFields(ctx context.Context, collectionID uuid.UUID) ([]schema.Field, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, collection_id, name, data_type, created_at
		FROM fields
		WHERE collection_id = ?
		ORDER BY created_at ASC, rowid ASC
	`, collectionID.String())
	if err != nil {
		return nil, fmt.Errorf("query fields: %w", err)
	}
	defer rows.Close()

	fields := []schema.Field{}
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fields: %w", err)
	}

	return fields, nil
}

// QueryEntries executes an entries query compiled by querysql.
// The query must select querysql.EntryColumns.
func (s *Store) QueryEntries(ctx context.Context, query string, params ...any) ([]schema.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []schema.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// EntryByName returns the first entry of a collection with the given name.
// Returns (nil, nil) if there is none. Which row is "first" is left to
// SQLite when names collide.
func (s *Store) EntryByName(ctx context.Context, collectionID uuid.UUID, name string) (*schema.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, created_at, created_by, name
		FROM entries
		WHERE collection_id = ? AND name = ?
		LIMIT 1
	`, collectionID.String(), name)

	return optionalEntry(row)
}

// Entry returns the entry with the given id, or (nil, nil) if absent.
// Implements schema.EntryLookup.
func (s *Store) Entry(ctx context.Context, id uuid.UUID) (*schema.Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, collection_id, created_at, created_by, name
		FROM entries
		WHERE id = ?
	`, id.String())

	return optionalEntry(row)
}

func optionalEntry(row *sql.Row) (*schema.Entry, error) {
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Collections returns every collection in creation order.
func (s *Store) Collections(ctx context.Context) ([]schema.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, created_by
		FROM collections
		ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query collections: %w", err)
	}
	defer rows.Close()

	return collectCollections(rows)
}

// CollectionByName returns the first collection with the given name, or
// (nil, nil) if there is none.
func (s *Store) CollectionByName(ctx context.Context, name string) (*schema.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, created_by
		FROM collections
		WHERE name = ?
		ORDER BY created_at ASC, rowid ASC
		LIMIT 1
	`, name)

	c, err := scanCollection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CollectionFilter restricts a collection page.
type CollectionFilter struct {
	// NameQuery is matched with text_match against the collection name.
	NameQuery *string
	// CreatedAfter and CreatedBefore are inclusive bounds.
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}

func (f CollectionFilter) where() (string, []any) {
	var parts []string
	var params []any
	if f.NameQuery != nil {
		parts = append(parts, "text_match(name, ?)")
		params = append(params, *f.NameQuery)
	}
	if f.CreatedAfter != nil {
		parts = append(parts, "created_at >= ?")
		params = append(params, FormatTimestamp(*f.CreatedAfter))
	}
	if f.CreatedBefore != nil {
		parts = append(parts, "created_at <= ?")
		params = append(params, FormatTimestamp(*f.CreatedBefore))
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(parts, " AND "), params
}

// CollectionsPage returns one page of collections matching f, in creation
// order, together with the total number of matches.
func (s *Store) CollectionsPage(ctx context.Context, f CollectionFilter, limit, offset int) ([]schema.Collection, int, error) {
	where, params := f.where()

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM collections"+where, params...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, created_at, created_by FROM collections"+where+
			" ORDER BY created_at ASC, rowid ASC LIMIT ? OFFSET ?",
		append(params, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query collections page: %w", err)
	}
	defer rows.Close()

	items, err := collectCollections(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func collectCollections(rows *sql.Rows) ([]schema.Collection, error) {
	collections := []schema.Collection{}
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate collections: %w", err)
	}
	return collections, nil
}

func scanCollection(row rowScanner) (schema.Collection, error) {
	var id, createdAt, createdBy string
	var c schema.Collection
	if err := row.Scan(&id, &c.Name, &createdAt, &createdBy); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c, err
		}
		return c, fmt.Errorf("scan collection: %w", err)
	}

	var err error
	if c.ID, err = parseUUID(id); err != nil {
		return c, err
	}
	if c.CreatedBy, err = parseUUID(createdBy); err != nil {
		return c, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return c, err
	}
	return c, nil
}

func scanField(row rowScanner) (schema.Field, error) {
	var id, collectionID, dataType, createdAt string
	var f schema.Field
	if err := row.Scan(&id, &collectionID, &f.Name, &dataType, &createdAt); err != nil {
		return f, fmt.Errorf("scan field: %w", err)
	}

	var err error
	if f.ID, err = parseUUID(id); err != nil {
		return f, err
	}
	if f.CollectionID, err = parseUUID(collectionID); err != nil {
		return f, err
	}
	if f.DataType, err = schema.ParseDataType(dataType); err != nil {
		return f, err
	}
	if f.CreatedAt, err = parseTime(createdAt); err != nil {
		return f, err
	}
	return f, nil
}

// scanEntry scans the columns listed in querysql.EntryColumns.
func scanEntry(row rowScanner) (schema.Entry, error) {
	var id, collectionID, createdAt, createdBy string
	var e schema.Entry
	if err := row.Scan(&id, &collectionID, &createdAt, &createdBy, &e.Name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, err
		}
		return e, fmt.Errorf("scan entry: %w", err)
	}

	var err error
	if e.ID, err = parseUUID(id); err != nil {
		return e, err
	}
	if e.CollectionID, err = parseUUID(collectionID); err != nil {
		return e, err
	}
	if e.CreatedBy, err = parseUUID(createdBy); err != nil {
		return e, err
	}
	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return e, err
	}
	return e, nil
}

// valueRow fetches one row of a value table for (entry, field) and scans
// the given columns. Returns found=false when no row exists.
func (s *Store) valueRow(ctx context.Context, table queryir.Table, entryID, fieldID uuid.UUID, columns string, dest ...any) (bool, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ? AND field_id = ? ORDER BY rowid ASC LIMIT 1",
		columns, table.Name, table.EntryColumn)
	err := s.db.QueryRowContext(ctx, query, entryID.String(), fieldID.String()).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", table.Name, err)
	}
	return true, nil
}

// ReadText reads a Text value row.
func (s *Store) ReadText(ctx context.Context, entryID, fieldID uuid.UUID) (*string, bool, error) {
	var v sql.NullString
	found, err := s.valueRow(ctx, queryir.TextValues, entryID, fieldID, "value", &v)
	if !found || err != nil {
		return nil, found, err
	}
	if !v.Valid {
		return nil, true, nil
	}
	return &v.String, true, nil
}

// ReadTypstText reads a TypstText value row.
func (s *Store) ReadTypstText(ctx context.Context, entryID, fieldID uuid.UUID) (raw, rendered string, found bool, err error) {
	found, err = s.valueRow(ctx, queryir.TypstTextValues, entryID, fieldID, "raw, rendered", &raw, &rendered)
	return raw, rendered, found, err
}

// ReadBoolean reads a Boolean value row.
func (s *Store) ReadBoolean(ctx context.Context, entryID, fieldID uuid.UUID) (*bool, bool, error) {
	var v sql.NullBool
	found, err := s.valueRow(ctx, queryir.BooleanValues, entryID, fieldID, "value", &v)
	if !found || err != nil {
		return nil, found, err
	}
	if !v.Valid {
		return nil, true, nil
	}
	return &v.Bool, true, nil
}

// ReadNumber reads a Number value row.
func (s *Store) ReadNumber(ctx context.Context, entryID, fieldID uuid.UUID) (*float64, bool, error) {
	var v sql.NullFloat64
	found, err := s.valueRow(ctx, queryir.NumberValues, entryID, fieldID, "value", &v)
	if !found || err != nil {
		return nil, found, err
	}
	if !v.Valid {
		return nil, true, nil
	}
	return &v.Float64, true, nil
}

// ReadDateTime reads a DateTime value row.
func (s *Store) ReadDateTime(ctx context.Context, entryID, fieldID uuid.UUID) (*time.Time, bool, error) {
	var v sql.NullString
	found, err := s.valueRow(ctx, queryir.DateTimeValues, entryID, fieldID, "value", &v)
	if !found || err != nil {
		return nil, found, err
	}
	if !v.Valid {
		return nil, true, nil
	}
	t, err := parseTime(v.String)
	if err != nil {
		return nil, true, err
	}
	return &t, true, nil
}

// ReadTextList reads a TextList value row. A NULL list reads as empty.
func (s *Store) ReadTextList(ctx context.Context, entryID, fieldID uuid.UUID) ([]string, bool, error) {
	var v sql.NullString
	found, err := s.valueRow(ctx, queryir.TextListValues, entryID, fieldID, "value", &v)
	if !found || err != nil {
		return nil, found, err
	}
	list, err := decodeList[string](v)
	return list, true, err
}

// ReadNumberList reads a NumberList value row. A NULL list reads as empty.
func (s *Store) ReadNumberList(ctx context.Context, entryID, fieldID uuid.UUID) ([]float64, bool, error) {
	var v sql.NullString
	found, err := s.valueRow(ctx, queryir.NumberListValues, entryID, fieldID, "value", &v)
	if !found || err != nil {
		return nil, found, err
	}
	list, err := decodeList[float64](v)
	return list, true, err
}

// ReadRelation reads the first edge of a Relation field, in insertion order.
func (s *Store) ReadRelation(ctx context.Context, entryID, fieldID uuid.UUID) (uuid.UUID, bool, error) {
	var to string
	found, err := s.valueRow(ctx, queryir.RelationValues, entryID, fieldID, "to_entry_id", &to)
	if !found || err != nil {
		return uuid.Nil, found, err
	}
	id, err := parseUUID(to)
	return id, true, err
}

// ReadObject reads an Object value row. A NULL payload reads as JSON null.
func (s *Store) ReadObject(ctx context.Context, entryID, fieldID uuid.UUID) (json.RawMessage, bool, error) {
	var v sql.NullString
	found, err := s.valueRow(ctx, queryir.ObjectValues, entryID, fieldID, "value", &v)
	if !found || err != nil {
		return nil, found, err
	}
	if !v.Valid {
		return json.RawMessage("null"), true, nil
	}
	return json.RawMessage(v.String), true, nil
}
