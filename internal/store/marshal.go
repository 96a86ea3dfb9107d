package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timestampLayout is fixed width so that text order equals time order.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

// dateTimeLayout is the storage form of DateTime values. Filter literals are
// compared against it as text.
const dateTimeLayout = "2006-01-02T15:04:05Z"

// FormatTimestamp renders a created_at timestamp for storage.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// FormatDateTime renders a DateTime value for storage (second precision).
func FormatDateTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(dateTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse id %q: %w", s, err)
	}
	return id, nil
}

// encodeJSON stores v as JSON text; a nil v is stored as NULL.
func encodeJSON[T any](v []T) (any, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode list: %w", err)
	}
	return string(data), nil
}

// decodeList decodes a JSON array column. NULL decodes to an empty,
// non-nil slice.
func decodeList[T any](col sql.NullString) ([]T, error) {
	out := []T{}
	if !col.Valid {
		return out, nil
	}
	if err := json.Unmarshal([]byte(col.String), &out); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullableDateTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return FormatDateTime(*t)
}

func nullableJSON(raw json.RawMessage) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}
