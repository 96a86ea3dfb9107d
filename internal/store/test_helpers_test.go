package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/schema"
)

var testEpoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// createTestStore opens a store in a temporary directory and closes it when
// the test ends.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// seedCollection writes one collection with the given fields (one second
// apart) and returns them.
func seedCollection(t *testing.T, s *Store, name string, at time.Time, fields map[string]schema.DataType, order ...string) (schema.Collection, []schema.Field) {
	t.Helper()
	c := schema.Collection{ID: uuid.New(), Name: name, CreatedAt: at, CreatedBy: uuid.New()}
	var created []schema.Field
	err := s.Write(context.Background(), func(w *Writer) error {
		if err := w.CreateCollection(context.Background(), c); err != nil {
			return err
		}
		for i, n := range order {
			f := schema.Field{
				ID:           uuid.New(),
				CollectionID: c.ID,
				Name:         n,
				DataType:     fields[n],
				CreatedAt:    at.Add(time.Duration(i) * time.Second),
			}
			if err := w.CreateField(context.Background(), f); err != nil {
				return err
			}
			created = append(created, f)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed collection %q: %v", name, err)
	}
	return c, created
}

func seedEntry(t *testing.T, s *Store, c schema.Collection, name string, at time.Time) schema.Entry {
	t.Helper()
	e := schema.Entry{ID: uuid.New(), CollectionID: c.ID, CreatedAt: at, CreatedBy: c.CreatedBy, Name: name}
	err := s.Write(context.Background(), func(w *Writer) error {
		return w.CreateEntry(context.Background(), e)
	})
	if err != nil {
		t.Fatalf("seed entry %q: %v", name, err)
	}
	return e
}

func ptr[T any](v T) *T {
	return &v
}
