package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v3"

	"github.com/roach88/flexstore/internal/schema"
	"github.com/roach88/flexstore/internal/store"
	"github.com/roach88/flexstore/internal/testutil"
)

// Fixture is a seed document for a store.
type Fixture struct {
	Collections []FixtureCollection `yaml:"collections"`
}

// FixtureCollection declares one collection with its fields and entries.
type FixtureCollection struct {
	Name    string         `yaml:"name"`
	ID      string         `yaml:"id,omitempty"`
	Fields  []FixtureField `yaml:"fields"`
	Entries []FixtureEntry `yaml:"entries,omitempty"`
}

// FixtureField declares a typed field.
type FixtureField struct {
	Name string          `yaml:"name"`
	Type schema.DataType `yaml:"type"`
}

// FixtureEntry declares an entry and its sparse values, keyed by field name.
type FixtureEntry struct {
	Name   string         `yaml:"name"`
	ID     string         `yaml:"id,omitempty"`
	Values map[string]any `yaml:"values,omitempty"`
}

// LoadFixture reads and parses a fixture YAML file.
// Unknown keys are rejected.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	return ParseFixture(data)
}

// ParseFixture parses fixture YAML.
func ParseFixture(data []byte) (*Fixture, error) {
	var fx Fixture
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fx); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateFixture(&fx); err != nil {
		return nil, fmt.Errorf("invalid fixture: %w", err)
	}
	return &fx, nil
}

func validateFixture(fx *Fixture) error {
	for i, c := range fx.Collections {
		if c.Name == "" {
			return fmt.Errorf("collections[%d]: name is required", i)
		}
		seen := map[string]bool{}
		for j, f := range c.Fields {
			if f.Name == "" {
				return fmt.Errorf("collections[%d].fields[%d]: name is required", i, j)
			}
			if !f.Type.Valid() {
				return fmt.Errorf("collections[%d].fields[%d]: unknown type %q", i, j, f.Type)
			}
			if seen[f.Name] {
				return fmt.Errorf("collections[%d]: duplicate field %q", i, f.Name)
			}
			seen[f.Name] = true
		}
		for j, e := range c.Entries {
			if e.Name == "" {
				return fmt.Errorf("collections[%d].entries[%d]: name is required", i, j)
			}
			for name := range e.Values {
				if !seen[name] {
					return fmt.Errorf("collections[%d].entries[%d]: value for undeclared field %q", i, j, name)
				}
			}
		}
	}
	return nil
}

// CollectionID returns the id a fixture collection is seeded with.
func (c FixtureCollection) CollectionID() (uuid.UUID, error) {
	return fixtureID(c.ID, "collection:"+c.Name)
}

// EntryID returns the id a fixture entry of collection c is seeded with.
func (c FixtureCollection) EntryID(e FixtureEntry) (uuid.UUID, error) {
	return fixtureID(e.ID, "entry:"+c.Name+"/"+e.Name)
}

// FieldID returns the id a fixture field of collection c is seeded with.
func (c FixtureCollection) FieldID(f FixtureField) uuid.UUID {
	return testutil.IDFor("field:" + c.Name + "/" + f.Name)
}

func fixtureID(explicit, name string) (uuid.UUID, error) {
	if explicit == "" {
		return testutil.IDFor(name), nil
	}
	id, err := uuid.Parse(explicit)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid id %q: %w", explicit, err)
	}
	return id, nil
}

// Clock stamps creation times while seeding.
// testutil.DeterministicClock implements it.
type Clock interface {
	Next() time.Time
}

// SystemClock stamps records with the current UTC time.
type SystemClock struct{}

// Next returns time.Now in UTC.
func (SystemClock) Next() time.Time {
	return time.Now().UTC()
}

// Seed writes the fixture into st in one transaction.
//
// Creation order follows document order: each collection, then its fields,
// then its entries, each stamped by clock. Relation values are written after
// every entry exists so they may reference entries declared later.
func Seed(ctx context.Context, st *store.Store, fx *Fixture, clock Clock) error {
	refs, err := entryRefs(fx)
	if err != nil {
		return err
	}

	return st.Write(ctx, func(w *store.Writer) error {
		type edge struct{ from, field, to uuid.UUID }
		var edges []edge

		for _, c := range fx.Collections {
			collectionID, err := c.CollectionID()
			if err != nil {
				return fmt.Errorf("collection %q: %w", c.Name, err)
			}
			if err := w.CreateCollection(ctx, schema.Collection{
				ID:        collectionID,
				Name:      c.Name,
				CreatedAt: clock.Next(),
				CreatedBy: testutil.FixedUser,
			}); err != nil {
				return err
			}

			fields := make(map[string]schema.Field, len(c.Fields))
			for _, ff := range c.Fields {
				f := schema.Field{
					ID:           c.FieldID(ff),
					CollectionID: collectionID,
					Name:         ff.Name,
					DataType:     ff.Type,
					CreatedAt:    clock.Next(),
				}
				if err := w.CreateField(ctx, f); err != nil {
					return err
				}
				fields[f.Name] = f
			}

			for _, fe := range c.Entries {
				entryID, err := c.EntryID(fe)
				if err != nil {
					return fmt.Errorf("entry %q: %w", fe.Name, err)
				}
				if err := w.CreateEntry(ctx, schema.Entry{
					ID:           entryID,
					CollectionID: collectionID,
					CreatedAt:    clock.Next(),
					CreatedBy:    testutil.FixedUser,
					Name:         fe.Name,
				}); err != nil {
					return err
				}

				names := maps.Keys(fe.Values)
				slices.Sort(names)
				for _, name := range names {
					field := fields[name]
					raw := fe.Values[name]
					if field.DataType == schema.DataTypeRelation {
						targets, err := relationTargets(raw, refs)
						if err != nil {
							return fmt.Errorf("entry %q field %q: %w", fe.Name, name, err)
						}
						for _, to := range targets {
							edges = append(edges, edge{entryID, field.ID, to})
						}
						continue
					}
					if err := writeValue(ctx, w, entryID, field, raw); err != nil {
						return fmt.Errorf("entry %q field %q: %w", fe.Name, name, err)
					}
				}
			}
		}

		for _, e := range edges {
			if err := w.AddRelation(ctx, e.from, e.field, e.to); err != nil {
				return err
			}
		}
		return nil
	})
}

// entryRefs maps "Collection/Entry" references to entry ids.
func entryRefs(fx *Fixture) (map[string]uuid.UUID, error) {
	refs := make(map[string]uuid.UUID)
	for _, c := range fx.Collections {
		for _, e := range c.Entries {
			id, err := c.EntryID(e)
			if err != nil {
				return nil, fmt.Errorf("entry %q: %w", e.Name, err)
			}
			refs[c.Name+"/"+e.Name] = id
		}
	}
	return refs, nil
}

func relationTargets(raw any, refs map[string]uuid.UUID) ([]uuid.UUID, error) {
	var items []any
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []any:
		items = v
	default:
		items = []any{v}
	}

	targets := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ref, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("relation target %v must be a string", item)
		}
		if id, ok := refs[ref]; ok {
			targets = append(targets, id)
			continue
		}
		id, err := uuid.Parse(ref)
		if err != nil {
			return nil, fmt.Errorf("unknown relation target %q", ref)
		}
		targets = append(targets, id)
	}
	return targets, nil
}

// writeValue converts a decoded YAML value to the field's kind and writes
// it. A nil raw value writes a NULL payload.
func writeValue(ctx context.Context, w *store.Writer, entryID uuid.UUID, field schema.Field, raw any) error {
	switch field.DataType {
	case schema.DataTypeText:
		if raw == nil {
			return w.SetText(ctx, entryID, field.ID, nil)
		}
		s, err := asString(raw)
		if err != nil {
			return err
		}
		return w.SetText(ctx, entryID, field.ID, &s)

	case schema.DataTypeTypstText:
		switch v := raw.(type) {
		case string:
			return w.SetTypstText(ctx, entryID, field.ID, v, v)
		case map[string]any:
			rawText, _ := v["raw"].(string)
			rendered, _ := v["rendered"].(string)
			return w.SetTypstText(ctx, entryID, field.ID, rawText, rendered)
		default:
			return fmt.Errorf("typst text must be a string or {raw, rendered}, got %T", raw)
		}

	case schema.DataTypeBoolean:
		if raw == nil {
			return w.SetBoolean(ctx, entryID, field.ID, nil)
		}
		b, ok := raw.(bool)
		if !ok {
			return fmt.Errorf("expected boolean, got %T", raw)
		}
		return w.SetBoolean(ctx, entryID, field.ID, &b)

	case schema.DataTypeNumber:
		if raw == nil {
			return w.SetNumber(ctx, entryID, field.ID, nil)
		}
		n, err := asFloat(raw)
		if err != nil {
			return err
		}
		return w.SetNumber(ctx, entryID, field.ID, &n)

	case schema.DataTypeDateTime:
		if raw == nil {
			return w.SetDateTime(ctx, entryID, field.ID, nil)
		}
		t, err := asTime(raw)
		if err != nil {
			return err
		}
		return w.SetDateTime(ctx, entryID, field.ID, &t)

	case schema.DataTypeTextList:
		if raw == nil {
			return w.SetTextList(ctx, entryID, field.ID, nil)
		}
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("expected list, got %T", raw)
		}
		list := make([]string, 0, len(items))
		for _, item := range items {
			s, err := asString(item)
			if err != nil {
				return err
			}
			list = append(list, s)
		}
		return w.SetTextList(ctx, entryID, field.ID, list)

	case schema.DataTypeNumberList:
		if raw == nil {
			return w.SetNumberList(ctx, entryID, field.ID, nil)
		}
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("expected list, got %T", raw)
		}
		list := make([]float64, 0, len(items))
		for _, item := range items {
			n, err := asFloat(item)
			if err != nil {
				return err
			}
			list = append(list, n)
		}
		return w.SetNumberList(ctx, entryID, field.ID, list)

	case schema.DataTypeObject:
		if raw == nil {
			return w.SetObject(ctx, entryID, field.ID, nil)
		}
		data, err := json.Marshal(raw)
		if err != nil {
			return fmt.Errorf("encode object: %w", err)
		}
		return w.SetObject(ctx, entryID, field.ID, data)

	default:
		return fmt.Errorf("unsupported data type %q", field.DataType)
	}
}

func asString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int, float64, bool:
		return fmt.Sprint(s), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func asFloat(v any) (float64, error) {
	switch n := v.(type) {
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case float64:
		return n, nil
	default:
		return 0, fmt.Errorf("expected number, got %T", v)
	}
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		parsed, err := time.Parse(time.RFC3339, strings.TrimSpace(t))
		if err != nil {
			return time.Time{}, fmt.Errorf("expected RFC 3339 timestamp: %w", err)
		}
		return parsed, nil
	default:
		return time.Time{}, fmt.Errorf("expected timestamp, got %T", v)
	}
}
