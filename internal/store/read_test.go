package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/schema"
)

var ledgerTypes = map[string]schema.DataType{
	"memo":     schema.DataTypeText,
	"notes":    schema.DataTypeTypstText,
	"paid":     schema.DataTypeBoolean,
	"amount":   schema.DataTypeNumber,
	"issued":   schema.DataTypeDateTime,
	"tags":     schema.DataTypeTextList,
	"lines":    schema.DataTypeNumberList,
	"customer": schema.DataTypeRelation,
	"meta":     schema.DataTypeObject,
}

var ledgerOrder = []string{"memo", "notes", "paid", "amount", "issued", "tags", "lines", "customer", "meta"}

func TestFindFields_CreationOrder(t *testing.T) {
	s := createTestStore(t)
	c, want := seedCollection(t, s, "Invoices", testEpoch, ledgerTypes, ledgerOrder...)

	got, err := s.FindFields(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("FindFields() failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d fields, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name || got[i].DataType != want[i].DataType {
			t.Errorf("field[%d] = %+v, want %+v", i, got[i], want[i])
		}
		if !got[i].CreatedAt.Equal(want[i].CreatedAt) {
			t.Errorf("field[%d].CreatedAt = %v, want %v", i, got[i].CreatedAt, want[i].CreatedAt)
		}
	}
}

func TestFindFields_SameTimestampKeepsInsertionOrder(t *testing.T) {
	s := createTestStore(t)
	c := schema.Collection{ID: uuid.New(), Name: "Tied", CreatedAt: testEpoch, CreatedBy: uuid.New()}
	names := []string{"zeta", "alpha", "mid"}

	err := s.Write(context.Background(), func(w *Writer) error {
		if err := w.CreateCollection(context.Background(), c); err != nil {
			return err
		}
		for _, n := range names {
			f := schema.Field{ID: uuid.New(), CollectionID: c.ID, Name: n, DataType: schema.DataTypeText, CreatedAt: testEpoch}
			if err := w.CreateField(context.Background(), f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := s.FindFields(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("FindFields() failed: %v", err)
	}
	for i, n := range names {
		if got[i].Name != n {
			t.Errorf("field[%d] = %q, want %q", i, got[i].Name, n)
		}
	}
}

func TestFindFields_EmptyCollection(t *testing.T) {
	s := createTestStore(t)

	got, err := s.FindFields(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindFields() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("FindFields() = %#v, want empty non-nil slice", got)
	}
}

func TestCreateField_RejectsInvalidType(t *testing.T) {
	s := createTestStore(t)
	c, _ := seedCollection(t, s, "Invoices", testEpoch, nil)

	err := s.Write(context.Background(), func(w *Writer) error {
		return w.CreateField(context.Background(), schema.Field{
			ID: uuid.New(), CollectionID: c.ID, Name: "price", DataType: "Money", CreatedAt: testEpoch,
		})
	})
	if err == nil {
		t.Fatal("CreateField() with invalid data type succeeded")
	}
}

func TestWrite_RollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	c := schema.Collection{ID: uuid.New(), Name: "Doomed", CreatedAt: testEpoch, CreatedBy: uuid.New()}

	err := s.Write(context.Background(), func(w *Writer) error {
		if err := w.CreateCollection(context.Background(), c); err != nil {
			return err
		}
		return w.CreateCollection(context.Background(), c) // duplicate id
	})
	if err == nil {
		t.Fatal("Write() with duplicate id succeeded")
	}

	got, err := s.CollectionByName(context.Background(), "Doomed")
	if err != nil {
		t.Fatalf("CollectionByName() failed: %v", err)
	}
	if got != nil {
		t.Errorf("collection survived rollback: %+v", got)
	}
}

func TestReadValues_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c, fields := seedCollection(t, s, "Invoices", testEpoch, ledgerTypes, ledgerOrder...)
	byName := map[string]uuid.UUID{}
	for _, f := range fields {
		byName[f.Name] = f.ID
	}
	inv := seedEntry(t, s, c, "INV-1", testEpoch)
	acme := seedEntry(t, s, c, "Acme", testEpoch.Add(time.Second))
	globex := seedEntry(t, s, c, "Globex", testEpoch.Add(2*time.Second))
	issued := time.Date(2024, 3, 1, 10, 0, 0, 500, time.UTC)

	err := s.Write(ctx, func(w *Writer) error {
		steps := []error{
			w.SetText(ctx, inv.ID, byName["memo"], ptr("Net 30")),
			w.SetTypstText(ctx, inv.ID, byName["notes"], "*Urgent*", "<strong>Urgent</strong>"),
			w.SetBoolean(ctx, inv.ID, byName["paid"], ptr(true)),
			w.SetNumber(ctx, inv.ID, byName["amount"], ptr(99.5)),
			w.SetDateTime(ctx, inv.ID, byName["issued"], &issued),
			w.SetTextList(ctx, inv.ID, byName["tags"], []string{"blue", "green"}),
			w.SetNumberList(ctx, inv.ID, byName["lines"], []float64{60, 39.5}),
			w.AddRelation(ctx, inv.ID, byName["customer"], acme.ID),
			w.AddRelation(ctx, inv.ID, byName["customer"], globex.ID),
			w.AddRelation(ctx, inv.ID, byName["customer"], acme.ID),
			w.SetObject(ctx, inv.ID, byName["meta"], json.RawMessage(`{"terms":"net30"}`)),
		}
		for _, err := range steps {
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("write values: %v", err)
	}

	memo, found, err := s.ReadText(ctx, inv.ID, byName["memo"])
	if err != nil || !found || memo == nil || *memo != "Net 30" {
		t.Errorf("ReadText() = %v, %v, %v", memo, found, err)
	}

	raw, rendered, found, err := s.ReadTypstText(ctx, inv.ID, byName["notes"])
	if err != nil || !found || raw != "*Urgent*" || rendered != "<strong>Urgent</strong>" {
		t.Errorf("ReadTypstText() = %q, %q, %v, %v", raw, rendered, found, err)
	}

	paid, found, err := s.ReadBoolean(ctx, inv.ID, byName["paid"])
	if err != nil || !found || paid == nil || !*paid {
		t.Errorf("ReadBoolean() = %v, %v, %v", paid, found, err)
	}

	amount, found, err := s.ReadNumber(ctx, inv.ID, byName["amount"])
	if err != nil || !found || amount == nil || *amount != 99.5 {
		t.Errorf("ReadNumber() = %v, %v, %v", amount, found, err)
	}

	dt, found, err := s.ReadDateTime(ctx, inv.ID, byName["issued"])
	if err != nil || !found || dt == nil {
		t.Fatalf("ReadDateTime() = %v, %v, %v", dt, found, err)
	}
	if want := issued.Truncate(time.Second); !dt.Equal(want) {
		t.Errorf("ReadDateTime() = %v, want %v (second precision)", dt, want)
	}

	tags, found, err := s.ReadTextList(ctx, inv.ID, byName["tags"])
	if err != nil || !found || len(tags) != 2 || tags[0] != "blue" || tags[1] != "green" {
		t.Errorf("ReadTextList() = %v, %v, %v", tags, found, err)
	}

	lines, found, err := s.ReadNumberList(ctx, inv.ID, byName["lines"])
	if err != nil || !found || len(lines) != 2 || lines[0] != 60 || lines[1] != 39.5 {
		t.Errorf("ReadNumberList() = %v, %v, %v", lines, found, err)
	}

	to, found, err := s.ReadRelation(ctx, inv.ID, byName["customer"])
	if err != nil || !found || to != acme.ID {
		t.Errorf("ReadRelation() = %v, %v, %v; want first edge %v", to, found, err, acme.ID)
	}

	var edges int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM entry_relation_values").Scan(&edges); err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if edges != 2 {
		t.Errorf("got %d edges, want 2 (duplicate edge ignored)", edges)
	}

	meta, found, err := s.ReadObject(ctx, inv.ID, byName["meta"])
	if err != nil || !found || string(meta) != `{"terms":"net30"}` {
		t.Errorf("ReadObject() = %s, %v, %v", meta, found, err)
	}
}

func TestReadValues_NullPayloads(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c, fields := seedCollection(t, s, "Invoices", testEpoch, ledgerTypes, ledgerOrder...)
	byName := map[string]uuid.UUID{}
	for _, f := range fields {
		byName[f.Name] = f.ID
	}
	inv := seedEntry(t, s, c, "INV-2", testEpoch)

	err := s.Write(ctx, func(w *Writer) error {
		steps := []error{
			w.SetText(ctx, inv.ID, byName["memo"], nil),
			w.SetBoolean(ctx, inv.ID, byName["paid"], nil),
			w.SetNumber(ctx, inv.ID, byName["amount"], nil),
			w.SetDateTime(ctx, inv.ID, byName["issued"], nil),
			w.SetTextList(ctx, inv.ID, byName["tags"], nil),
			w.SetNumberList(ctx, inv.ID, byName["lines"], nil),
			w.SetObject(ctx, inv.ID, byName["meta"], nil),
		}
		for _, err := range steps {
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("write values: %v", err)
	}

	if v, found, err := s.ReadText(ctx, inv.ID, byName["memo"]); err != nil || !found || v != nil {
		t.Errorf("ReadText() = %v, %v, %v; want nil, true", v, found, err)
	}
	if v, found, err := s.ReadBoolean(ctx, inv.ID, byName["paid"]); err != nil || !found || v != nil {
		t.Errorf("ReadBoolean() = %v, %v, %v; want nil, true", v, found, err)
	}
	if v, found, err := s.ReadNumber(ctx, inv.ID, byName["amount"]); err != nil || !found || v != nil {
		t.Errorf("ReadNumber() = %v, %v, %v; want nil, true", v, found, err)
	}
	if v, found, err := s.ReadDateTime(ctx, inv.ID, byName["issued"]); err != nil || !found || v != nil {
		t.Errorf("ReadDateTime() = %v, %v, %v; want nil, true", v, found, err)
	}
	if v, found, err := s.ReadTextList(ctx, inv.ID, byName["tags"]); err != nil || !found || v == nil || len(v) != 0 {
		t.Errorf("ReadTextList() = %#v, %v, %v; want empty, true", v, found, err)
	}
	if v, found, err := s.ReadNumberList(ctx, inv.ID, byName["lines"]); err != nil || !found || v == nil || len(v) != 0 {
		t.Errorf("ReadNumberList() = %#v, %v, %v; want empty, true", v, found, err)
	}
	if v, found, err := s.ReadObject(ctx, inv.ID, byName["meta"]); err != nil || !found || string(v) != "null" {
		t.Errorf("ReadObject() = %s, %v, %v; want null, true", v, found, err)
	}

	var payload any
	if err := s.db.QueryRow("SELECT value FROM entry_text_list_values").Scan(&payload); err != nil {
		t.Fatalf("read list payload: %v", err)
	}
	if payload != nil {
		t.Errorf("nil list stored as %v, want NULL", payload)
	}
}

func TestReadValues_MissingRow(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c, fields := seedCollection(t, s, "Invoices", testEpoch, ledgerTypes, ledgerOrder...)
	inv := seedEntry(t, s, c, "INV-3", testEpoch)

	for _, f := range fields {
		var found bool
		var err error
		switch f.DataType {
		case schema.DataTypeText:
			_, found, err = s.ReadText(ctx, inv.ID, f.ID)
		case schema.DataTypeTypstText:
			_, _, found, err = s.ReadTypstText(ctx, inv.ID, f.ID)
		case schema.DataTypeBoolean:
			_, found, err = s.ReadBoolean(ctx, inv.ID, f.ID)
		case schema.DataTypeNumber:
			_, found, err = s.ReadNumber(ctx, inv.ID, f.ID)
		case schema.DataTypeDateTime:
			_, found, err = s.ReadDateTime(ctx, inv.ID, f.ID)
		case schema.DataTypeTextList:
			_, found, err = s.ReadTextList(ctx, inv.ID, f.ID)
		case schema.DataTypeNumberList:
			_, found, err = s.ReadNumberList(ctx, inv.ID, f.ID)
		case schema.DataTypeRelation:
			_, found, err = s.ReadRelation(ctx, inv.ID, f.ID)
		case schema.DataTypeObject:
			_, found, err = s.ReadObject(ctx, inv.ID, f.ID)
		}
		if err != nil {
			t.Errorf("read %s: %v", f.Name, err)
		}
		if found {
			t.Errorf("read %s: found = true for an entry without values", f.Name)
		}
	}
}

func TestSetText_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c, fields := seedCollection(t, s, "Invoices", testEpoch, ledgerTypes, "memo")
	inv := seedEntry(t, s, c, "INV-1", testEpoch)

	for _, v := range []string{"first", "second"} {
		err := s.Write(ctx, func(w *Writer) error {
			return w.SetText(ctx, inv.ID, fields[0].ID, ptr(v))
		})
		if err != nil {
			t.Fatalf("SetText(%q) failed: %v", v, err)
		}
	}

	got, _, err := s.ReadText(ctx, inv.ID, fields[0].ID)
	if err != nil || got == nil || *got != "second" {
		t.Errorf("ReadText() = %v, %v; want second", got, err)
	}
}

func TestSetObject_RejectsInvalidJSON(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c, fields := seedCollection(t, s, "Invoices", testEpoch, ledgerTypes, "meta")
	inv := seedEntry(t, s, c, "INV-1", testEpoch)

	err := s.Write(ctx, func(w *Writer) error {
		return w.SetObject(ctx, inv.ID, fields[0].ID, json.RawMessage(`{"broken"`))
	})
	if err == nil {
		t.Fatal("SetObject() with invalid JSON succeeded")
	}
}

func TestEntryLookups(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c, _ := seedCollection(t, s, "Invoices", testEpoch, nil)
	inv := seedEntry(t, s, c, "INV-1", testEpoch)

	got, err := s.EntryByName(ctx, c.ID, "INV-1")
	if err != nil || got == nil || got.ID != inv.ID {
		t.Fatalf("EntryByName() = %+v, %v", got, err)
	}
	if got.CollectionID != c.ID || got.CreatedBy != c.CreatedBy || !got.CreatedAt.Equal(inv.CreatedAt) {
		t.Errorf("EntryByName() = %+v, want %+v", got, inv)
	}

	if got, err := s.EntryByName(ctx, c.ID, "INV-404"); err != nil || got != nil {
		t.Errorf("EntryByName(missing) = %+v, %v; want nil, nil", got, err)
	}
	if got, err := s.EntryByName(ctx, uuid.New(), "INV-1"); err != nil || got != nil {
		t.Errorf("EntryByName(other collection) = %+v, %v; want nil, nil", got, err)
	}

	if got, err := s.Entry(ctx, inv.ID); err != nil || got == nil || got.Name != "INV-1" {
		t.Errorf("Entry() = %+v, %v", got, err)
	}
	if got, err := s.Entry(ctx, uuid.New()); err != nil || got != nil {
		t.Errorf("Entry(missing) = %+v, %v; want nil, nil", got, err)
	}
}

func TestQueryEntries(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	c, _ := seedCollection(t, s, "Invoices", testEpoch, nil)
	seedEntry(t, s, c, "B", testEpoch.Add(time.Second))
	seedEntry(t, s, c, "A", testEpoch)

	got, err := s.QueryEntries(ctx, `
		SELECT e.id, e.collection_id, e.created_at, e.created_by, e.name
		FROM entries e WHERE e.collection_id = ?
		ORDER BY e.created_at ASC, e.rowid ASC
	`, c.ID.String())
	if err != nil {
		t.Fatalf("QueryEntries() failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "A" || got[1].Name != "B" {
		t.Errorf("QueryEntries() = %+v, want [A B]", got)
	}

	if _, err := s.QueryEntries(ctx, "SELECT nope FROM nowhere"); err == nil {
		t.Error("QueryEntries() with bad SQL succeeded")
	}
}

func TestCollections(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	seedCollection(t, s, "Supplies", testEpoch.Add(time.Second), nil)
	seedCollection(t, s, "Invoices", testEpoch, nil)

	all, err := s.Collections(ctx)
	if err != nil {
		t.Fatalf("Collections() failed: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Invoices" || all[1].Name != "Supplies" {
		t.Errorf("Collections() = %+v, want [Invoices Supplies]", all)
	}

	got, err := s.CollectionByName(ctx, "Supplies")
	if err != nil || got == nil || got.Name != "Supplies" {
		t.Errorf("CollectionByName() = %+v, %v", got, err)
	}
	if got, err := s.CollectionByName(ctx, "supplies"); err != nil || got != nil {
		t.Errorf("CollectionByName() is case sensitive; got %+v, %v", got, err)
	}
}

func TestCollectionsPage(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	names := []string{"Invoices", "Customer Accounts", "Café Menu", "Library Books", "Inventory Items"}
	for i, n := range names {
		seedCollection(t, s, n, testEpoch.Add(time.Duration(i)*time.Second), nil)
	}

	pageNames := func(items []schema.Collection) []string {
		out := make([]string, len(items))
		for i, c := range items {
			out[i] = c.Name
		}
		return out
	}
	equal := func(a, b []string) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	tests := []struct {
		name      string
		filter    CollectionFilter
		limit     int
		offset    int
		wantItems []string
		wantTotal int
	}{
		{"first page", CollectionFilter{}, 2, 0, []string{"Invoices", "Customer Accounts"}, 5},
		{"last page", CollectionFilter{}, 2, 4, []string{"Inventory Items"}, 5},
		{"past the end", CollectionFilter{}, 2, 10, []string{}, 5},
		{"word match", CollectionFilter{NameQuery: ptr("invoice")}, 10, 0, []string{"Invoices"}, 1},
		{"accent folding", CollectionFilter{NameQuery: ptr("cafe")}, 10, 0, []string{"Café Menu"}, 1},
		{"no substring", CollectionFilter{NameQuery: ptr("inv")}, 10, 0, []string{}, 0},
		{
			"inclusive bounds",
			CollectionFilter{CreatedAfter: ptr(testEpoch.Add(time.Second)), CreatedBefore: ptr(testEpoch.Add(3 * time.Second))},
			10, 0,
			[]string{"Customer Accounts", "Café Menu", "Library Books"},
			3,
		},
		{
			"query and bounds",
			CollectionFilter{NameQuery: ptr("items"), CreatedAfter: ptr(testEpoch.Add(time.Second))},
			10, 0,
			[]string{"Inventory Items"},
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := s.CollectionsPage(ctx, tt.filter, tt.limit, tt.offset)
			if err != nil {
				t.Fatalf("CollectionsPage() failed: %v", err)
			}
			if got := pageNames(items); !equal(got, tt.wantItems) {
				t.Errorf("items = %v, want %v", got, tt.wantItems)
			}
			if total != tt.wantTotal {
				t.Errorf("total = %d, want %d", total, tt.wantTotal)
			}
		})
	}
}
