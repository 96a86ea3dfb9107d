package query_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flexstore/internal/config"
	"github.com/roach88/flexstore/internal/filter"
	"github.com/roach88/flexstore/internal/harness"
	"github.com/roach88/flexstore/internal/query"
	"github.com/roach88/flexstore/internal/schema"
	"github.com/roach88/flexstore/internal/store"
	"github.com/roach88/flexstore/internal/testutil"
)

const (
	acmeID   = "11111111-1111-4111-8111-111111111111"
	globexID = "22222222-2222-4222-8222-222222222222"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// seeded opens an in-memory store seeded from a harness fixture.
func seeded(t *testing.T, fixture string) *store.Store {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	fx, err := harness.LoadFixture("../harness/testdata/fixtures/" + fixture + ".yaml")
	require.NoError(t, err)
	require.NoError(t, harness.Seed(context.Background(), st, fx, testutil.NewDeterministicClock()))
	return st
}

func collectionID(t *testing.T, svc *query.Service, name string) uuid.UUID {
	t.Helper()
	c, err := svc.CollectionByName(context.Background(), name)
	require.NoError(t, err)
	return c.ID
}

func names(entries []schema.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func TestListEntries_Invoices(t *testing.T) {
	svc := query.New(seeded(t, "invoices"), query.WithLogger(quiet))
	ctx := context.Background()
	invoices := collectionID(t, svc, "Invoices")

	tests := []struct {
		name    string
		filters *filter.EntryFilters
		order   filter.OrderBy
		want    []string
	}{
		{"nil filters", nil, filter.OrderAsc, []string{"A", "B"}},
		{"empty filters", &filter.EntryFilters{}, filter.OrderAsc, []string{"A", "B"}},
		{"desc", nil, filter.OrderDesc, []string{"B", "A"}},
		{
			"amount gt",
			&filter.EntryFilters{NumberFilters: []filter.NumberFilter{{FieldName: "amount", Comparison: filter.NumberGt, Value: 75}}},
			filter.OrderAsc,
			[]string{"A"},
		},
		{
			"amount lte",
			&filter.EntryFilters{NumberFilters: []filter.NumberFilter{{FieldName: "amount", Comparison: filter.NumberLte, Value: 50}}},
			filter.OrderAsc,
			[]string{"B"},
		},
		{
			"paid eq",
			&filter.EntryFilters{BooleanFilters: []filter.BooleanFilter{{FieldName: "paid", Comparison: filter.BooleanEq, Value: true}}},
			filter.OrderAsc,
			[]string{"A"},
		},
		{
			// B has no paid row, so a negative comparison cannot match it.
			"paid neq excludes missing row",
			&filter.EntryFilters{BooleanFilters: []filter.BooleanFilter{{FieldName: "paid", Comparison: filter.BooleanNeq, Value: true}}},
			filter.OrderAsc,
			[]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListEntries(ctx, invoices, tt.filters, tt.order)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestListEntries_Ledger(t *testing.T) {
	svc := query.New(seeded(t, "ledger"), query.WithLogger(quiet))
	ctx := context.Background()
	invoices := collectionID(t, svc, "Invoices")

	tests := []struct {
		name    string
		filters filter.EntryFilters
		want    []string
	}{
		{
			"text contains",
			filter.EntryFilters{TextFilters: []filter.TextFilter{{FieldName: "memo", Comparison: filter.TextContains, Value: "Net"}}},
			[]string{"INV-1"},
		},
		{
			"text ends with",
			filter.EntryFilters{TextFilters: []filter.TextFilter{{FieldName: "memo", Comparison: filter.TextEndsWith, Value: "receipt"}}},
			[]string{"INV-2"},
		},
		{
			"typst compares raw",
			filter.EntryFilters{TextFilters: []filter.TextFilter{{FieldName: "notes", Comparison: filter.TextStartsWith, Value: "*Urgent"}}},
			[]string{"INV-1"},
		},
		{
			"typst ignores rendered",
			filter.EntryFilters{TextFilters: []filter.TextFilter{{FieldName: "notes", Comparison: filter.TextContains, Value: "<strong>"}}},
			[]string{},
		},
		{
			"date time lt",
			filter.EntryFilters{DateTimeFilters: []filter.DateTimeFilter{{FieldName: "issued", Comparison: filter.DateTimeLt, Value: "2024-04-01T00:00:00Z"}}},
			[]string{"INV-1"},
		},
		{
			"list contains uses first value only",
			filter.EntryFilters{ListFilters: []filter.ListFilter{{FieldName: "tags", Comparison: filter.ListContains, Values: []string{"b", "z"}}}},
			[]string{"INV-1", "INV-2"},
		},
		{
			"list is not empty",
			filter.EntryFilters{ListFilters: []filter.ListFilter{{FieldName: "lines", Comparison: filter.ListIsNotEmpty}}},
			[]string{"INV-1"},
		},
		{
			"connected to",
			filter.EntryFilters{RelationFilters: []filter.RelationFilter{{FieldName: "customer", Comparison: filter.RelationConnectedTo, TargetEntryID: str(globexID)}}},
			[]string{"INV-2"},
		},
		{
			"not connected to skips entries without edges",
			filter.EntryFilters{RelationFilters: []filter.RelationFilter{{FieldName: "customer", Comparison: filter.RelationNotConnectedTo, TargetEntryID: str(globexID)}}},
			[]string{"INV-1"},
		},
		{
			"has no connections never matches",
			filter.EntryFilters{RelationFilters: []filter.RelationFilter{{FieldName: "customer", Comparison: filter.RelationHasNoConnections}}},
			[]string{},
		},
		{
			"object is not empty",
			filter.EntryFilters{ObjectFilters: []filter.ObjectFilter{{FieldName: "meta", Comparison: filter.ObjectIsNotEmpty}}},
			[]string{"INV-1"},
		},
		{
			"conjunction",
			filter.EntryFilters{
				NumberFilters:   []filter.NumberFilter{{FieldName: "amount", Comparison: filter.NumberGte, Value: 50}},
				RelationFilters: []filter.RelationFilter{{FieldName: "customer", Comparison: filter.RelationConnectedTo, TargetEntryID: str(acmeID)}},
				TextFilters:     []filter.TextFilter{{FieldName: "memo", Comparison: filter.TextNeq, Value: "Net 30"}},
			},
			[]string{"INV-2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListEntries(ctx, invoices, &tt.filters, filter.OrderAsc)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
}

func TestListEntries_ValidationErrors(t *testing.T) {
	svc := query.New(seeded(t, "ledger"), query.WithLogger(quiet))
	ctx := context.Background()
	invoices := collectionID(t, svc, "Invoices")

	tests := []struct {
		name    string
		filters filter.EntryFilters
		code    schema.ErrorCode
	}{
		{
			"unknown field",
			filter.EntryFilters{TextFilters: []filter.TextFilter{{FieldName: "missing", Comparison: filter.TextEq, Value: "x"}}},
			schema.ErrCodeFieldNotFound,
		},
		{
			"wrong kind",
			filter.EntryFilters{NumberFilters: []filter.NumberFilter{{FieldName: "memo", Comparison: filter.NumberEq, Value: 1}}},
			schema.ErrCodeFieldTypeMismatch,
		},
		{
			"malformed target",
			filter.EntryFilters{RelationFilters: []filter.RelationFilter{{FieldName: "customer", Comparison: filter.RelationConnectedTo, TargetEntryID: str("not-a-uuid")}}},
			schema.ErrCodeInvalidOperand,
		},
		{
			"missing target",
			filter.EntryFilters{RelationFilters: []filter.RelationFilter{{FieldName: "customer", Comparison: filter.RelationConnectedTo}}},
			schema.ErrCodeMissingRequiredOperand,
		},
		{
			"contains all",
			filter.EntryFilters{ListFilters: []filter.ListFilter{{FieldName: "tags", Comparison: filter.ListContainsAll, Values: []string{"blue"}}}},
			schema.ErrCodeUnsupportedComparison,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListEntries(ctx, invoices, &tt.filters, filter.OrderAsc)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, tt.code, schema.CodeOf(err))
		})
	}
}

func TestListEntries_UnknownCollection(t *testing.T) {
	svc := query.New(seeded(t, "invoices"), query.WithLogger(quiet))

	got, err := svc.ListEntries(context.Background(), uuid.New(), nil, filter.OrderAsc)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// failingStore returns driver errors from entry queries.
type failingStore struct {
	*store.Store
	err error
}

func (f failingStore) QueryEntries(context.Context, string, ...any) ([]schema.Entry, error) {
	return nil, f.err
}

func TestListEntries_StoreErrorIsWrappedAndLogged(t *testing.T) {
	st := seeded(t, "invoices")
	driverErr := errors.New("database is locked")
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	svc := query.New(failingStore{Store: st, err: driverErr}, query.WithLogger(logger))
	invoices := collectionID(t, svc, "Invoices")

	_, err := svc.ListEntries(context.Background(), invoices, nil, filter.OrderAsc)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeStore))
	assert.ErrorIs(t, err, driverErr)
	assert.Same(t, driverErr, errors.Unwrap(err))

	assert.Contains(t, logs.String(), `"msg":"listing entries"`)
	assert.Contains(t, logs.String(), `"msg":"query entries failed"`)
	assert.Contains(t, logs.String(), invoices.String())
}

func TestEntryByName(t *testing.T) {
	svc := query.New(seeded(t, "ledger"), query.WithLogger(quiet))
	ctx := context.Background()
	invoices := collectionID(t, svc, "Invoices")

	got, err := svc.EntryByName(ctx, invoices, "INV-2")
	require.NoError(t, err)
	assert.Equal(t, "INV-2", got.Name)
	assert.Equal(t, invoices, got.CollectionID)

	_, err = svc.EntryByName(ctx, invoices, "INV-404")
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeEntryNotFound))

	// Names are scoped to their collection.
	_, err = svc.EntryByName(ctx, invoices, "Acme")
	assert.True(t, schema.IsCode(err, schema.ErrCodeEntryNotFound))
}

func TestCollectionByName(t *testing.T) {
	svc := query.New(seeded(t, "ledger"), query.WithLogger(quiet))

	_, err := svc.CollectionByName(context.Background(), "Receipts")
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeCollectionNotFound))

	all, err := svc.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Customers", all[0].Name)
	assert.Equal(t, "Invoices", all[1].Name)
}

func TestFields(t *testing.T) {
	svc := query.New(seeded(t, "ledger"), query.WithLogger(quiet))

	fields, err := svc.Fields(context.Background(), collectionID(t, svc, "Invoices"))
	require.NoError(t, err)

	var got []string
	for _, f := range fields {
		got = append(got, f.Name)
	}
	assert.Equal(t, []string{"amount", "paid", "memo", "notes", "issued", "tags", "lines", "customer", "meta"}, got)
}

func TestValues(t *testing.T) {
	svc := query.New(seeded(t, "ledger"), query.WithLogger(quiet))
	ctx := context.Background()
	invoices := collectionID(t, svc, "Invoices")

	t.Run("full entry", func(t *testing.T) {
		inv, err := svc.EntryByName(ctx, invoices, "INV-1")
		require.NoError(t, err)

		values, err := svc.Values(ctx, inv)
		require.NoError(t, err)
		require.Len(t, values, 9)

		byName := map[string]schema.Value{}
		for _, fv := range values {
			byName[fv.Field.Name] = fv.Value
		}
		assert.Equal(t, 100.0, *byName["amount"].(schema.NumberValue).Value)
		assert.True(t, *byName["paid"].(schema.BooleanValue).Value)
		assert.Equal(t, "Net 30", *byName["memo"].(schema.TextValue).Value)
		assert.Equal(t, "*Urgent* review", byName["notes"].(schema.TypstTextValue).Raw)
		assert.True(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Equal(*byName["issued"].(schema.DateTimeValue).Value))
		assert.Equal(t, []string{"blue", "red"}, byName["tags"].(schema.TextListValue).Value)
		assert.Equal(t, []float64{60, 40}, byName["lines"].(schema.NumberListValue).Value)
		assert.JSONEq(t, `{"terms":"net30"}`, string(byName["meta"].(schema.ObjectValue).Value))

		rel := byName["customer"].(schema.RelationValue)
		assert.Equal(t, inv.ID, rel.FromEntryID)
		assert.Equal(t, uuid.MustParse(acmeID), rel.ToEntryID)

		to, err := rel.ToEntry(ctx)
		require.NoError(t, err)
		require.NotNil(t, to)
		assert.Equal(t, "Acme", to.Name)

		from, err := rel.FromEntry(ctx)
		require.NoError(t, err)
		require.NotNil(t, from)
		assert.Equal(t, "INV-1", from.Name)
	})

	t.Run("sparse entry", func(t *testing.T) {
		inv, err := svc.EntryByName(ctx, invoices, "INV-3")
		require.NoError(t, err)

		values, err := svc.Values(ctx, inv)
		require.NoError(t, err)

		var got []string
		for _, fv := range values {
			got = append(got, fv.Field.Name)
		}
		assert.Equal(t, []string{"amount", "paid", "memo", "tags", "lines"}, got)

		assert.Nil(t, values[2].Value.(schema.TextValue).Value)
		assert.Equal(t, []float64{}, values[4].Value.(schema.NumberListValue).Value)
	})

	t.Run("relation with several edges yields the first", func(t *testing.T) {
		inv, err := svc.EntryByName(ctx, invoices, "INV-2")
		require.NoError(t, err)

		values, err := svc.Values(ctx, inv)
		require.NoError(t, err)
		for _, fv := range values {
			if fv.Field.Name == "customer" {
				assert.Equal(t, uuid.MustParse(acmeID), fv.Value.(schema.RelationValue).ToEntryID)
			}
		}
	})
}

func TestEntry_Missing(t *testing.T) {
	svc := query.New(seeded(t, "invoices"), query.WithLogger(quiet))

	got, err := svc.Entry(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPaginateCollections(t *testing.T) {
	svc := query.New(seeded(t, "catalog"), query.WithLogger(quiet))
	ctx := context.Background()

	tests := []struct {
		name      string
		q         query.CollectionsQuery
		wantNames []string
		wantIndex int
		wantSize  int
		wantItems int
		wantPages int
	}{
		{
			name:      "defaults",
			q:         query.CollectionsQuery{},
			wantNames: []string{"Invoices", "Customer Accounts", "Café Menu", "Library Books", "Inventory Items", "Supplies"},
			wantIndex: 1, wantSize: 10, wantItems: 6, wantPages: 1,
		},
		{
			name:      "clamped low",
			q:         query.CollectionsQuery{Page: num(-3), Size: num(0)},
			wantNames: []string{"Invoices"},
			wantIndex: 1, wantSize: 1, wantItems: 6, wantPages: 6,
		},
		{
			name:      "clamped high",
			q:         query.CollectionsQuery{Page: num(1), Size: num(1000)},
			wantNames: []string{"Invoices", "Customer Accounts", "Café Menu", "Library Books", "Inventory Items", "Supplies"},
			wantIndex: 1, wantSize: 100, wantItems: 6, wantPages: 1,
		},
		{
			name:      "middle page",
			q:         query.CollectionsQuery{Page: num(2), Size: num(2)},
			wantNames: []string{"Café Menu", "Library Books"},
			wantIndex: 2, wantSize: 2, wantItems: 6, wantPages: 3,
		},
		{
			name:      "past the end",
			q:         query.CollectionsQuery{Page: num(9), Size: num(4)},
			wantNames: []string{},
			wantIndex: 9, wantSize: 4, wantItems: 6, wantPages: 2,
		},
		{
			name:      "name query",
			q:         query.CollectionsQuery{NameQuery: str("books library")},
			wantNames: []string{"Library Books"},
			wantIndex: 1, wantSize: 10, wantItems: 1, wantPages: 1,
		},
		{
			name:      "no matches",
			q:         query.CollectionsQuery{NameQuery: str("menus cafeteria")},
			wantNames: []string{},
			wantIndex: 1, wantSize: 10, wantItems: 0, wantPages: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.PaginateCollections(ctx, tt.q)
			require.NoError(t, err)

			got := make([]string, len(page.Items))
			for i, c := range page.Items {
				got[i] = c.Name
			}
			assert.Equal(t, tt.wantNames, got)
			assert.Equal(t, tt.wantIndex, page.Index)
			assert.Equal(t, tt.wantSize, page.Size)
			assert.Equal(t, tt.wantItems, page.NumItems)
			assert.Equal(t, tt.wantPages, page.NumPages)
		})
	}
}

func TestPaginateCollections_CreatedBounds(t *testing.T) {
	svc := query.New(seeded(t, "catalog"), query.WithLogger(quiet))

	all, err := svc.Collections(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 6)

	after, before := all[1].CreatedAt, all[3].CreatedAt
	page, err := svc.PaginateCollections(context.Background(), query.CollectionsQuery{
		CreatedAfter:  &after,
		CreatedBefore: &before,
	})
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, all[1].ID, page.Items[0].ID)
	assert.Equal(t, all[3].ID, page.Items[2].ID)
}

func TestPaginateCollections_ConfiguredDefaults(t *testing.T) {
	svc := query.New(seeded(t, "catalog"),
		query.WithLogger(quiet),
		query.WithPaginationDefaults(config.PaginationConfig{Page: 2, Size: 4}),
	)

	page, err := svc.PaginateCollections(context.Background(), query.CollectionsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Index)
	assert.Equal(t, 4, page.Size)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Inventory Items", page.Items[0].Name)
}
