package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/filter"
	"github.com/roach88/flexstore/internal/query"
	"github.com/roach88/flexstore/internal/schema"
	"github.com/roach88/flexstore/internal/search"
	"github.com/roach88/flexstore/internal/store"
	"github.com/roach88/flexstore/internal/testutil"
)

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database seeded from its fixture.
// A query error is an outcome, not a Run error: Run fails only when the
// scenario itself cannot be set up.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	var opts []store.Option
	if scenario.Language != "" {
		tag, err := search.ParseLanguage(scenario.Language)
		if err != nil {
			return nil, fmt.Errorf("invalid language: %w", err)
		}
		opts = append(opts, store.WithSearchLanguage(tag))
	}

	st, err := store.Open(":memory:", opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	fx, err := LoadFixture(scenario.Fixture)
	if err != nil {
		return nil, err
	}
	if err := Seed(ctx, st, fx, testutil.NewDeterministicClock()); err != nil {
		return nil, fmt.Errorf("failed to seed fixture: %w", err)
	}

	svc := query.New(st, query.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	result := NewResult(scenario.Name)
	switch {
	case scenario.Entries != nil:
		err = runEntries(ctx, svc, fx, scenario.Entries, &result.Outcome)
	case scenario.Collections != nil:
		err = runCollections(ctx, svc, *scenario.Collections, &result.Outcome)
	}
	if err != nil {
		var se *schema.Error
		if !errors.As(err, &se) {
			return nil, err
		}
		result.Outcome.Error = &ErrorOutcome{Code: se.Code, Message: se.Message}
	}

	for _, msg := range CheckExpect(scenario.Expect, result.Outcome) {
		result.AddError(msg)
	}
	return result, nil
}

func runEntries(ctx context.Context, svc *query.Service, fx *Fixture, q *EntriesQuery, out *Outcome) error {
	collectionID, err := fixtureCollectionID(fx, q.Collection)
	if err != nil {
		return err
	}
	order, err := filter.ParseOrderBy(q.Order)
	if err != nil {
		return err
	}

	entries, err := svc.ListEntries(ctx, collectionID, &q.Filters, order)
	if err != nil {
		return err
	}

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	out.Entries = &names
	return nil
}

func runCollections(ctx context.Context, svc *query.Service, q query.CollectionsQuery, out *Outcome) error {
	page, err := svc.PaginateCollections(ctx, q)
	if err != nil {
		return err
	}

	names := make([]string, len(page.Items))
	for i, c := range page.Items {
		names[i] = c.Name
	}
	out.Page = &PageOutcome{
		Collections: names,
		NumItems:    page.NumItems,
		NumPages:    page.NumPages,
		Index:       page.Index,
		Size:        page.Size,
	}
	return nil
}

// fixtureCollectionID resolves a collection name against the fixture. A
// name the fixture does not declare maps to a fresh id so the query runs
// against an empty collection.
func fixtureCollectionID(fx *Fixture, name string) (uuid.UUID, error) {
	for _, c := range fx.Collections {
		if c.Name == name {
			return c.CollectionID()
		}
	}
	return testutil.IDFor("collection:" + name), nil
}
