// Package query is the read surface of flexstore: filtered entry listings,
// lookups by name and paginated collection listings.
//
// The service is stateless. Every call re-reads fields and values through
// the store; nothing is cached between calls.
package query

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/flexstore/internal/catalog"
	"github.com/roach88/flexstore/internal/config"
	"github.com/roach88/flexstore/internal/filter"
	"github.com/roach88/flexstore/internal/materialize"
	"github.com/roach88/flexstore/internal/queryir"
	"github.com/roach88/flexstore/internal/querysql"
	"github.com/roach88/flexstore/internal/schema"
	"github.com/roach88/flexstore/internal/store"
)

// Store is the storage capability the service needs.
// *store.Store implements it.
type Store interface {
	catalog.FieldFinder
	materialize.ValueReader
	schema.EntryLookup
	QueryEntries(ctx context.Context, query string, params ...any) ([]schema.Entry, error)
	EntryByName(ctx context.Context, collectionID uuid.UUID, name string) (*schema.Entry, error)
	Collections(ctx context.Context) ([]schema.Collection, error)
	CollectionByName(ctx context.Context, name string) (*schema.Collection, error)
	CollectionsPage(ctx context.Context, f store.CollectionFilter, limit, offset int) ([]schema.Collection, int, error)
}

// Service answers queries over one store.
type Service struct {
	store        Store
	catalog      *catalog.Catalog
	materializer *materialize.Materializer
	compiler     *querysql.SQLCompiler
	logger       *slog.Logger
	pagination   config.PaginationConfig
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithPaginationDefaults sets the page index and size used when a
// CollectionsQuery leaves them unset.
func WithPaginationDefaults(p config.PaginationConfig) Option {
	return func(s *Service) {
		s.pagination = p
	}
}

// New creates a Service backed by st.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:      st,
		catalog:    catalog.New(st),
		compiler:   querysql.NewSQLCompiler(),
		logger:     slog.Default(),
		pagination: config.Defaults().Pagination,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.materializer = materialize.New(st, s)
	return s
}

// Fields returns the fields of a collection in creation order.
func (s *Service) Fields(ctx context.Context, collectionID uuid.UUID) ([]schema.Field, error) {
	return s.catalog.LoadFields(ctx, collectionID)
}

// ListEntries returns the entries of a collection that satisfy every
// filter, ordered by creation time.
//
// Fields are resolved once per call. A filter naming an unknown field, a
// field of the wrong type, or a malformed operand fails the whole call
// before anything is executed.
func (s *Service) ListEntries(ctx context.Context, collectionID uuid.UUID, filters *filter.EntryFilters, order filter.OrderBy) ([]schema.Entry, error) {
	fields, err := s.catalog.LoadFields(ctx, collectionID)
	if err != nil {
		s.logger.Error("load fields failed",
			"collection_id", collectionID,
			"error", err,
		)
		return nil, err
	}

	plan, err := filter.Compile(fields, filters)
	if err != nil {
		s.logger.Debug("filter rejected",
			"collection_id", collectionID,
			"code", schema.CodeOf(err),
			"error", err,
		)
		return nil, err
	}

	sel := plan.Apply(queryir.EntrySelect{
		CollectionID: collectionID.String(),
		Order:        sortDirection(order),
	})
	sqlText, params, err := s.compiler.Compile(sel)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("listing entries",
		"collection_id", collectionID,
		"filters", filtersAttr(filters),
		"sql", sqlText,
	)

	entries, err := s.store.QueryEntries(ctx, sqlText, params...)
	if err != nil {
		s.logger.Error("query entries failed",
			"collection_id", collectionID,
			"filters", filtersAttr(filters),
			"error", err,
		)
		return nil, schema.NewStoreError("query entries", err)
	}
	return entries, nil
}

func sortDirection(order filter.OrderBy) queryir.SortDirection {
	if order == filter.OrderDesc {
		return queryir.SortDesc
	}
	return queryir.SortAsc
}

// EntryByName returns the entry of a collection with the given name.
// Returns EntryNotFound if there is none.
func (s *Service) EntryByName(ctx context.Context, collectionID uuid.UUID, name string) (schema.Entry, error) {
	entry, err := s.store.EntryByName(ctx, collectionID, name)
	if err != nil {
		s.logger.Error("entry lookup failed",
			"collection_id", collectionID,
			"name", name,
			"error", err,
		)
		return schema.Entry{}, schema.NewStoreError("find entry", err)
	}
	if entry == nil {
		return schema.Entry{}, schema.NewEntryNotFound(name)
	}
	return *entry, nil
}

// Entry returns the entry with the given id, or (nil, nil) if it does not
// exist. It backs the lazy accessors of relation values.
func (s *Service) Entry(ctx context.Context, id uuid.UUID) (*schema.Entry, error) {
	entry, err := s.store.Entry(ctx, id)
	if err != nil {
		return nil, schema.NewStoreError("find entry", err)
	}
	return entry, nil
}

// Values materializes every field value of entry, in field creation order.
func (s *Service) Values(ctx context.Context, entry schema.Entry) ([]schema.FieldValue, error) {
	fields, err := s.catalog.LoadFields(ctx, entry.CollectionID)
	if err != nil {
		return nil, err
	}
	return s.materializer.Materialize(ctx, entry, fields)
}

// Collections returns every collection in creation order.
func (s *Service) Collections(ctx context.Context) ([]schema.Collection, error) {
	collections, err := s.store.Collections(ctx)
	if err != nil {
		s.logger.Error("list collections failed", "error", err)
		return nil, schema.NewStoreError("list collections", err)
	}
	return collections, nil
}

// CollectionByName returns the first collection with the given name.
// Returns CollectionNotFound if there is none.
func (s *Service) CollectionByName(ctx context.Context, name string) (schema.Collection, error) {
	c, err := s.store.CollectionByName(ctx, name)
	if err != nil {
		s.logger.Error("collection lookup failed", "name", name, "error", err)
		return schema.Collection{}, schema.NewStoreError("find collection", err)
	}
	if c == nil {
		return schema.Collection{}, schema.NewCollectionNotFound(name)
	}
	return *c, nil
}

// CollectionsQuery selects one page of collections. A nil Page or Size
// falls back to the service defaults; explicit values are clamped.
type CollectionsQuery struct {
	Page          *int       `json:"page,omitempty" yaml:"page,omitempty"`
	Size          *int       `json:"size,omitempty" yaml:"size,omitempty"`
	NameQuery     *string    `json:"name_query,omitempty" yaml:"name_query,omitempty"`
	CreatedAfter  *time.Time `json:"created_after,omitempty" yaml:"created_after,omitempty"`
	CreatedBefore *time.Time `json:"created_before,omitempty" yaml:"created_before,omitempty"`
}

// PaginateCollections returns one page of collections in creation order.
//
// Page is clamped to at least 1 and Size to [1, 100]; the page echoes the
// effective values. NameQuery matches whole words in the configured search
// language. CreatedAfter and CreatedBefore are inclusive.
func (s *Service) PaginateCollections(ctx context.Context, q CollectionsQuery) (schema.CollectionsPage, error) {
	page := s.pagination.Page
	if q.Page != nil {
		page = *q.Page
	}
	page = max(page, 1)

	size := s.pagination.Size
	if q.Size != nil {
		size = *q.Size
	}
	size = min(max(size, config.MinPageSize), config.MaxPageSize)

	f := store.CollectionFilter{
		NameQuery:     q.NameQuery,
		CreatedAfter:  q.CreatedAfter,
		CreatedBefore: q.CreatedBefore,
	}

	s.logger.Debug("paginating collections",
		"page", page,
		"size", size,
		"name_query", q.NameQuery != nil,
	)

	items, total, err := s.store.CollectionsPage(ctx, f, size, (page-1)*size)
	if err != nil {
		s.logger.Error("collections page failed", "page", page, "size", size, "error", err)
		return schema.CollectionsPage{}, schema.NewStoreError("paginate collections", err)
	}

	return schema.CollectionsPage{
		Items:    items,
		NumPages: (total + size - 1) / size,
		NumItems: total,
		Index:    page,
		Size:     size,
	}, nil
}

// filtersAttr renders filters as a compact JSON log attribute.
func filtersAttr(filters *filter.EntryFilters) string {
	if filters == nil {
		return "{}"
	}
	data, err := json.Marshal(filters)
	if err != nil {
		return "<unencodable>"
	}
	return string(data)
}
