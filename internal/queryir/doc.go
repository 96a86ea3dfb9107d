// Package queryir provides the predicate intermediate representation (IR)
// produced by the filter compiler and consumed by the SQL backend.
//
// ARCHITECTURE:
//
//	[EntryFilters] → [filter.Compile] → [queryir.EntrySelect] → [querysql] → SQL
//
// The IR is the boundary between typed filter validation and storage
// execution. The filter package never writes SQL text; querysql never
// inspects field catalogs.
//
// SHAPE:
//
// An EntrySelect reads the entries of one collection. Each value-table
// filter contributes an inner join (ValueJoin) scoped to one field id, and a
// predicate over the joined alias. Relation filters contribute EXISTS /
// NOT EXISTS subqueries instead of joins, since a relation field may hold many
// edges per entry and a join would duplicate entries.
//
// The fragment deliberately excludes:
//   - OR predicates (filters combine by conjunction only)
//   - Outer joins (an entry without a value row never matches a filter on
//     that field, including negative comparisons)
//   - JSON path expressions into object payloads
//   - Multi-key ordering (created_at plus a storage tiebreak only)
//
// SEALED INTERFACES:
//
// Predicate and Literal are sealed interfaces using the marker method
// pattern. Only types in this package implement them, which lets backends
// switch exhaustively:
//
//	switch p := pred.(type) {
//	case Compare:
//	case Like:
//	case IsNull:
//	case Exists:
//	case And:
//	}
package queryir
