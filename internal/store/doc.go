// Package store provides SQLite-backed storage for collections, fields,
// entries and their per-kind value tables.
//
// The store is the storage capability of the query path: it executes SQL
// compiled by querysql, reads single value rows for materialization, and
// pages collections. The write helpers exist to seed databases (fixtures,
// the load command); the query path never calls them.
//
// # Layout
//
//   - collections, fields, entries: catalog and record tables
//   - entry_<kind>_values: one table per data kind, keyed by (entry, field)
//   - entry_relation_values: directed edges, many per (entry, field)
//
// # Encoding
//
//   - ids: canonical UUID text
//   - created_at: fixed-width RFC 3339 UTC with nanoseconds, so text order
//     equals time order
//   - DateTime values: RFC 3339 UTC with second precision, so ISO 8601
//     literals in the same form compare correctly as text
//   - lists: JSON arrays; objects: JSON documents; NULL payload = empty
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - text_match(text, query): language-aware full-text match registered on
//     every connection (see package search)
package store
