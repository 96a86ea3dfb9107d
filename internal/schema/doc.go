// Package schema defines the shared domain types of the flexible-schema
// store: collections, fields, entries, the closed set of data kinds, the
// sealed typed-value union, and the structured error taxonomy.
//
// This package contains type definitions only. All other internal packages
// import schema; schema imports nothing internal.
//
// Key design constraints:
//   - DataType is a closed set. Every consumer switches over all kinds and
//     treats an unknown kind as an error, never as a silent no-op.
//   - Value is a sealed interface (marker method pattern). Only the nine
//     variants in this package implement it.
//   - Values are sparse: a missing (entry, field) row is absent from results,
//     not represented as a null Value.
//   - All JSON tags use snake_case.
package schema
