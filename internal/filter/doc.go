// Package filter validates a typed EntryFilters set against a collection's
// field catalog and compiles it into queryir joins and predicates.
//
// Compilation is all-or-nothing: the first invalid filter aborts it and no
// partial Plan is returned, so a partially applied filter set never reaches
// the store.
//
// Every filter on a value-table kind joins that kind's table for the
// resolved field. An entry without a value row for the field is therefore
// excluded by every comparison on it, including Neq. Relation filters use an
// EXISTS presence guard with the same effect: NotConnectedTo requires at least
// one edge for the field, and HasNoConnections matches no entry at all.
//
// Text pattern comparisons (Contains, StartsWith, EndsWith) wrap the operand
// in % wildcards without escaping % or _ already present in it.
package filter
