// Package harness runs YAML conformance scenarios against a seeded store.
//
// # Fixture Format
//
// A fixture declares collections with typed fields and sparse entry values:
//
//	collections:
//	  - name: Invoices
//	    fields:
//	      - { name: amount, type: Number }
//	      - { name: paid, type: Boolean }
//	    entries:
//	      - name: A
//	        values: { amount: 100, paid: true }
//	      - name: B
//	        values: { amount: 50 }
//
// A field missing from values gets no value row. An explicit null writes a
// row with a NULL payload. Relation values list targets as
// "Collection/Entry" references or raw UUIDs.
//
// # Scenario Format
//
//	name: invoices_paid_neq
//	description: "Entries without a paid row never match"
//	fixture: ../fixtures/invoices.yaml
//	entries:
//	  collection: Invoices
//	  filters:
//	    boolean_filters:
//	      - { field_name: paid, comparison: Neq, value: true }
//	expect:
//	  entries: []
//
// A scenario runs exactly one query: an entries listing or a collections
// page. Expect names the entries (in order), the collections page, or the
// error code the query must fail with.
//
// # Deterministic Testing
//
// Every scenario seeds a fresh in-memory database. Identifiers derive from
// names (testutil.IDFor) and creation times come from
// testutil.DeterministicClock, so identical scenarios produce identical
// outcomes for golden comparison.
package harness
