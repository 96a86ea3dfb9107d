package testutil

import "github.com/google/uuid"

// Namespace seeds name-derived test identifiers.
var Namespace = uuid.MustParse("6f1f6d1e-3c41-4f5e-9f55-8d3b2a6c0001")

// IDFor returns a stable UUID derived from name (UUIDv5 in Namespace).
//
// The same name always yields the same id, so fixtures can be reloaded
// and golden files stay byte-identical.
func IDFor(name string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(name))
}

// FixedUser is the created_by id used for all fixture records.
var FixedUser = IDFor("user:fixture")
