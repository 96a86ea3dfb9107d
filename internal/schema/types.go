package schema

import (
	"time"

	"github.com/google/uuid"
)

// Collection is a named group of entries sharing one field schema.
// Names are expected to be unique; lookup by name returns the first match.
type Collection struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy uuid.UUID `json:"created_by"`
}

// Field is a typed column declaration within a collection.
// Name is unique within its collection.
type Field struct {
	ID           uuid.UUID `json:"id"`
	CollectionID uuid.UUID `json:"collection_id"`
	Name         string    `json:"name"`
	DataType     DataType  `json:"data_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// Entry is one record within a collection.
// Name is unique within its collection.
type Entry struct {
	ID           uuid.UUID `json:"id"`
	CollectionID uuid.UUID `json:"collection_id"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    uuid.UUID `json:"created_by"`
	Name         string    `json:"name"`
}

// FieldValue pairs a field with the value stored for one entry.
type FieldValue struct {
	Field Field `json:"field"`
	Value Value `json:"value"`
}

// CollectionsPage is one page of a collection listing.
//
// Index and Size echo the effective (clamped) page parameters.
// NumPages is ceil(NumItems / Size).
type CollectionsPage struct {
	Items    []Collection `json:"items"`
	NumPages int          `json:"num_pages"`
	NumItems int          `json:"num_items"`
	Index    int          `json:"index"`
	Size     int          `json:"size"`
}
