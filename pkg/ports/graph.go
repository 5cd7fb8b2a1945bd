package ports

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
)

// GraphReader defines how the runtime retrieves story graph records.
// Entities are returned as pointers the caller owns.
type GraphReader interface {
	// Get returns the record of the given kind.
	// Returns an error wrapping domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, kind domain.Kind, id string) (domain.Entity, error)

	// ListByParent returns every record of kind whose ParentID equals parentID, in insertion order.
	ListByParent(ctx context.Context, kind domain.Kind, parentID string) ([]domain.Entity, error)

	// ListByIDs returns the records in the order of ids.
	// A missing id fails the whole call with domain.ErrNotFound.
	ListByIDs(ctx context.Context, kind domain.Kind, ids []string) ([]domain.Entity, error)
}

// GraphWriter mutates graph topology. The runtime core never uses it.
type GraphWriter interface {
	// Put inserts or replaces a record. Replacing keeps the record's position in parent listings.
	Put(ctx context.Context, entity domain.Entity) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, kind domain.Kind, id string) error
}

// GraphStore is a full read/write story graph backend.
type GraphStore interface {
	GraphReader
	GraphWriter
}
