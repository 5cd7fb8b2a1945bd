package ports

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
)

// PlaythroughStore persists the playthrough log, the auto bookmark and settings of each World.
// It is the only write surface of the runtime.
type PlaythroughStore interface {
	// GetEntry returns a log entry.
	// Returns an error wrapping domain.ErrNotFound if the entry does not exist.
	GetEntry(ctx context.Context, id string) (*domain.PlaythroughEvent, error)

	// PutEntry appends a new entry.
	// Returns domain.ErrBranchingLog if another entry of the World already has the same non-empty Prev.
	PutEntry(ctx context.Context, entry *domain.PlaythroughEvent) error

	// UpdateEntry applies a partial update to an existing entry.
	// Writing a Result to an entry that already has one fails with domain.ErrEntryClosed
	// and leaves the entry untouched. Next may be updated on closed entries.
	UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) error

	// DeleteEntry removes an entry that was appended but never linked, releasing its Prev slot.
	// Deleting a missing entry is not an error.
	DeleteEntry(ctx context.Context, id string) error

	// RecentEntries returns at most limit entries of the World ordered by Seq, newest first.
	RecentEntries(ctx context.Context, worldID string, limit int) ([]*domain.PlaythroughEvent, error)

	// GetBookmark returns the World's auto bookmark.
	GetBookmark(ctx context.Context, worldID string) (*domain.Bookmark, error)

	// PutBookmark inserts or replaces a bookmark.
	PutBookmark(ctx context.Context, bookmark *domain.Bookmark) error

	// GetSettings returns the World's settings.
	GetSettings(ctx context.Context, worldID string) (*domain.Settings, error)

	// PutSettings inserts or replaces the World's settings.
	PutSettings(ctx context.Context, settings *domain.Settings) error

	// DeletePlaythrough removes every entry, the bookmark and the settings of a World.
	DeletePlaythrough(ctx context.Context, worldID string) error
}
