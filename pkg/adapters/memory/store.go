package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/tapestry/pkg/domain"
)

// Store implements ports.PlaythroughStore in memory.
// Safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*domain.PlaythroughEvent
	bookmarks map[string]*domain.Bookmark
	settings  map[string]*domain.Settings
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		entries:   make(map[string]*domain.PlaythroughEvent),
		bookmarks: make(map[string]*domain.Bookmark),
		settings:  make(map[string]*domain.Settings),
	}
}

// GetEntry retrieves a log entry.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.PlaythroughEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return nil, fmt.Errorf("entry %q: %w", id, domain.ErrNotFound)
	}
	// Copy on read so callers can't mutate store state by pointer
	return e.Clone(), nil
}

// PutEntry appends a log entry.
func (s *Store) PutEntry(ctx context.Context, entry *domain.PlaythroughEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.Prev != "" {
		for _, e := range s.entries {
			if e.WorldID == entry.WorldID && e.Prev == entry.Prev && e.ID != entry.ID {
				return fmt.Errorf("entry %q after %q: %w", entry.ID, entry.Prev, domain.ErrBranchingLog)
			}
		}
	}
	s.entries[entry.ID] = entry.Clone()
	return nil
}

// UpdateEntry applies a patch to an entry. The closed check and the write happen under one lock.
func (s *Store) UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("entry %q: %w", id, domain.ErrNotFound)
	}
	if patch.Result != nil && e.Closed() {
		return fmt.Errorf("entry %q: %w", id, domain.ErrEntryClosed)
	}
	patch.Apply(e)
	return nil
}

// DeleteEntry removes an entry.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// RecentEntries returns the newest entries of a World.
func (s *Store) RecentEntries(ctx context.Context, worldID string, limit int) ([]*domain.PlaythroughEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PlaythroughEvent
	for _, e := range s.entries {
		if e.WorldID == worldID {
			out = append(out, e.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq > out[j].Seq })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetBookmark retrieves the auto bookmark of a World.
func (s *Store) GetBookmark(ctx context.Context, worldID string) (*domain.Bookmark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.bookmarks[worldID]
	if !ok {
		return nil, fmt.Errorf("bookmark %q: %w", worldID, domain.ErrNotFound)
	}
	ret := *b
	return &ret, nil
}

// PutBookmark stores the auto bookmark of a World.
func (s *Store) PutBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	copied := *bookmark

	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookmarks[bookmark.WorldID] = &copied
	return nil
}

// GetSettings retrieves the settings of a World.
func (s *Store) GetSettings(ctx context.Context, worldID string) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[worldID]
	if !ok {
		return nil, fmt.Errorf("settings %q: %w", worldID, domain.ErrNotFound)
	}
	ret := *st
	return &ret, nil
}

// PutSettings stores the settings of a World.
func (s *Store) PutSettings(ctx context.Context, settings *domain.Settings) error {
	copied := *settings

	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[settings.WorldID] = &copied
	return nil
}

// DeletePlaythrough removes every playthrough record of a World.
func (s *Store) DeletePlaythrough(ctx context.Context, worldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if e.WorldID == worldID {
			delete(s.entries, id)
		}
	}
	delete(s.bookmarks, worldID)
	delete(s.settings, worldID)
	return nil
}
