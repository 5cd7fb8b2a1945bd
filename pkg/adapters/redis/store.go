// Package redis provides a Redis-backed playthrough store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
)

const (
	defaultPrefix = "tapestry:"
	// maxRetries bounds optimistic transaction retries in UpdateEntry.
	maxRetries = 8
)

// Store implements ports.PlaythroughStore using Redis.
//
// Layout, relative to the prefix:
//
//	entry:<id>                 JSON entry
//	log:<world>                ZSET of entry ids scored by Seq
//	prev:<world>:<prev id>     id of the single successor of an entry
//	bookmark:<world>           JSON bookmark
//	settings:<world>           JSON settings
type Store struct {
	client *backend.Client
	prefix string
}

var _ ports.PlaythroughStore = (*Store)(nil)

type Option func(*Store)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) entryKey(id string) string { return s.prefix + "entry:" + id }
func (s *Store) logKey(worldID string) string { return s.prefix + "log:" + worldID }
func (s *Store) prevKey(worldID, prev string) string { return s.prefix + "prev:" + worldID + ":" + prev }
func (s *Store) bookmarkKey(worldID string) string { return s.prefix + "bookmark:" + worldID }
func (s *Store) settingsKey(worldID string) string { return s.prefix + "settings:" + worldID }

// GetEntry retrieves a log entry.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.PlaythroughEvent, error) {
	val, err := s.client.Get(ctx, s.entryKey(id)).Result()
	if errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("entry %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("get entry", err)
	}
	return decodeEntry(val)
}

// PutEntry appends a log entry. The successor slot of Prev is claimed with SETNX first.
func (s *Store) PutEntry(ctx context.Context, entry *domain.PlaythroughEvent) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	if entry.Prev != "" {
		claimed, err := s.client.SetNX(ctx, s.prevKey(entry.WorldID, entry.Prev), entry.ID, 0).Result()
		if err != nil {
			return storeError("claim successor", err)
		}
		if !claimed {
			owner, err := s.client.Get(ctx, s.prevKey(entry.WorldID, entry.Prev)).Result()
			if err != nil || owner != entry.ID {
				return fmt.Errorf("entry %q after %q: %w", entry.ID, entry.Prev, domain.ErrBranchingLog)
			}
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.entryKey(entry.ID), data, 0)
	pipe.ZAdd(ctx, s.logKey(entry.WorldID), backend.Z{Score: float64(entry.Seq), Member: entry.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return storeError("put entry", err)
	}
	return nil
}

// UpdateEntry applies a patch under WATCH so a result is written at most once.
func (s *Store) UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) error {
	key := s.entryKey(id)
	txf := func(tx *backend.Tx) error {
		val, err := tx.Get(ctx, key).Result()
		if errors.Is(err, backend.Nil) {
			return fmt.Errorf("entry %q: %w", id, domain.ErrNotFound)
		}
		if err != nil {
			return err
		}
		entry, err := decodeEntry(val)
		if err != nil {
			return err
		}
		if patch.Result != nil && entry.Closed() {
			return fmt.Errorf("entry %q: %w", id, domain.ErrEntryClosed)
		}
		patch.Apply(entry)
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("failed to marshal entry: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, backend.TxFailedErr):
			continue
		case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEntryClosed):
			return err
		default:
			return storeError("update entry", err)
		}
	}
	return storeError("update entry", fmt.Errorf("entry %q: too much contention", id))
}

// RecentEntries returns the newest entries of a World, Seq descending.
func (s *Store) RecentEntries(ctx context.Context, worldID string, limit int) ([]*domain.PlaythroughEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	ids, err := s.client.ZRevRange(ctx, s.logKey(worldID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, storeError("recent entries", err)
	}
	return s.entries(ctx, ids)
}

func (s *Store) entries(ctx context.Context, ids []string) ([]*domain.PlaythroughEvent, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.entryKey(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, storeError("load entries", err)
	}

	out := make([]*domain.PlaythroughEvent, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			// Indexed but already deleted.
			continue
		}
		entry, err := decodeEntry(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// GetBookmark retrieves the auto bookmark of a World.
func (s *Store) GetBookmark(ctx context.Context, worldID string) (*domain.Bookmark, error) {
	var b domain.Bookmark
	if err := s.getJSON(ctx, s.bookmarkKey(worldID), &b); err != nil {
		return nil, wrapMissing(err, "bookmark of %q", worldID)
	}
	return &b, nil
}

// PutBookmark inserts or replaces the bookmark of a World.
func (s *Store) PutBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	return s.setJSON(ctx, s.bookmarkKey(bookmark.WorldID), bookmark)
}

// GetSettings retrieves the settings of a World.
func (s *Store) GetSettings(ctx context.Context, worldID string) (*domain.Settings, error) {
	var settings domain.Settings
	if err := s.getJSON(ctx, s.settingsKey(worldID), &settings); err != nil {
		return nil, wrapMissing(err, "settings of %q", worldID)
	}
	return &settings, nil
}

// PutSettings inserts or replaces the settings of a World.
func (s *Store) PutSettings(ctx context.Context, settings *domain.Settings) error {
	return s.setJSON(ctx, s.settingsKey(settings.WorldID), settings)
}

// DeleteEntry removes an entry, its log membership and its Prev slot when it still owns it.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	entry, err := s.GetEntry(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	var owner string
	if entry.Prev != "" {
		owner, err = s.client.Get(ctx, s.prevKey(entry.WorldID, entry.Prev)).Result()
		if err != nil && !errors.Is(err, backend.Nil) {
			return storeError("read successor", err)
		}
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.entryKey(id))
	pipe.ZRem(ctx, s.logKey(entry.WorldID), id)
	if owner == id {
		pipe.Del(ctx, s.prevKey(entry.WorldID, entry.Prev))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return storeError("delete entry", err)
	}
	return nil
}

// DeletePlaythrough removes the log, the successor claims, the bookmark and the settings of a World.
func (s *Store) DeletePlaythrough(ctx context.Context, worldID string) error {
	ids, err := s.client.ZRange(ctx, s.logKey(worldID), 0, -1).Result()
	if err != nil {
		return storeError("list entries", err)
	}
	entries, err := s.entries(ctx, ids)
	if err != nil {
		return err
	}

	keys := []string{s.logKey(worldID), s.bookmarkKey(worldID), s.settingsKey(worldID)}
	for _, id := range ids {
		keys = append(keys, s.entryKey(id))
	}
	for _, e := range entries {
		if e.Prev != "" {
			keys = append(keys, s.prevKey(worldID, e.Prev))
		}
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return storeError("delete playthrough", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	val, err := s.client.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *Store) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return storeError("set "+key, err)
	}
	return nil
}

func wrapMissing(err error, format string, args ...any) error {
	if errors.Is(err, backend.Nil) {
		return fmt.Errorf(format+": %w", append(args, domain.ErrNotFound)...)
	}
	return storeError("get", err)
}

func decodeEntry(val string) (*domain.PlaythroughEvent, error) {
	var entry domain.PlaythroughEvent
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entry: %w", err)
	}
	return &entry, nil
}

func storeError(op string, err error) error {
	return &domain.StoreError{Op: "redis " + op, Err: err}
}

