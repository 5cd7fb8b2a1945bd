package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/tapestry/pkg/domain"
)

const entryColumns = `id, world_id, seq, type, destination, origin, prev, next, result, state, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// GetEntry retrieves a log entry.
func (s *Store) GetEntry(ctx context.Context, id string) (*domain.PlaythroughEvent, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM playthrough_events WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("entry %q: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("get entry", err)
	}
	return entry, nil
}

// PutEntry appends a log entry. The (world, prev) and (world, seq) unique indexes keep the log linear.
func (s *Store) PutEntry(ctx context.Context, entry *domain.PlaythroughEvent) error {
	state, err := json.Marshal(entry.State)
	if err != nil {
		return fmt.Errorf("encode entry state: %w", err)
	}
	var result sql.NullString
	if entry.Result != nil {
		b, err := json.Marshal(entry.Result)
		if err != nil {
			return fmt.Errorf("encode entry result: %w", err)
		}
		result = sql.NullString{String: string(b), Valid: true}
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO playthrough_events (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.WorldID, int64(entry.Seq), string(entry.Type),
		entry.Destination, entry.Origin, entry.Prev, entry.Next,
		result, string(state), toMillis(entry.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("entry %q after %q: %w", entry.ID, entry.Prev, domain.ErrBranchingLog)
	}
	if err != nil {
		return storeError("put entry", err)
	}
	return nil
}

// UpdateEntry applies a patch to an entry.
// The result is written with a conditional UPDATE so only one writer can close an entry.
func (s *Store) UpdateEntry(ctx context.Context, id string, patch domain.EntryPatch) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin update", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM playthrough_events WHERE id = ?`, id).Scan(&exists); err != nil {
		return storeError("update entry", err)
	}
	if exists == 0 {
		return fmt.Errorf("entry %q: %w", id, domain.ErrNotFound)
	}

	if patch.Result != nil {
		b, err := json.Marshal(patch.Result)
		if err != nil {
			return fmt.Errorf("encode entry result: %w", err)
		}
		res, err := tx.ExecContext(ctx,
			`UPDATE playthrough_events SET result = ? WHERE id = ? AND result IS NULL`, string(b), id,
		)
		if err != nil {
			return storeError("close entry", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeError("close entry", err)
		}
		if n == 0 {
			return fmt.Errorf("entry %q: %w", id, domain.ErrEntryClosed)
		}
	}
	if patch.Next != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE playthrough_events SET next = ? WHERE id = ?`, *patch.Next, id); err != nil {
			return storeError("link entry", err)
		}
	}
	if patch.UpdatedAt != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE playthrough_events SET updated_at = ? WHERE id = ?`, toMillis(*patch.UpdatedAt), id); err != nil {
			return storeError("touch entry", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeError("commit update", err)
	}
	return nil
}

// RecentEntries returns the newest entries of a World, Seq descending.
func (s *Store) RecentEntries(ctx context.Context, worldID string, limit int) ([]*domain.PlaythroughEvent, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM playthrough_events WHERE world_id = ? ORDER BY seq DESC LIMIT ?`,
		worldID, limit,
	)
	if err != nil {
		return nil, storeError("recent entries", err)
	}
	defer rows.Close()

	var out []*domain.PlaythroughEvent
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, storeError("scan entry", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("recent entries", err)
	}
	return out, nil
}

// GetBookmark retrieves the auto bookmark of a World.
func (s *Store) GetBookmark(ctx context.Context, worldID string) (*domain.Bookmark, error) {
	var (
		b         = domain.Bookmark{WorldID: worldID}
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, entry_id, updated_at FROM bookmarks WHERE world_id = ?`, worldID,
	).Scan(&b.ID, &b.EntryID, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bookmark of %q: %w", worldID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("get bookmark", err)
	}
	b.UpdatedAt = fromMillis(updatedAt)
	return &b, nil
}

// PutBookmark inserts or replaces the bookmark of a World.
func (s *Store) PutBookmark(ctx context.Context, bookmark *domain.Bookmark) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (world_id, id, entry_id, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (world_id) DO UPDATE SET id = excluded.id, entry_id = excluded.entry_id, updated_at = excluded.updated_at`,
		bookmark.WorldID, bookmark.ID, bookmark.EntryID, toMillis(bookmark.UpdatedAt),
	)
	if err != nil {
		return storeError("put bookmark", err)
	}
	return nil
}

// GetSettings retrieves the settings of a World.
func (s *Store) GetSettings(ctx context.Context, worldID string) (*domain.Settings, error) {
	settings := domain.Settings{WorldID: worldID}
	err := s.db.QueryRowContext(ctx,
		`SELECT theme, history_limit FROM settings WHERE world_id = ?`, worldID,
	).Scan(&settings.Theme, &settings.HistoryLimit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings of %q: %w", worldID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("get settings", err)
	}
	return &settings, nil
}

// PutSettings inserts or replaces the settings of a World.
func (s *Store) PutSettings(ctx context.Context, settings *domain.Settings) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (world_id, theme, history_limit) VALUES (?, ?, ?)
		 ON CONFLICT (world_id) DO UPDATE SET theme = excluded.theme, history_limit = excluded.history_limit`,
		settings.WorldID, settings.Theme, settings.HistoryLimit,
	)
	if err != nil {
		return storeError("put settings", err)
	}
	return nil
}

// DeleteEntry removes an entry.
func (s *Store) DeleteEntry(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM playthrough_events WHERE id = ?`, id); err != nil {
		return storeError("delete entry", err)
	}
	return nil
}

// DeletePlaythrough removes the log, bookmark and settings of a World in one transaction.
func (s *Store) DeletePlaythrough(ctx context.Context, worldID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeError("begin delete", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"playthrough_events", "bookmarks", "settings"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE world_id = ?`, worldID); err != nil {
			return storeError("delete "+table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return storeError("commit delete", err)
	}
	return nil
}

func scanEntry(row rowScanner) (*domain.PlaythroughEvent, error) {
	var (
		entry     domain.PlaythroughEvent
		seq       int64
		typ       string
		result    sql.NullString
		state     string
		updatedAt int64
	)
	err := row.Scan(
		&entry.ID, &entry.WorldID, &seq, &typ,
		&entry.Destination, &entry.Origin, &entry.Prev, &entry.Next,
		&result, &state, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Seq = uint64(seq)
	entry.Type = domain.EntryType(typ)
	entry.UpdatedAt = fromMillis(updatedAt)
	if result.Valid {
		entry.Result = &domain.RouteResult{}
		if err := json.Unmarshal([]byte(result.String), entry.Result); err != nil {
			return nil, fmt.Errorf("decode entry result: %w", err)
		}
	}
	if err := json.Unmarshal([]byte(state), &entry.State); err != nil {
		return nil, fmt.Errorf("decode entry state: %w", err)
	}
	return &entry, nil
}
