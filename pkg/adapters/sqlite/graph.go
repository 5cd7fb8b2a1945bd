package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/tapestry/pkg/domain"
)

// Get retrieves a record by kind and id.
func (s *Store) Get(ctx context.Context, kind domain.Kind, id string) (domain.Entity, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM entities WHERE kind = ? AND id = ?`, string(kind), id,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, storeError("get "+string(kind), err)
	}
	return decodeEntity(kind, data)
}

// ListByParent returns the records of kind attached to parentID, in insertion order.
func (s *Store) ListByParent(ctx context.Context, kind domain.Kind, parentID string) ([]domain.Entity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data FROM entities WHERE kind = ? AND parent_id = ? ORDER BY position`,
		string(kind), parentID,
	)
	if err != nil {
		return nil, storeError("list "+string(kind), err)
	}
	defer rows.Close()

	var out []domain.Entity
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, storeError("scan "+string(kind), err)
		}
		e, err := decodeEntity(kind, data)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list "+string(kind), err)
	}
	return out, nil
}

// ListByIDs returns the records in the requested order.
func (s *Store) ListByIDs(ctx context.Context, kind domain.Kind, ids []string) ([]domain.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(ids)+1)
	args = append(args, string(kind))
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM entities WHERE kind = ? AND id IN (`+placeholders+`)`, args...,
	)
	if err != nil {
		return nil, storeError("list "+string(kind), err)
	}
	defer rows.Close()

	byID := make(map[string]string, len(ids))
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, storeError("scan "+string(kind), err)
		}
		byID[id] = data
	}
	if err := rows.Err(); err != nil {
		return nil, storeError("list "+string(kind), err)
	}

	out := make([]domain.Entity, 0, len(ids))
	for _, id := range ids {
		data, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
		}
		e, err := decodeEntity(kind, data)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Put inserts or replaces a record. A replaced record keeps its position.
func (s *Store) Put(ctx context.Context, entity domain.Entity) error {
	data, err := json.Marshal(entity)
	if err != nil {
		return fmt.Errorf("encode %s %q: %w", entity.EntityKind(), entity.EntityID(), err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (kind, id, parent_id, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT (kind, id) DO UPDATE SET parent_id = excluded.parent_id, data = excluded.data`,
		string(entity.EntityKind()), entity.EntityID(), entity.ParentID(), string(data),
	)
	if err != nil {
		return storeError("put "+string(entity.EntityKind()), err)
	}
	return nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, kind domain.Kind, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = ? AND id = ?`, string(kind), id); err != nil {
		return storeError("delete "+string(kind), err)
	}
	return nil
}

func decodeEntity(kind domain.Kind, data string) (domain.Entity, error) {
	e, err := domain.NewEntity(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), e); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return e, nil
}
