package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/tapestry/pkg/domain"
)

type graphKey struct {
	kind domain.Kind
	id   string
}

// Graph implements ports.GraphStore in memory.
// Safe for concurrent use.
type Graph struct {
	mu      sync.RWMutex
	records map[graphKey]domain.Entity
	// order keeps insertion order per kind for parent listings.
	order map[domain.Kind][]string
}

// NewGraph creates an empty in-memory graph.
func NewGraph() *Graph {
	return &Graph{
		records: make(map[graphKey]domain.Entity),
		order:   make(map[domain.Kind][]string),
	}
}

// NewFromEntities creates a graph seeded with the given records, in order.
// This improves DX for tests and examples.
func NewFromEntities(entities ...domain.Entity) (*Graph, error) {
	g := NewGraph()
	for _, e := range entities {
		if e.EntityID() == "" {
			return nil, fmt.Errorf("%s missing ID", e.EntityKind())
		}
		if err := g.Put(context.Background(), e); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Get retrieves a record by kind and id.
func (g *Graph) Get(ctx context.Context, kind domain.Kind, id string) (domain.Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	e, ok := g.records[graphKey{kind, id}]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
	}
	return domain.CloneEntity(e), nil
}

// ListByParent returns the records of kind attached to parentID, in insertion order.
func (g *Graph) ListByParent(ctx context.Context, kind domain.Kind, parentID string) ([]domain.Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []domain.Entity
	for _, id := range g.order[kind] {
		e := g.records[graphKey{kind, id}]
		if e.ParentID() == parentID {
			out = append(out, domain.CloneEntity(e))
		}
	}
	return out, nil
}

// ListByIDs returns the records in the requested order.
func (g *Graph) ListByIDs(ctx context.Context, kind domain.Kind, ids []string) ([]domain.Entity, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]domain.Entity, 0, len(ids))
	for _, id := range ids {
		e, ok := g.records[graphKey{kind, id}]
		if !ok {
			return nil, fmt.Errorf("%s %q: %w", kind, id, domain.ErrNotFound)
		}
		out = append(out, domain.CloneEntity(e))
	}
	return out, nil
}

// Put inserts or replaces a record.
func (g *Graph) Put(ctx context.Context, entity domain.Entity) error {
	key := graphKey{entity.EntityKind(), entity.EntityID()}
	copied := domain.CloneEntity(entity)

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.records[key]; !exists {
		g.order[key.kind] = append(g.order[key.kind], key.id)
	}
	g.records[key] = copied
	return nil
}

// Delete removes a record.
func (g *Graph) Delete(ctx context.Context, kind domain.Kind, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := graphKey{kind, id}
	if _, exists := g.records[key]; !exists {
		return nil
	}
	delete(g.records, key)

	ids := g.order[kind]
	for i, v := range ids {
		if v == id {
			g.order[kind] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	return nil
}
