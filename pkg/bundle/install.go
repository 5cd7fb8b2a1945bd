package bundle

import (
	"context"
	"fmt"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
)

// Installer seeds the playthrough of a World whose graph is already stored.
type Installer interface {
	Install(ctx context.Context, worldID string, settings *domain.Settings) (domain.SessionState, error)
}

// Load writes every record of b into the graph.
func Load(ctx context.Context, writer ports.GraphWriter, b *Bundle) error {
	for _, e := range b.Entities() {
		if err := writer.Put(ctx, e); err != nil {
			return fmt.Errorf("load %s %q: %w", e.EntityKind(), e.EntityID(), err)
		}
	}
	return nil
}

// Install loads b into the graph and installs its World with the bundle settings.
func Install(ctx context.Context, writer ports.GraphWriter, installer Installer, b *Bundle) (domain.SessionState, error) {
	settings, err := b.DecodeSettings()
	if err != nil {
		return domain.SessionState{}, err
	}
	if err := Load(ctx, writer, b); err != nil {
		return domain.SessionState{}, err
	}
	return installer.Install(ctx, b.World.ID, &settings)
}

// Snapshot walks the stored graph of a World and returns it as a bundle.
// Records unreachable from the World (orphans) are not exported.
func Snapshot(ctx context.Context, reader ports.GraphReader, worldID string) (*Bundle, error) {
	s := &snapshot{ctx: ctx, reader: reader, seen: map[string]bool{}, b: &Bundle{Version: CurrentVersion}}

	world, err := s.get(domain.KindWorld, worldID)
	if err != nil {
		return nil, err
	}
	w := world.(*domain.World)
	s.b.World = *w

	for _, kind := range []domain.Kind{domain.KindVariable, domain.KindJump} {
		records, err := reader.ListByParent(ctx, kind, worldID)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			if err := s.add(r); err != nil {
				return nil, err
			}
		}
	}

	if w.Jump != "" {
		if err := s.visit(domain.KindJump, w.Jump); err != nil {
			return nil, err
		}
	}
	if err := s.children(w.Children); err != nil {
		return nil, err
	}
	return s.b, nil
}

type snapshot struct {
	ctx    context.Context
	reader ports.GraphReader
	seen   map[string]bool
	b      *Bundle
}

func (s *snapshot) get(kind domain.Kind, id string) (domain.Entity, error) {
	e, err := s.reader.Get(s.ctx, kind, id)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s %q: %w", kind, id, err)
	}
	return e, nil
}

func (s *snapshot) add(e domain.Entity) error {
	key := string(e.EntityKind()) + "/" + e.EntityID()
	if s.seen[key] {
		return nil
	}
	s.seen[key] = true
	return s.b.Add(e)
}

func (s *snapshot) children(refs []domain.ChildRef) error {
	for _, ref := range refs {
		if err := s.visit(ref.EntityKind(), ref.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *snapshot) visit(kind domain.Kind, id string) error {
	if kind == "" || s.seen[string(kind)+"/"+id] {
		return nil
	}
	e, err := s.get(kind, id)
	if err != nil {
		return err
	}
	if err := s.add(e); err != nil {
		return err
	}

	switch v := e.(type) {
	case *domain.Folder:
		return s.children(v.Children)
	case *domain.Scene:
		return s.children(v.Children)
	case *domain.Event:
		return s.event(v)
	}
	return nil
}

func (s *snapshot) event(ev *domain.Event) error {
	choices, err := s.reader.ListByParent(s.ctx, domain.KindChoice, ev.ID)
	if err != nil {
		return err
	}
	for _, c := range choices {
		if err := s.add(c); err != nil {
			return err
		}
		if err := s.paths(c.EntityID()); err != nil {
			return err
		}
	}

	if ev.Input != "" {
		input, err := s.get(domain.KindInput, ev.Input)
		if err != nil {
			return err
		}
		if err := s.add(input); err != nil {
			return err
		}
		if err := s.paths(input.EntityID()); err != nil {
			return err
		}
	}
	return s.paths(ev.ID)
}

// paths exports the Paths under parentID with their Conditions and Effects.
func (s *snapshot) paths(parentID string) error {
	paths, err := s.reader.ListByParent(s.ctx, domain.KindPath, parentID)
	if err != nil {
		return err
	}
	for _, e := range paths {
		if err := s.add(e); err != nil {
			return err
		}
		for _, kind := range []domain.Kind{domain.KindCondition, domain.KindEffect} {
			records, err := s.reader.ListByParent(s.ctx, kind, e.EntityID())
			if err != nil {
				return err
			}
			for _, r := range records {
				if err := s.add(r); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
