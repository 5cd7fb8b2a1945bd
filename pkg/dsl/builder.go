package dsl

import (
	"errors"
	"fmt"

	"github.com/aretw0/tapestry/pkg/bundle"
	"github.com/aretw0/tapestry/pkg/domain"
)

// Builder manages the construction of one World.
type Builder struct {
	b    *bundle.Bundle
	ids  map[domain.Kind]map[string]bool
	errs []error

	paths []*PathBuilder
}

// New creates a builder for the World worldID.
func New(worldID, title string) *Builder {
	return &Builder{
		b: &bundle.Bundle{
			Version: bundle.CurrentVersion,
			World:   domain.World{ID: worldID, Title: title},
		},
		ids: make(map[domain.Kind]map[string]bool),
	}
}

// claim records id under kind and reports a duplicate once.
func (b *Builder) claim(kind domain.Kind, id string) {
	if id == "" {
		b.errs = append(b.errs, fmt.Errorf("%s without id", kind))
		return
	}
	if b.ids[kind] == nil {
		b.ids[kind] = make(map[string]bool)
	}
	if b.ids[kind][id] {
		b.errs = append(b.errs, fmt.Errorf("duplicate %s %q", kind, id))
	}
	b.ids[kind][id] = true
}

// Variable declares a story variable. Expressions refer to it by title.
func (b *Builder) Variable(id, title string, typ domain.VariableType, initial string) *Builder {
	b.claim(domain.KindVariable, id)
	b.b.Variables = append(b.b.Variables, &domain.Variable{
		ID: id, WorldID: b.b.World.ID, Title: title, Type: typ, Initial: initial,
	})
	return b
}

// StartAt overrides the starting destination with a Jump.
func (b *Builder) StartAt(jumpID string) *Builder {
	b.b.World.Jump = jumpID
	return b
}

// Setting records a bundle setting applied at install time.
func (b *Builder) Setting(key string, value any) *Builder {
	if b.b.Settings == nil {
		b.b.Settings = make(map[string]any)
	}
	b.b.Settings[key] = value
	return b
}

// Scene appends a Scene to the World outline.
// If the scene already exists, it returns the existing builder.
func (b *Builder) Scene(id, title string) *SceneBuilder {
	for _, s := range b.b.Scenes {
		if s.ID == id {
			return &SceneBuilder{scene: s, builder: b}
		}
	}
	b.claim(domain.KindScene, id)
	scene := &domain.Scene{ID: id, WorldID: b.b.World.ID, Title: title}
	b.b.Scenes = append(b.b.Scenes, scene)
	b.b.World.Children = append(b.b.World.Children, domain.SceneChild(id))
	return &SceneBuilder{scene: scene, builder: b}
}

// Build resolves path destinations and returns the bundle.
// Every construction error is reported at once.
func (b *Builder) Build() (*bundle.Bundle, error) {
	errs := append([]error(nil), b.errs...)
	for _, pb := range b.paths {
		p := pb.path
		switch {
		case b.ids[domain.KindJump][p.DestinationID]:
			p.DestinationType = domain.DestinationJump
		case b.ids[domain.KindEvent][p.DestinationID]:
			p.DestinationType = domain.DestinationEvent
		default:
			errs = append(errs, fmt.Errorf("path %q: unknown destination %q", p.ID, p.DestinationID))
		}
	}
	if j := b.b.World.Jump; j != "" && !b.ids[domain.KindJump][j] {
		errs = append(errs, fmt.Errorf("world start: unknown jump %q", j))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("failed to build world %q: %w", b.b.World.ID, err)
	}
	return b.b, nil
}

// SceneBuilder provides a fluent API for filling a Scene.
type SceneBuilder struct {
	scene   *domain.Scene
	builder *Builder
}

// Event appends an Event to the scene. The first Event of the first Scene is the default start.
func (s *SceneBuilder) Event(id string) *EventBuilder {
	b := s.builder
	b.claim(domain.KindEvent, id)
	ev := &domain.Event{ID: id, WorldID: b.b.World.ID, SceneID: s.scene.ID, Title: id}
	b.b.Events = append(b.b.Events, ev)
	s.scene.Children = append(s.scene.Children, domain.EventChild(id))
	return &EventBuilder{event: ev, builder: b}
}

// Jump appends a Jump to the scene. An empty eventID targets the first Event of sceneID.
func (s *SceneBuilder) Jump(id, sceneID, eventID string) *SceneBuilder {
	b := s.builder
	b.claim(domain.KindJump, id)
	b.b.Jumps = append(b.b.Jumps, &domain.Jump{
		ID: id, WorldID: b.b.World.ID, SceneID: sceneID, EventID: eventID,
	})
	s.scene.Children = append(s.scene.Children, domain.JumpChild(id))
	return s
}
