// Package bundle reads and writes portable storyworld documents.
//
// A bundle carries every record of one World in YAML or JSON, optionally gzip-compressed,
// plus the settings written at install time.
package bundle

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/tapestry/pkg/domain"
)

// CurrentVersion is the bundle format written by Encode.
const CurrentVersion = 1

// ErrInvalidBundle is returned when a document decodes but cannot describe a World.
var ErrInvalidBundle = errors.New("invalid bundle")

// Bundle is the document form of a World.
type Bundle struct {
	Version int          `json:"version" yaml:"version"`
	World   domain.World `json:"world" yaml:"world"`

	Variables  []*domain.Variable  `json:"variables,omitempty" yaml:"variables,omitempty"`
	Folders    []*domain.Folder    `json:"folders,omitempty" yaml:"folders,omitempty"`
	Scenes     []*domain.Scene     `json:"scenes,omitempty" yaml:"scenes,omitempty"`
	Jumps      []*domain.Jump      `json:"jumps,omitempty" yaml:"jumps,omitempty"`
	Events     []*domain.Event     `json:"events,omitempty" yaml:"events,omitempty"`
	Choices    []*domain.Choice    `json:"choices,omitempty" yaml:"choices,omitempty"`
	Inputs     []*domain.Input     `json:"inputs,omitempty" yaml:"inputs,omitempty"`
	Paths      []*domain.Path      `json:"paths,omitempty" yaml:"paths,omitempty"`
	Conditions []*domain.Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Effects    []*domain.Effect    `json:"effects,omitempty" yaml:"effects,omitempty"`

	// Settings is decoded into domain.Settings at install time. Unknown keys are ignored.
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// Entities returns every record of the bundle, parents before children.
func (b *Bundle) Entities() []domain.Entity {
	world := b.World
	out := []domain.Entity{&world}
	out = appendAll(out, b.Variables)
	out = appendAll(out, b.Folders)
	out = appendAll(out, b.Scenes)
	out = appendAll(out, b.Jumps)
	out = appendAll(out, b.Events)
	out = appendAll(out, b.Choices)
	out = appendAll(out, b.Inputs)
	out = appendAll(out, b.Paths)
	out = appendAll(out, b.Conditions)
	out = appendAll(out, b.Effects)
	return out
}

func appendAll[T domain.Entity](out []domain.Entity, records []T) []domain.Entity {
	for _, r := range records {
		out = append(out, r)
	}
	return out
}

// Add files a record under its kind.
func (b *Bundle) Add(e domain.Entity) error {
	switch v := e.(type) {
	case *domain.World:
		b.World = *v
	case *domain.Variable:
		b.Variables = append(b.Variables, v)
	case *domain.Folder:
		b.Folders = append(b.Folders, v)
	case *domain.Scene:
		b.Scenes = append(b.Scenes, v)
	case *domain.Jump:
		b.Jumps = append(b.Jumps, v)
	case *domain.Event:
		b.Events = append(b.Events, v)
	case *domain.Choice:
		b.Choices = append(b.Choices, v)
	case *domain.Input:
		b.Inputs = append(b.Inputs, v)
	case *domain.Path:
		b.Paths = append(b.Paths, v)
	case *domain.Condition:
		b.Conditions = append(b.Conditions, v)
	case *domain.Effect:
		b.Effects = append(b.Effects, v)
	default:
		return fmt.Errorf("%w: unsupported record %T", ErrInvalidBundle, e)
	}
	return nil
}

// normalize fills omitted world ids and checks that every record is addressable.
func (b *Bundle) normalize() error {
	if b.World.ID == "" {
		return fmt.Errorf("%w: world id is required", ErrInvalidBundle)
	}
	if b.Version == 0 {
		b.Version = CurrentVersion
	}
	if b.Version > CurrentVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidBundle, b.Version)
	}

	worldID := b.World.ID
	setWorld := func(kind domain.Kind, id string, field *string) error {
		if id == "" {
			return fmt.Errorf("%w: %s without id", ErrInvalidBundle, kind)
		}
		if *field == "" {
			*field = worldID
		} else if *field != worldID {
			return fmt.Errorf("%w: %s %q belongs to world %q", ErrInvalidBundle, kind, id, *field)
		}
		return nil
	}

	var errs []error
	for _, v := range b.Variables {
		errs = append(errs, setWorld(domain.KindVariable, v.ID, &v.WorldID))
	}
	for _, v := range b.Folders {
		errs = append(errs, setWorld(domain.KindFolder, v.ID, &v.WorldID))
	}
	for _, v := range b.Scenes {
		errs = append(errs, setWorld(domain.KindScene, v.ID, &v.WorldID))
	}
	for _, v := range b.Jumps {
		errs = append(errs, setWorld(domain.KindJump, v.ID, &v.WorldID))
	}
	for _, v := range b.Events {
		errs = append(errs, setWorld(domain.KindEvent, v.ID, &v.WorldID))
	}
	for _, v := range b.Choices {
		errs = append(errs, setWorld(domain.KindChoice, v.ID, &v.WorldID))
	}
	for _, v := range b.Inputs {
		errs = append(errs, setWorld(domain.KindInput, v.ID, &v.WorldID))
	}
	for _, v := range b.Paths {
		errs = append(errs, setWorld(domain.KindPath, v.ID, &v.WorldID))
	}
	for _, v := range b.Conditions {
		errs = append(errs, setWorld(domain.KindCondition, v.ID, &v.WorldID))
	}
	for _, v := range b.Effects {
		errs = append(errs, setWorld(domain.KindEffect, v.ID, &v.WorldID))
	}
	return errors.Join(errs...)
}

// DecodeSettings maps the settings section onto domain.Settings.
// Missing keys keep their defaults; numeric strings are accepted.
func (b *Bundle) DecodeSettings() (domain.Settings, error) {
	s := domain.DefaultSettings(b.World.ID)
	if len(b.Settings) == 0 {
		return s, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &s,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return s, err
	}
	if err := decoder.Decode(b.Settings); err != nil {
		return s, fmt.Errorf("%w: settings: %v", ErrInvalidBundle, err)
	}
	s.WorldID = b.World.ID
	if s.HistoryLimit <= 0 {
		s.HistoryLimit = domain.DefaultHistoryLimit
	}
	return s, nil
}

// SetSettings stores s as the settings section.
func (b *Bundle) SetSettings(s domain.Settings) error {
	out := map[string]any{}
	if err := mapstructure.Decode(s, &out); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	delete(out, "world_id")
	b.Settings = out
	return nil
}

// Start returns the Event a playthrough begins at, resolved the way the runtime does:
// the World jump, else the first Event of the first top-level Scene. It returns ""
// when the bundle has no usable start.
func (b *Bundle) Start() string {
	if b.World.Jump != "" {
		return b.JumpTarget(b.World.Jump)
	}
	for _, ref := range b.World.Children {
		if ref.Kind == domain.ChildScene {
			return b.FirstEvent(ref.ID)
		}
	}
	return ""
}

// JumpTarget returns the Event a Jump leads to, defaulting to the first Event of its Scene.
func (b *Bundle) JumpTarget(jumpID string) string {
	for _, j := range b.Jumps {
		if j.ID != jumpID {
			continue
		}
		if j.EventID != "" {
			return j.EventID
		}
		return b.FirstEvent(j.SceneID)
	}
	return ""
}

// FirstEvent returns the first Event child of a Scene.
func (b *Bundle) FirstEvent(sceneID string) string {
	for _, s := range b.Scenes {
		if s.ID != sceneID {
			continue
		}
		for _, child := range s.Children {
			if child.Kind == domain.ChildEvent {
				return child.ID
			}
		}
		return ""
	}
	return ""
}
