package domain

import (
	"fmt"
	"slices"
)

// Kind names a table of the persisted story graph.
type Kind string

const (
	KindWorld     Kind = "world"
	KindFolder    Kind = "folder"
	KindScene     Kind = "scene"
	KindEvent     Kind = "event"
	KindChoice    Kind = "choice"
	KindInput     Kind = "input"
	KindPath      Kind = "path"
	KindCondition Kind = "condition"
	KindEffect    Kind = "effect"
	KindVariable  Kind = "variable"
	KindJump      Kind = "jump"
)

// Kinds lists every graph table in dependency order (parents before children).
var Kinds = []Kind{
	KindWorld,
	KindVariable,
	KindFolder,
	KindScene,
	KindJump,
	KindEvent,
	KindChoice,
	KindInput,
	KindPath,
	KindCondition,
	KindEffect,
}

// Entity is implemented by every record of the story graph.
type Entity interface {
	EntityID() string
	EntityKind() Kind
	// ParentID is the key used by parent listings for this kind.
	// Worlds have no parent and return "".
	ParentID() string
}

// NewEntity returns a pointer to the zero value of the record type stored under kind.
// Storage adapters use it to decode persisted rows.
func NewEntity(kind Kind) (Entity, error) {
	switch kind {
	case KindWorld:
		return &World{}, nil
	case KindFolder:
		return &Folder{}, nil
	case KindScene:
		return &Scene{}, nil
	case KindEvent:
		return &Event{}, nil
	case KindChoice:
		return &Choice{}, nil
	case KindInput:
		return &Input{}, nil
	case KindPath:
		return &Path{}, nil
	case KindCondition:
		return &Condition{}, nil
	case KindEffect:
		return &Effect{}, nil
	case KindVariable:
		return &Variable{}, nil
	case KindJump:
		return &Jump{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// CloneEntity returns a deep copy of e, always as a pointer.
func CloneEntity(e Entity) Entity {
	switch v := e.(type) {
	case *World:
		c := *v
		c.Children = slices.Clone(v.Children)
		return &c
	case *Folder:
		c := *v
		c.Children = slices.Clone(v.Children)
		return &c
	case *Scene:
		c := *v
		c.Children = slices.Clone(v.Children)
		return &c
	case *Event:
		c := *v
		c.Choices = slices.Clone(v.Choices)
		return &c
	case *Choice:
		c := *v
		return &c
	case *Input:
		c := *v
		return &c
	case *Path:
		c := *v
		return &c
	case *Condition:
		c := *v
		return &c
	case *Effect:
		c := *v
		return &c
	case *Variable:
		c := *v
		return &c
	case *Jump:
		c := *v
		return &c
	case World:
		return CloneEntity(&v)
	case Folder:
		return CloneEntity(&v)
	case Scene:
		return CloneEntity(&v)
	case Event:
		return CloneEntity(&v)
	case Choice:
		return CloneEntity(&v)
	case Input:
		return CloneEntity(&v)
	case Path:
		return CloneEntity(&v)
	case Condition:
		return CloneEntity(&v)
	case Effect:
		return CloneEntity(&v)
	case Variable:
		return CloneEntity(&v)
	case Jump:
		return CloneEntity(&v)
	default:
		return e
	}
}

// ChildKind tags the entity a ChildRef points at.
type ChildKind string

const (
	ChildFolder ChildKind = "folder"
	ChildScene  ChildKind = "scene"
	ChildEvent  ChildKind = "event"
	ChildJump   ChildKind = "jump"
)

// ChildRef is an ordered child pointer of a World, Folder or Scene.
// Worlds and Folders hold Folder|Scene refs; Scenes hold Event|Jump refs.
type ChildRef struct {
	Kind ChildKind `json:"kind" yaml:"kind"`
	ID   string    `json:"id" yaml:"id"`
}

func FolderChild(id string) ChildRef { return ChildRef{Kind: ChildFolder, ID: id} }
func SceneChild(id string) ChildRef  { return ChildRef{Kind: ChildScene, ID: id} }
func EventChild(id string) ChildRef  { return ChildRef{Kind: ChildEvent, ID: id} }
func JumpChild(id string) ChildRef   { return ChildRef{Kind: ChildJump, ID: id} }

// EntityKind maps the child tag to the table holding the referenced record.
func (c ChildRef) EntityKind() Kind {
	switch c.Kind {
	case ChildFolder:
		return KindFolder
	case ChildScene:
		return KindScene
	case ChildEvent:
		return KindEvent
	case ChildJump:
		return KindJump
	default:
		return ""
	}
}
