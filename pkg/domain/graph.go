package domain

// World is the root of an authored storyworld.
type World struct {
	ID    string `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
	// Children holds ordered Folder|Scene refs.
	Children []ChildRef `json:"children,omitempty" yaml:"children,omitempty"`
	// Jump optionally overrides the entry point with a Jump id.
	Jump string `json:"jump,omitempty" yaml:"jump,omitempty"`
}

func (w World) EntityID() string { return w.ID }
func (w World) EntityKind() Kind { return KindWorld }
func (w World) ParentID() string { return "" }

// Folder groups Scenes (and nested Folders) in the outline.
type Folder struct {
	ID       string     `json:"id" yaml:"id"`
	WorldID  string     `json:"world_id" yaml:"world_id"`
	Title    string     `json:"title" yaml:"title"`
	Children []ChildRef `json:"children,omitempty" yaml:"children,omitempty"`
}

func (f Folder) EntityID() string { return f.ID }
func (f Folder) EntityKind() Kind { return KindFolder }
func (f Folder) ParentID() string { return f.WorldID }

// Scene is an ordered container of Events and Jumps.
type Scene struct {
	ID      string `json:"id" yaml:"id"`
	WorldID string `json:"world_id" yaml:"world_id"`
	Title   string `json:"title" yaml:"title"`
	// Children holds ordered Event|Jump refs.
	Children []ChildRef `json:"children,omitempty" yaml:"children,omitempty"`
}

func (s Scene) EntityID() string { return s.ID }
func (s Scene) EntityKind() Kind { return KindScene }
func (s Scene) ParentID() string { return s.WorldID }

// Event is a passage. It offers either an ordered list of Choices or a single Input.
type Event struct {
	ID      string `json:"id" yaml:"id"`
	WorldID string `json:"world_id" yaml:"world_id"`
	SceneID string `json:"scene_id" yaml:"scene_id"`
	Title   string `json:"title" yaml:"title"`
	// Content is the passage template; {...} spans are evaluated at render time.
	Content string   `json:"content" yaml:"content"`
	Choices []string `json:"choices,omitempty" yaml:"choices,omitempty"`
	Input   string   `json:"input,omitempty" yaml:"input,omitempty"`
	Ending  bool     `json:"ending,omitempty" yaml:"ending,omitempty"`
}

func (e Event) EntityID() string { return e.ID }
func (e Event) EntityKind() Kind { return KindEvent }
func (e Event) ParentID() string { return e.SceneID }

// Choice is one author-defined option of an Event.
type Choice struct {
	ID      string `json:"id" yaml:"id"`
	WorldID string `json:"world_id" yaml:"world_id"`
	EventID string `json:"event_id" yaml:"event_id"`
	Title   string `json:"title" yaml:"title"`
}

func (c Choice) EntityID() string { return c.ID }
func (c Choice) EntityKind() Kind { return KindChoice }
func (c Choice) ParentID() string { return c.EventID }

// Input collects a free-form value for an Event, optionally stored in a Variable.
type Input struct {
	ID         string `json:"id" yaml:"id"`
	WorldID    string `json:"world_id" yaml:"world_id"`
	EventID    string `json:"event_id" yaml:"event_id"`
	VariableID string `json:"variable_id,omitempty" yaml:"variable_id,omitempty"`
}

func (i Input) EntityID() string { return i.ID }
func (i Input) EntityKind() Kind { return KindInput }
func (i Input) ParentID() string { return i.EventID }

// Jump is an indirection to a scene entry point. Without EventID it resolves
// to the scene's first Event.
type Jump struct {
	ID      string `json:"id" yaml:"id"`
	WorldID string `json:"world_id" yaml:"world_id"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	SceneID string `json:"scene_id,omitempty" yaml:"scene_id,omitempty"`
	EventID string `json:"event_id,omitempty" yaml:"event_id,omitempty"`
}

func (j Jump) EntityID() string { return j.ID }
func (j Jump) EntityKind() Kind { return KindJump }
func (j Jump) ParentID() string { return j.WorldID }
