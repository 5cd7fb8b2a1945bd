package domain

import "time"

// EntryType classifies playthrough log entries.
type EntryType string

const (
	// EntryInitial is the single install-time entry of a World.
	EntryInitial EntryType = "initial"
	// EntryAdvance is appended by a regular route submission.
	EntryAdvance EntryType = "advance"
	// EntryRestart starts a new visible session; its state is copied from the initial entry.
	EntryRestart EntryType = "restart"
)

// InitialEntryID is the well-known id of a World's initial entry.
func InitialEntryID(worldID string) string {
	return "INITIAL:" + worldID
}

// AutoBookmarkID is the id of the single automatic bookmark of a World.
func AutoBookmarkID(worldID string) string {
	return "AUTO:" + worldID
}

// OutcomeKind is the way the player left a passage.
type OutcomeKind string

const (
	OutcomeChoice      OutcomeKind = "choice"
	OutcomeInput       OutcomeKind = "input"
	OutcomePassthrough OutcomeKind = "passthrough"
	OutcomeLoopback    OutcomeKind = "loopback"
	OutcomeGameOver    OutcomeKind = "game_over"
)

// RouteOutcome is what a caller submits to leave the current entry.
type RouteOutcome struct {
	Kind OutcomeKind `json:"kind"`
	// ChoiceID is required for OutcomeChoice.
	ChoiceID string `json:"choice_id,omitempty"`
	// InputValue is the raw submitted value for OutcomeInput.
	InputValue string `json:"input_value,omitempty"`
	// PathID is the chosen Path. When empty the runtime resolves one itself.
	PathID string `json:"path_id,omitempty"`
}

// ChoiceOutcome selects a choice, optionally pinning the Path resolved at render time.
func ChoiceOutcome(choiceID, pathID string) RouteOutcome {
	return RouteOutcome{Kind: OutcomeChoice, ChoiceID: choiceID, PathID: pathID}
}

// InputOutcome submits a value for the passage Input.
func InputOutcome(value, pathID string) RouteOutcome {
	return RouteOutcome{Kind: OutcomeInput, InputValue: value, PathID: pathID}
}

// PassthroughOutcome continues along a passthrough Path.
func PassthroughOutcome(pathID string) RouteOutcome {
	return RouteOutcome{Kind: OutcomePassthrough, PathID: pathID}
}

// LoopbackOutcome returns to the Event that led to the current one.
func LoopbackOutcome() RouteOutcome { return RouteOutcome{Kind: OutcomeLoopback} }

// GameOverOutcome restarts from the initial entry.
func GameOverOutcome() RouteOutcome { return RouteOutcome{Kind: OutcomeGameOver} }

// RouteResult is the outcome recorded on a closed entry.
type RouteResult struct {
	Kind     OutcomeKind `json:"kind"`
	ChoiceID string      `json:"choice_id,omitempty"`
	InputID  string      `json:"input_id,omitempty"`
	PathID   string      `json:"path_id,omitempty"`
	// Value is the coerced input value.
	Value string `json:"value,omitempty"`
}

// PlaythroughEvent is one entry of a World's linear playthrough log.
type PlaythroughEvent struct {
	ID      string    `json:"id"`
	WorldID string    `json:"world_id"`
	Seq     uint64    `json:"seq"`
	Type    EntryType `json:"type"`

	Destination string `json:"destination"`
	Origin      string `json:"origin,omitempty"`
	Prev        string `json:"prev,omitempty"`
	Next        string `json:"next,omitempty"`

	// Result is set once the player leaves this entry. A closed entry is immutable except for Next.
	Result    *RouteResult  `json:"result,omitempty"`
	State     VariableState `json:"state"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Closed reports whether the entry already has a result.
func (e *PlaythroughEvent) Closed() bool {
	return e.Result != nil
}

// Clone returns a deep copy of the entry.
func (e *PlaythroughEvent) Clone() *PlaythroughEvent {
	if e == nil {
		return nil
	}
	c := *e
	c.State = e.State.Clone()
	if e.Result != nil {
		r := *e.Result
		c.Result = &r
	}
	return &c
}

// EntryPatch is a partial update of a PlaythroughEvent. Nil fields are left untouched.
type EntryPatch struct {
	Result    *RouteResult
	Next      *string
	UpdatedAt *time.Time
}

// Apply writes the patch into e.
func (p EntryPatch) Apply(e *PlaythroughEvent) {
	if p.Result != nil {
		r := *p.Result
		e.Result = &r
	}
	if p.Next != nil {
		e.Next = *p.Next
	}
	if p.UpdatedAt != nil {
		e.UpdatedAt = *p.UpdatedAt
	}
}

// Bookmark points at the most recently visited entry of a World.
type Bookmark struct {
	ID        string    `json:"id"`
	WorldID   string    `json:"world_id"`
	EntryID   string    `json:"entry_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Settings are per-World player preferences written at install time.
type Settings struct {
	WorldID string `json:"world_id" mapstructure:"world_id"`
	// Theme selects the terminal style: "auto", "dark", "light" or "notty".
	Theme string `json:"theme" mapstructure:"theme"`
	// HistoryLimit is the default window size of history queries.
	HistoryLimit int `json:"history_limit" mapstructure:"history_limit"`
}

// DefaultHistoryLimit is used when Settings leave HistoryLimit unset.
const DefaultHistoryLimit = 20

// DefaultSettings returns the settings written when a bundle carries none.
func DefaultSettings(worldID string) Settings {
	return Settings{
		WorldID:      worldID,
		Theme:        "auto",
		HistoryLimit: DefaultHistoryLimit,
	}
}
