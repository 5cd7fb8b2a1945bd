package domain

// SessionStatus is the state of a World's playthrough state machine.
type SessionStatus string

const (
	StatusUninstalled SessionStatus = "uninstalled"
	StatusInstalling  SessionStatus = "installing"
	StatusIdle        SessionStatus = "idle"
	StatusAdvancing   SessionStatus = "advancing"
	StatusRestarting  SessionStatus = "restarting"
)

// SessionState is the explicit value returned by every session operation.
// Observers receive copies; nothing here aliases engine internals.
type SessionState struct {
	WorldID string        `json:"world_id"`
	Status  SessionStatus `json:"status"`
	// Entry is the current (open) log entry.
	Entry *PlaythroughEvent `json:"entry,omitempty"`
	// Previous is the entry closed by the operation that produced this state, if any.
	Previous *PlaythroughEvent `json:"previous,omitempty"`
	// Duplicate is set when a submission hit an already-resolved entry and was ignored.
	Duplicate bool `json:"duplicate,omitempty"`
}

// Introspection is the read-only view exposed to diagnostics collaborators.
type Introspection struct {
	WorldID     string        `json:"world_id"`
	Status      SessionStatus `json:"status"`
	EntryID     string        `json:"entry_id"`
	Destination string        `json:"destination"`
	State       VariableState `json:"state"`
}
