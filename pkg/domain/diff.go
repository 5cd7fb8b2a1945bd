package domain

// StateDiff represents the changes between two playthrough entries.
// It is designed to be serialized to JSON for partial updates on live-link clients.
type StateDiff struct {
	// WorldID is always present to identify the target.
	WorldID string `json:"world_id"`

	// EntryID is the entry the diff leads to.
	EntryID string `json:"entry_id"`

	// Destination is set when the current passage changed.
	Destination *string `json:"destination,omitempty"`

	// Variables contains only changed, added or deleted values.
	// For deletions, the key is present with a nil value.
	Variables map[string]*VariableValue `json:"variables,omitempty"`

	// Restarted is set when the new entry starts a new visible session.
	Restarted bool `json:"restarted,omitempty"`
}

// Diff calculates the difference between oldEntry and newEntry.
// If oldEntry is nil, it returns a diff representing the entire newEntry (initial load).
func Diff(oldEntry, newEntry *PlaythroughEvent) *StateDiff {
	if newEntry == nil {
		return nil
	}

	diff := &StateDiff{
		WorldID:   newEntry.WorldID,
		EntryID:   newEntry.ID,
		Restarted: newEntry.Type == EntryRestart,
	}

	if oldEntry == nil || oldEntry.Destination != newEntry.Destination {
		dest := newEntry.Destination
		diff.Destination = &dest
	}

	diff.Variables = diffVariables(oldEntry, newEntry)

	if oldEntry != nil && oldEntry.ID == newEntry.ID && diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVariables(old, new *PlaythroughEvent) map[string]*VariableValue {
	delta := make(map[string]*VariableValue)

	if old == nil {
		for k, v := range new.State {
			v := v
			delta[k] = &v
		}
		return nilIfEmpty(delta)
	}

	// Added or modified
	for k, newVal := range new.State {
		oldVal, exists := old.State[k]
		if !exists || oldVal != newVal {
			v := newVal
			delta[k] = &v
		}
	}

	// Deleted
	for k := range old.State {
		if _, exists := new.State[k]; !exists {
			delta[k] = nil
		}
	}

	return nilIfEmpty(delta)
}

func nilIfEmpty(m map[string]*VariableValue) map[string]*VariableValue {
	if len(m) == 0 {
		return nil
	}
	return m
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.Destination == nil && len(d.Variables) == 0 && !d.Restarted
}
