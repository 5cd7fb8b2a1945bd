package domain

import "sort"

// VariableValue is one Variable as recorded in a state snapshot.
type VariableValue struct {
	Title string       `json:"title"`
	Type  VariableType `json:"type"`
	Value string       `json:"value"`
}

// VariableState maps Variable ids to their current values.
type VariableState map[string]VariableValue

// NewVariableState builds the initial snapshot from the World's Variables.
func NewVariableState(vars []*Variable) VariableState {
	state := make(VariableState, len(vars))
	for _, v := range vars {
		state[v.ID] = VariableValue{
			Title: v.Title,
			Type:  v.Type,
			Value: v.Initial,
		}
	}
	return state
}

// Clone returns an independent copy of the snapshot.
func (s VariableState) Clone() VariableState {
	if s == nil {
		return VariableState{}
	}
	next := make(VariableState, len(s))
	for k, v := range s {
		next[k] = v
	}
	return next
}

// ByTitle indexes the snapshot by author-facing title.
// When titles collide the Variable with the greatest id wins, so the result is deterministic.
func (s VariableState) ByTitle() map[string]VariableValue {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string]VariableValue, len(s))
	for _, id := range ids {
		v := s[id]
		out[v.Title] = v
	}
	return out
}

// Equal reports whether both snapshots hold the same values.
func (s VariableState) Equal(other VariableState) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		if o, ok := other[k]; !ok || o != v {
			return false
		}
	}
	return true
}
