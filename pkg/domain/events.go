package domain

import (
	"context"
	"time"
)

// AdvanceEvent is emitted after a route submission appended a new entry.
type AdvanceEvent struct {
	Timestamp   time.Time   `json:"timestamp"`
	WorldID     string      `json:"world_id"`
	FromEntryID string      `json:"from_entry_id"`
	ToEntryID   string      `json:"to_entry_id"`
	Destination string      `json:"destination"`
	Outcome     OutcomeKind `json:"outcome"`
	PathID      string      `json:"path_id,omitempty"`
}

// RouteEvent is emitted each time the route resolver evaluates an origin.
type RouteEvent struct {
	Timestamp time.Time `json:"timestamp"`
	WorldID   string    `json:"world_id"`
	OriginID  string    `json:"origin_id"`
	// Candidates is the number of Paths attached to the origin.
	Candidates int `json:"candidates"`
	// Open is the number of Paths whose conditions held.
	Open     int    `json:"open"`
	Selected string `json:"selected,omitempty"`
}

// ExpressionEvent is emitted for every {...} span that rendered as the error sentinel.
type ExpressionEvent struct {
	Timestamp time.Time `json:"timestamp"`
	WorldID   string    `json:"world_id"`
	EventID   string    `json:"event_id"`
	Source    string    `json:"source"`
	Err       error     `json:"-"`
}

// LifecycleHooks defines callbacks for runtime observability.
type LifecycleHooks struct {
	OnAdvance         func(context.Context, *AdvanceEvent)
	OnRouteResolved   func(context.Context, *RouteEvent)
	OnBlocked         func(context.Context, *RouteEvent)
	OnExpressionError func(context.Context, *ExpressionEvent)
}
