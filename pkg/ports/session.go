package ports

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
)

// SessionController is the driving port of the runtime: what a frontend (terminal, HTTP, MCP)
// needs to play a World.
type SessionController interface {
	// Resume returns the current state of an installed World.
	Resume(ctx context.Context, worldID string) (domain.SessionState, error)

	// RenderPassage renders a log entry against its own state.
	RenderPassage(ctx context.Context, worldID, entryID string) (*domain.Passage, error)

	// SubmitRoute leaves the entry entryID with outcome.
	SubmitRoute(ctx context.Context, worldID, entryID string, outcome domain.RouteOutcome) (domain.SessionState, error)

	// Restart begins a new visible session from the initial state.
	Restart(ctx context.Context, worldID string) (domain.SessionState, error)

	// History returns entries of the visible session, newest first.
	History(ctx context.Context, worldID string, limit int) ([]*domain.PlaythroughEvent, error)

	// Introspect exposes the current entry for diagnostics.
	Introspect(ctx context.Context, worldID string) (domain.Introspection, error)
}
