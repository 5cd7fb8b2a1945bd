package runner

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
)

// RichResponse combines the session state and the passage it lands on for rich clients (Web, MCP).
// This encapsulates the common pattern of: Submit -> Render -> Return.
type RichResponse struct {
	State   domain.SessionState `json:"state"`
	Passage *domain.Passage     `json:"passage,omitempty"`
}

// ResumeAndRender renders the current passage of an installed World.
func ResumeAndRender(ctx context.Context, engine ports.SessionController, worldID string) (*RichResponse, error) {
	state, err := engine.Resume(ctx, worldID)
	if err != nil {
		return nil, err
	}
	return render(ctx, engine, state)
}

// SubmitAndRender submits an outcome and renders the passage it leads to.
// Clients always receive the content of the entry they just entered.
func SubmitAndRender(ctx context.Context, engine ports.SessionController, worldID, entryID string, outcome domain.RouteOutcome) (*RichResponse, error) {
	state, err := engine.SubmitRoute(ctx, worldID, entryID, outcome)
	if err != nil {
		return nil, err
	}
	return render(ctx, engine, state)
}

// RestartAndRender restarts the World and renders its starting passage.
func RestartAndRender(ctx context.Context, engine ports.SessionController, worldID string) (*RichResponse, error) {
	state, err := engine.Restart(ctx, worldID)
	if err != nil {
		return nil, err
	}
	return render(ctx, engine, state)
}

func render(ctx context.Context, engine ports.SessionController, state domain.SessionState) (*RichResponse, error) {
	passage, err := engine.RenderPassage(ctx, state.WorldID, state.Entry.ID)
	if err != nil {
		// The new state is returned so the client can recover.
		return &RichResponse{State: state}, err
	}
	return &RichResponse{State: state, Passage: passage}, nil
}
