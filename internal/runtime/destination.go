package runtime

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
)

// StartingDestination resolves the Event a new playthrough of worldID begins at.
//
// A World jump wins. Otherwise the first top-level Scene is used; Folders are skipped
// but never descended into.
func (e *Engine) StartingDestination(ctx context.Context, worldID string) (string, error) {
	world, err := fetch[*domain.World](ctx, e.graph, domain.KindWorld, worldID)
	if err != nil {
		return "", err
	}

	if world.Jump != "" {
		return e.resolveJump(ctx, world.Jump)
	}

	for _, child := range world.Children {
		switch child.Kind {
		case domain.ChildFolder:
			continue
		case domain.ChildScene:
			return e.firstEvent(ctx, child.ID)
		}
	}
	return "", &domain.GraphIntegrityError{Kind: domain.KindWorld, ID: worldID, Err: domain.ErrMissingDestination}
}

// resolveJump follows a Jump to its Event, defaulting to the first Event of its Scene.
func (e *Engine) resolveJump(ctx context.Context, jumpID string) (string, error) {
	jump, err := fetch[*domain.Jump](ctx, e.graph, domain.KindJump, jumpID)
	if err != nil {
		return "", err
	}

	if jump.EventID != "" {
		if _, err := fetch[*domain.Event](ctx, e.graph, domain.KindEvent, jump.EventID); err != nil {
			return "", err
		}
		return jump.EventID, nil
	}
	if jump.SceneID == "" {
		return "", &domain.GraphIntegrityError{Kind: domain.KindJump, ID: jumpID, Err: domain.ErrMissingDestination}
	}
	return e.firstEvent(ctx, jump.SceneID)
}

// firstEvent returns the first Event child of a Scene. Jump children are not followed.
func (e *Engine) firstEvent(ctx context.Context, sceneID string) (string, error) {
	scene, err := fetch[*domain.Scene](ctx, e.graph, domain.KindScene, sceneID)
	if err != nil {
		return "", err
	}
	for _, child := range scene.Children {
		if child.Kind == domain.ChildEvent {
			return child.ID, nil
		}
	}
	return "", &domain.GraphIntegrityError{Kind: domain.KindScene, ID: sceneID, Err: domain.ErrMissingDestination}
}

// pathDestination resolves where a Path leads, following Jump indirection.
func (e *Engine) pathDestination(ctx context.Context, path *domain.Path) (string, error) {
	if path.DestinationID == "" {
		return "", &domain.GraphIntegrityError{Kind: domain.KindPath, ID: path.ID, Err: domain.ErrMissingDestination}
	}
	if path.DestinationType == domain.DestinationJump {
		return e.resolveJump(ctx, path.DestinationID)
	}
	if _, err := fetch[*domain.Event](ctx, e.graph, domain.KindEvent, path.DestinationID); err != nil {
		return "", err
	}
	return path.DestinationID, nil
}
