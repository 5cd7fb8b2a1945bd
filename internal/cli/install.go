package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/tapestry/internal/runtime"
	"github.com/aretw0/tapestry/internal/validator"
	"github.com/aretw0/tapestry/pkg/bundle"
)

// InstallFile loads the bundle at path into the graph.
// A World without a playthrough, or any World when fresh is set, is installed from scratch;
// an installed World keeps its log and only sees the new graph.
// Bundles with validation errors are refused before anything is written.
func InstallFile(ctx context.Context, b *Backend, engine *runtime.Engine, path string, fresh bool) (*bundle.Bundle, error) {
	doc, err := bundle.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(doc).Err(); err != nil {
		return nil, fmt.Errorf("bundle %s: %w", path, err)
	}

	worldID := doc.World.ID
	if fresh {
		if err := engine.Uninstall(ctx, worldID); err != nil {
			return nil, err
		}
	}

	installed, err := engine.IsInstalled(ctx, worldID)
	if err != nil {
		return nil, err
	}
	if installed {
		if err := bundle.Load(ctx, b.Graph, doc); err != nil {
			return nil, err
		}
		return doc, nil
	}
	if _, err := bundle.Install(ctx, b.Graph, engine, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// ResolveWorld returns the World a command acts on: the explicit id, else the one of the bundle.
func ResolveWorld(worldID string, doc *bundle.Bundle) (string, error) {
	if worldID != "" {
		return worldID, nil
	}
	if doc != nil {
		return doc.World.ID, nil
	}
	return "", fmt.Errorf("no world selected: pass --world or a bundle file")
}
