package runtime

import (
	"context"
	"fmt"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/expr"
)

// EvaluateCondition checks one Condition against a state snapshot.
// A Variable missing from the snapshot never satisfies a Condition.
func EvaluateCondition(c *domain.Condition, state domain.VariableState) bool {
	v, ok := state[c.VariableID]
	if !ok {
		return false
	}
	return expr.CompareValues(v.Type, v.Value, c.Operator, c.Value)
}

// ConditionsHold combines Conditions under a policy.
// ALL with no Conditions is open; ANY with no Conditions is closed.
func ConditionsHold(policy domain.ConditionsType, conds []*domain.Condition, state domain.VariableState) bool {
	if policy == domain.ConditionsAny {
		for _, c := range conds {
			if EvaluateCondition(c, state) {
				return true
			}
		}
		return false
	}
	for _, c := range conds {
		if !EvaluateCondition(c, state) {
			return false
		}
	}
	return true
}

// pathsFrom lists the Paths leaving an origin: a Choice, an Input, or an Event for passthroughs.
func (e *Engine) pathsFrom(ctx context.Context, originID string) ([]*domain.Path, error) {
	return list[*domain.Path](ctx, e.graph, domain.KindPath, originID)
}

// isOpen loads the Conditions of a Path and evaluates them.
func (e *Engine) isOpen(ctx context.Context, path *domain.Path, state domain.VariableState) (bool, error) {
	conds, err := list[*domain.Condition](ctx, e.graph, domain.KindCondition, path.ID)
	if err != nil {
		return false, err
	}
	return ConditionsHold(path.Policy(), conds, state), nil
}

// OpenPaths returns the traversable Paths of an origin and the number of candidates inspected.
func (e *Engine) OpenPaths(ctx context.Context, originID string, state domain.VariableState) ([]*domain.Path, int, error) {
	paths, err := e.pathsFrom(ctx, originID)
	if err != nil {
		return nil, 0, err
	}

	var open []*domain.Path
	for _, p := range paths {
		ok, err := e.isOpen(ctx, p, state)
		if err != nil {
			return nil, 0, err
		}
		if ok {
			open = append(open, p)
		}
	}
	return open, len(paths), nil
}

// SelectRoute picks the Path to traverse among open ones.
// More than one open Path is resolved uniformly at random, or rejected in strict mode.
func (e *Engine) SelectRoute(originID string, open []*domain.Path) (*domain.Path, error) {
	switch len(open) {
	case 0:
		return nil, &domain.NoOpenRouteError{OriginID: originID}
	case 1:
		return open[0], nil
	}
	if e.strictRoutes {
		return nil, fmt.Errorf("%d open paths from %q: %w", len(open), originID, domain.ErrAmbiguousRoute)
	}
	e.logger.Warn("ambiguous route resolved at random", "origin", originID, "open", len(open))
	return open[e.pick(len(open))], nil
}

// ResolveRoute evaluates and selects the Path to take from an origin.
func (e *Engine) ResolveRoute(ctx context.Context, worldID, originID string, state domain.VariableState) (*domain.Path, error) {
	open, candidates, err := e.OpenPaths(ctx, originID, state)
	if err != nil {
		return nil, err
	}

	ev := &domain.RouteEvent{
		Timestamp:  e.timestamp(),
		WorldID:    worldID,
		OriginID:   originID,
		Candidates: candidates,
		Open:       len(open),
	}

	path, err := e.SelectRoute(originID, open)
	if err != nil {
		if len(open) == 0 {
			e.logger.Debug("route blocked", "world", worldID, "origin", originID, "candidates", candidates)
			e.emitBlocked(ctx, ev)
		}
		return nil, err
	}

	ev.Selected = path.ID
	e.logger.Debug("route resolved", "world", worldID, "origin", originID, "path", path.ID, "open", len(open))
	e.emitRouteResolved(ctx, ev)
	return path, nil
}

// pinnedRoute validates a Path chosen at render time: it must leave originID and still be open.
func (e *Engine) pinnedRoute(ctx context.Context, worldID, originID, pathID string, state domain.VariableState) (*domain.Path, error) {
	path, err := fetch[*domain.Path](ctx, e.graph, domain.KindPath, pathID)
	if err != nil {
		return nil, err
	}
	if path.ParentID() != originID {
		return nil, fmt.Errorf("path %q does not leave %q: %w", pathID, originID, domain.ErrInvalidOutcome)
	}
	ok, err := e.isOpen(ctx, path, state)
	if err != nil {
		return nil, err
	}

	ev := &domain.RouteEvent{
		Timestamp:  e.timestamp(),
		WorldID:    worldID,
		OriginID:   originID,
		Candidates: 1,
	}
	if !ok {
		e.emitBlocked(ctx, ev)
		return nil, &domain.NoOpenRouteError{OriginID: originID}
	}
	ev.Open = 1
	ev.Selected = path.ID
	e.emitRouteResolved(ctx, ev)
	return path, nil
}
