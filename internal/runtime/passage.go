package runtime

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/expr"
)

// RenderPassage builds the view of a log entry: expanded text, Choices with their
// pre-resolved Paths, the Input, or the passthrough. An empty entryID renders the bookmark.
// Choices are resolved concurrently.
func (e *Engine) RenderPassage(ctx context.Context, worldID, entryID string) (*domain.Passage, error) {
	var (
		entry *domain.PlaythroughEvent
		err   error
	)
	if entryID == "" {
		entry, err = e.current(ctx, worldID)
	} else {
		entry, err = e.store.GetEntry(ctx, entryID)
		if err != nil {
			err = storeErr("get entry", err)
		}
	}
	if err != nil {
		return nil, err
	}

	event, err := fetch[*domain.Event](ctx, e.graph, domain.KindEvent, entry.Destination)
	if err != nil {
		return nil, err
	}

	rendered := expr.Render(event.Content, expr.NewScope(entry.State))
	for _, exprErr := range rendered.Errors {
		e.logger.Debug("expression failed", "world", worldID, "event", event.ID, "source", exprErr.Source, "err", exprErr.Err)
		e.emitExpressionError(ctx, &domain.ExpressionEvent{
			Timestamp: e.timestamp(),
			WorldID:   worldID,
			EventID:   event.ID,
			Source:    exprErr.Source,
			Err:       exprErr.Err,
		})
	}

	passage := &domain.Passage{
		Entry:  entry,
		Event:  event,
		Text:   rendered.Text,
		Spans:  rendered.Spans,
		Ending: event.Ending,
	}

	choices, err := e.choicesOf(ctx, event)
	if err != nil {
		return nil, err
	}

	switch {
	case len(choices) > 0:
		views, err := e.resolveChoices(ctx, worldID, choices, entry.State)
		if err != nil {
			return nil, err
		}
		passage.Choices = views
		passage.Blocked = true
		for _, v := range views {
			if v.Open {
				passage.Blocked = false
				break
			}
		}

	case event.Input != "":
		view, err := e.inputView(ctx, event.Input)
		if err != nil {
			return nil, err
		}
		passage.Input = view

	case !event.Ending:
		path, err := e.ResolveRoute(ctx, worldID, event.ID, entry.State)
		var blocked *domain.NoOpenRouteError
		switch {
		case errors.As(err, &blocked):
			passage.Blocked = true
		case err != nil:
			return nil, err
		default:
			passage.Passthrough = path
		}
	}

	return passage, nil
}

// choicesOf returns the Choices of an Event in authored order.
func (e *Engine) choicesOf(ctx context.Context, event *domain.Event) ([]*domain.Choice, error) {
	if len(event.Choices) > 0 {
		return listByIDs[*domain.Choice](ctx, e.graph, domain.KindChoice, event.Choices)
	}
	return list[*domain.Choice](ctx, e.graph, domain.KindChoice, event.ID)
}

func (e *Engine) resolveChoices(ctx context.Context, worldID string, choices []*domain.Choice, state domain.VariableState) ([]domain.ChoiceView, error) {
	views := make([]domain.ChoiceView, len(choices))
	g, gctx := errgroup.WithContext(ctx)
	for i, choice := range choices {
		g.Go(func() error {
			views[i] = domain.ChoiceView{Choice: choice}
			path, err := e.ResolveRoute(gctx, worldID, choice.ID, state)
			var blocked *domain.NoOpenRouteError
			if errors.As(err, &blocked) {
				return nil
			}
			if err != nil {
				return err
			}
			views[i].Open = true
			views[i].Path = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return views, nil
}

func (e *Engine) inputView(ctx context.Context, inputID string) (*domain.InputView, error) {
	input, err := fetch[*domain.Input](ctx, e.graph, domain.KindInput, inputID)
	if err != nil {
		return nil, err
	}
	view := &domain.InputView{Input: input}
	if input.VariableID != "" {
		v, err := fetch[*domain.Variable](ctx, e.graph, domain.KindVariable, input.VariableID)
		if err != nil {
			return nil, err
		}
		view.Variable = v
	}
	return view, nil
}
