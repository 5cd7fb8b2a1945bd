package runtime

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
)

func (e *Engine) emitAdvance(ctx context.Context, ev *domain.AdvanceEvent) {
	if e.hooks.OnAdvance != nil {
		e.hooks.OnAdvance(ctx, ev)
	}
}

func (e *Engine) emitRouteResolved(ctx context.Context, ev *domain.RouteEvent) {
	if e.hooks.OnRouteResolved != nil {
		e.hooks.OnRouteResolved(ctx, ev)
	}
}

func (e *Engine) emitBlocked(ctx context.Context, ev *domain.RouteEvent) {
	if e.hooks.OnBlocked != nil {
		e.hooks.OnBlocked(ctx, ev)
	}
}

func (e *Engine) emitExpressionError(ctx context.Context, ev *domain.ExpressionEvent) {
	if e.hooks.OnExpressionError != nil {
		e.hooks.OnExpressionError(ctx, ev)
	}
}
