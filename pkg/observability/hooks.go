package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/tapestry/pkg/domain"
)

// LoggingHooks logs every lifecycle event through logger.
// Advances log at Info; route resolutions at Debug; blocks and expression errors at Warn.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAdvance: func(ctx context.Context, e *domain.AdvanceEvent) {
			logger.InfoContext(ctx, "advance",
				"world", e.WorldID,
				"from", e.FromEntryID,
				"to", e.ToEntryID,
				"destination", e.Destination,
				"outcome", e.Outcome,
				"path", e.PathID,
			)
		},
		OnRouteResolved: func(ctx context.Context, e *domain.RouteEvent) {
			logger.DebugContext(ctx, "route_resolved",
				"world", e.WorldID,
				"origin", e.OriginID,
				"candidates", e.Candidates,
				"open", e.Open,
				"selected", e.Selected,
			)
		},
		OnBlocked: func(ctx context.Context, e *domain.RouteEvent) {
			logger.WarnContext(ctx, "route_blocked",
				"world", e.WorldID,
				"origin", e.OriginID,
				"candidates", e.Candidates,
			)
		},
		OnExpressionError: func(ctx context.Context, e *domain.ExpressionEvent) {
			logger.WarnContext(ctx, "expression_error",
				"world", e.WorldID,
				"event", e.EventID,
				"source", e.Source,
				"err", e.Err,
			)
		},
	}
}

// Combine fans every callback out to each hook set, in order. Nil callbacks are skipped.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		out.OnAdvance = chain(out.OnAdvance, h.OnAdvance)
		out.OnRouteResolved = chain(out.OnRouteResolved, h.OnRouteResolved)
		out.OnBlocked = chain(out.OnBlocked, h.OnBlocked)
		out.OnExpressionError = chain(out.OnExpressionError, h.OnExpressionError)
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	switch {
	case next == nil:
		return first
	case first == nil:
		return next
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
