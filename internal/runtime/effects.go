package runtime

import (
	"context"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/expr"
)

// ApplyEffects runs Effects in order over a copy of state and returns the copy.
// It never mutates state; later Effects observe earlier ones. An Effect on a
// Variable missing from state is skipped.
func ApplyEffects(effects []*domain.Effect, state domain.VariableState) domain.VariableState {
	next := state.Clone()
	for _, eff := range effects {
		v, ok := next[eff.VariableID]
		if !ok {
			continue
		}
		v.Value = applyEffect(eff.Operator, v.Value, eff.Value)
		next[eff.VariableID] = v
	}
	return next
}

// applyEffect computes one set operation. Unparsable numbers count as 0; division by zero is a no-op.
func applyEffect(op domain.SetOperator, current, literal string) string {
	if op == domain.SetAssign || op == "" {
		return literal
	}

	a, _ := expr.ParseNumber(current)
	b, _ := expr.ParseNumber(literal)

	switch op {
	case domain.SetAdd:
		return expr.FormatNumber(a + b)
	case domain.SetSubtract:
		return expr.FormatNumber(a - b)
	case domain.SetMultiply:
		return expr.FormatNumber(a * b)
	case domain.SetDivide:
		if b == 0 {
			return current
		}
		return expr.FormatNumber(a / b)
	}
	return current
}

// Apply loads the Effects of a Path and applies them to a copy of state.
func (e *Engine) Apply(ctx context.Context, path *domain.Path, state domain.VariableState) (domain.VariableState, error) {
	effects, err := list[*domain.Effect](ctx, e.graph, domain.KindEffect, path.ID)
	if err != nil {
		return nil, err
	}
	for _, eff := range effects {
		if _, ok := state[eff.VariableID]; !ok {
			e.logger.Warn("effect skipped, variable does not exist", "effect", eff.ID, "path", path.ID, "variable", eff.VariableID)
		}
	}
	return ApplyEffects(effects, state), nil
}
