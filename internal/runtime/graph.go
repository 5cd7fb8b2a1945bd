package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/ports"
)

// fetch loads one record and narrows it to its concrete type.
// A missing record is reported as a GraphIntegrityError; other failures as StoreError.
func fetch[T domain.Entity](ctx context.Context, g ports.GraphReader, kind domain.Kind, id string) (T, error) {
	var zero T
	if id == "" {
		return zero, &domain.GraphIntegrityError{Kind: kind, ID: id, Err: domain.ErrMissingDestination}
	}
	e, err := g.Get(ctx, kind, id)
	if err != nil {
		return zero, classify(kind, id, "get", err)
	}
	v, ok := e.(T)
	if !ok {
		return zero, fmt.Errorf("%s %q: unexpected record type %T", kind, id, e)
	}
	return v, nil
}

// list loads the children of kind under parentID.
func list[T domain.Entity](ctx context.Context, g ports.GraphReader, kind domain.Kind, parentID string) ([]T, error) {
	entities, err := g.ListByParent(ctx, kind, parentID)
	if err != nil {
		return nil, classify(kind, parentID, "list", err)
	}
	return narrow[T](kind, entities)
}

// listByIDs loads the records of kind in the order of ids.
func listByIDs[T domain.Entity](ctx context.Context, g ports.GraphReader, kind domain.Kind, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	entities, err := g.ListByIDs(ctx, kind, ids)
	if err != nil {
		return nil, classify(kind, "", "list", err)
	}
	return narrow[T](kind, entities)
}

func narrow[T domain.Entity](kind domain.Kind, entities []domain.Entity) ([]T, error) {
	out := make([]T, 0, len(entities))
	for _, e := range entities {
		v, ok := e.(T)
		if !ok {
			return nil, fmt.Errorf("%s %q: unexpected record type %T", kind, e.EntityID(), e)
		}
		out = append(out, v)
	}
	return out, nil
}

func classify(kind domain.Kind, id, op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.GraphIntegrityError{Kind: kind, ID: id, Err: err}
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op + " " + string(kind), Err: err}
}

// storeErr wraps a playthrough store failure. Contract outcomes keep their sentinel visible.
func storeErr(op string, err error) error {
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrEntryClosed) || errors.Is(err, domain.ErrBranchingLog) {
		return fmt.Errorf("%s: %w", op, err)
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	return &domain.StoreError{Op: op, Err: err}
}
