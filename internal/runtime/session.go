package runtime

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/tapestry/pkg/domain"
	"github.com/aretw0/tapestry/pkg/schema"
)

// Install seeds the playthrough of an already stored World: the INITIAL entry,
// the auto bookmark and the settings. Installing twice returns the current state.
func (e *Engine) Install(ctx context.Context, worldID string, settings *domain.Settings) (domain.SessionState, error) {
	installed, err := e.IsInstalled(ctx, worldID)
	if err != nil {
		return domain.SessionState{}, err
	}
	if installed {
		return e.Resume(ctx, worldID)
	}

	e.setStatus(worldID, domain.StatusInstalling)
	state, err := e.install(ctx, worldID, settings)
	if err != nil {
		e.setStatus(worldID, domain.StatusUninstalled)
		return domain.SessionState{}, err
	}
	e.setStatus(worldID, domain.StatusIdle)

	e.logger.Info("world installed", "world", worldID, "destination", state.Entry.Destination)
	e.publish(state)
	return state, nil
}

func (e *Engine) install(ctx context.Context, worldID string, settings *domain.Settings) (domain.SessionState, error) {
	dest, err := e.StartingDestination(ctx, worldID)
	if err != nil {
		return domain.SessionState{}, err
	}

	vars, err := list[*domain.Variable](ctx, e.graph, domain.KindVariable, worldID)
	if err != nil {
		return domain.SessionState{}, err
	}
	initialState := domain.NewVariableState(vars)
	if err := schema.ValidateState(initialState); err != nil {
		e.logger.Warn("initial variable values do not match their types", "world", worldID, "err", err)
	}

	now := e.timestamp()
	initial := &domain.PlaythroughEvent{
		ID:          domain.InitialEntryID(worldID),
		WorldID:     worldID,
		Seq:         0,
		Type:        domain.EntryInitial,
		Destination: dest,
		State:       initialState,
		UpdatedAt:   now,
	}
	if err := e.store.PutEntry(ctx, initial); err != nil {
		return domain.SessionState{}, storeErr("put initial entry", err)
	}

	s := domain.DefaultSettings(worldID)
	if settings != nil {
		s = *settings
		s.WorldID = worldID
		if s.HistoryLimit <= 0 {
			s.HistoryLimit = domain.DefaultHistoryLimit
		}
	}
	if err := e.store.PutSettings(ctx, &s); err != nil {
		return domain.SessionState{}, storeErr("put settings", err)
	}

	if err := e.putBookmark(ctx, worldID, initial.ID); err != nil {
		return domain.SessionState{}, err
	}

	return domain.SessionState{WorldID: worldID, Status: domain.StatusIdle, Entry: initial}, nil
}

// IsInstalled reports whether the World has its INITIAL entry.
func (e *Engine) IsInstalled(ctx context.Context, worldID string) (bool, error) {
	_, err := e.store.GetEntry(ctx, domain.InitialEntryID(worldID))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, storeErr("get initial entry", err)
	}
	return true, nil
}

// Uninstall removes the whole playthrough of a World. Graph records are left untouched.
func (e *Engine) Uninstall(ctx context.Context, worldID string) error {
	if err := e.store.DeletePlaythrough(ctx, worldID); err != nil {
		return storeErr("delete playthrough", err)
	}
	e.setStatus(worldID, domain.StatusUninstalled)
	e.publish(domain.SessionState{WorldID: worldID, Status: domain.StatusUninstalled})
	return nil
}

// Resume returns the entry the player left off at: the head of the log reached from the bookmark, or INITIAL.
func (e *Engine) Resume(ctx context.Context, worldID string) (domain.SessionState, error) {
	entry, err := e.current(ctx, worldID)
	if err != nil {
		return domain.SessionState{}, err
	}
	return domain.SessionState{WorldID: worldID, Status: e.statusOf(worldID), Entry: entry}, nil
}

func (e *Engine) current(ctx context.Context, worldID string) (*domain.PlaythroughEvent, error) {
	b, err := e.store.GetBookmark(ctx, worldID)
	switch {
	case err == nil:
		entry, err := e.store.GetEntry(ctx, b.EntryID)
		if err != nil {
			return nil, storeErr("get bookmarked entry", err)
		}
		return e.follow(ctx, entry)
	case errors.Is(err, domain.ErrNotFound):
		entry, err := e.store.GetEntry(ctx, domain.InitialEntryID(worldID))
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("world %q: %w", worldID, domain.ErrNotInstalled)
		}
		if err != nil {
			return nil, storeErr("get initial entry", err)
		}
		return e.follow(ctx, entry)
	default:
		return nil, storeErr("get bookmark", err)
	}
}

// follow walks Next links to the head of the log. The bookmark may lag behind it.
func (e *Engine) follow(ctx context.Context, entry *domain.PlaythroughEvent) (*domain.PlaythroughEvent, error) {
	for entry.Next != "" {
		next, err := e.store.GetEntry(ctx, entry.Next)
		if err != nil {
			return nil, storeErr("get next entry", err)
		}
		entry = next
	}
	return entry, nil
}

func (e *Engine) statusOf(worldID string) domain.SessionStatus {
	if s, ok := e.currentStatus(worldID); ok && s != domain.StatusUninstalled {
		return s
	}
	return domain.StatusIdle
}

// plan is a fully computed advance. Nothing is written until it is complete.
type plan struct {
	result      domain.RouteResult
	entryType   domain.EntryType
	destination string
	origin      string
	state       domain.VariableState
	path        *domain.Path
}

// SubmitRoute leaves the entry entryID with outcome and appends the next entry.
//
// Every read and computation happens before the first write. The append is the
// concurrency guard: a second successor of the same entry is refused by the store, and
// a submission against an already closed entry is absorbed and reported through
// SessionState.Duplicate with a nil error. The entry is closed only after its successor
// exists, so a failed write leaves it open for a retry.
func (e *Engine) SubmitRoute(ctx context.Context, worldID, entryID string, outcome domain.RouteOutcome) (state domain.SessionState, err error) {
	ctx, span := e.tracer.Start(ctx, "tapestry.SubmitRoute", trace.WithAttributes(
		attribute.String("tapestry.world", worldID),
		attribute.String("tapestry.entry", entryID),
		attribute.String("tapestry.outcome", string(outcome.Kind)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Bool("tapestry.duplicate", state.Duplicate))
		span.End()
	}()

	current, err := e.store.GetEntry(ctx, entryID)
	if err != nil {
		return domain.SessionState{}, storeErr("get entry", err)
	}
	if current.WorldID != worldID {
		return domain.SessionState{}, fmt.Errorf("entry %q belongs to world %q: %w", entryID, current.WorldID, domain.ErrInvalidOutcome)
	}
	if current.Closed() {
		return e.duplicate(ctx, worldID, entryID)
	}

	status := domain.StatusAdvancing
	if outcome.Kind == domain.OutcomeGameOver {
		status = domain.StatusRestarting
	}
	e.setStatus(worldID, status)
	defer e.setStatus(worldID, domain.StatusIdle)

	p, err := e.plan(ctx, worldID, current, outcome)
	if err != nil {
		return domain.SessionState{}, err
	}

	now := e.timestamp()
	next := &domain.PlaythroughEvent{
		ID:          e.newID(),
		WorldID:     worldID,
		Seq:         current.Seq + 1,
		Type:        p.entryType,
		Destination: p.destination,
		Origin:      p.origin,
		Prev:        current.ID,
		State:       p.state,
		UpdatedAt:   now,
	}
	if err := e.store.PutEntry(ctx, next); err != nil {
		if errors.Is(err, domain.ErrBranchingLog) {
			return e.duplicate(ctx, worldID, entryID)
		}
		return domain.SessionState{}, storeErr("append entry", err)
	}

	patch := domain.EntryPatch{Result: &p.result, Next: &next.ID, UpdatedAt: &now}
	if err := e.store.UpdateEntry(ctx, current.ID, patch); err != nil {
		e.discard(ctx, next)
		if errors.Is(err, domain.ErrEntryClosed) {
			return e.duplicate(ctx, worldID, entryID)
		}
		return domain.SessionState{}, storeErr("close entry", err)
	}

	if err := e.putBookmark(ctx, worldID, next.ID); err != nil {
		e.logger.Error("bookmark not moved, resume follows the log", "world", worldID, "entry", next.ID, "err", err)
	}

	closed := current.Clone()
	closed.Result = &p.result
	closed.Next = next.ID
	closed.UpdatedAt = now

	ev := &domain.AdvanceEvent{
		Timestamp:   now,
		WorldID:     worldID,
		FromEntryID: current.ID,
		ToEntryID:   next.ID,
		Destination: next.Destination,
		Outcome:     outcome.Kind,
	}
	if p.path != nil {
		ev.PathID = p.path.ID
	}
	e.logger.Debug("advanced", "world", worldID, "from", current.Destination, "to", next.Destination, "outcome", outcome.Kind, "seq", next.Seq)
	e.emitAdvance(ctx, ev)
	span.SetAttributes(attribute.String("tapestry.destination", next.Destination))

	state = domain.SessionState{WorldID: worldID, Status: domain.StatusIdle, Entry: next, Previous: closed}
	e.publish(state)
	return state, nil
}

// discard removes a successor whose predecessor could not be closed.
func (e *Engine) discard(ctx context.Context, orphan *domain.PlaythroughEvent) {
	if err := e.store.DeleteEntry(ctx, orphan.ID); err != nil {
		e.logger.Error("orphan entry not removed", "world", orphan.WorldID, "entry", orphan.ID, "prev", orphan.Prev, "err", err)
	}
}

// duplicate builds the unchanged state returned for an already resolved entry.
func (e *Engine) duplicate(ctx context.Context, worldID, entryID string) (domain.SessionState, error) {
	e.logger.Debug("submission ignored", "world", worldID, "entry", entryID, "err", domain.ErrDuplicateAdvance)
	entry, err := e.current(ctx, worldID)
	if err != nil {
		return domain.SessionState{}, err
	}
	return domain.SessionState{WorldID: worldID, Status: e.statusOf(worldID), Entry: entry, Duplicate: true}, nil
}

func (e *Engine) plan(ctx context.Context, worldID string, current *domain.PlaythroughEvent, outcome domain.RouteOutcome) (*plan, error) {
	p := &plan{
		result:    domain.RouteResult{Kind: outcome.Kind},
		entryType: domain.EntryAdvance,
		origin:    current.Destination,
		state:     current.State.Clone(),
	}

	var originID string
	switch outcome.Kind {
	case domain.OutcomeChoice:
		if outcome.ChoiceID == "" {
			return nil, fmt.Errorf("choice outcome without choice id: %w", domain.ErrInvalidOutcome)
		}
		choice, err := fetch[*domain.Choice](ctx, e.graph, domain.KindChoice, outcome.ChoiceID)
		if err != nil {
			return nil, err
		}
		if choice.EventID != current.Destination {
			return nil, fmt.Errorf("choice %q is not offered by %q: %w", choice.ID, current.Destination, domain.ErrInvalidOutcome)
		}
		originID = choice.ID
		p.result.ChoiceID = choice.ID

	case domain.OutcomeInput:
		event, err := fetch[*domain.Event](ctx, e.graph, domain.KindEvent, current.Destination)
		if err != nil {
			return nil, err
		}
		if event.Input == "" {
			return nil, fmt.Errorf("event %q has no input: %w", event.ID, domain.ErrInvalidOutcome)
		}
		input, err := fetch[*domain.Input](ctx, e.graph, domain.KindInput, event.Input)
		if err != nil {
			return nil, err
		}
		value, err := e.storeInput(input, outcome.InputValue, p.state)
		if err != nil {
			return nil, err
		}
		originID = input.ID
		p.result.InputID = input.ID
		p.result.Value = value

	case domain.OutcomePassthrough:
		originID = current.Destination

	case domain.OutcomeLoopback:
		if current.Origin == "" {
			return nil, fmt.Errorf("entry %q: %w", current.ID, domain.ErrMissingOrigin)
		}
		p.destination = current.Origin
		return p, nil

	case domain.OutcomeGameOver:
		initial, err := e.store.GetEntry(ctx, domain.InitialEntryID(worldID))
		if err != nil {
			return nil, storeErr("get initial entry", err)
		}
		p.entryType = domain.EntryRestart
		p.destination = initial.Destination
		p.origin = ""
		p.state = initial.State.Clone()
		return p, nil

	default:
		return nil, fmt.Errorf("outcome %q: %w", outcome.Kind, domain.ErrInvalidOutcome)
	}

	var (
		path *domain.Path
		err  error
	)
	if outcome.PathID != "" {
		path, err = e.pinnedRoute(ctx, worldID, originID, outcome.PathID, p.state)
	} else {
		path, err = e.ResolveRoute(ctx, worldID, originID, p.state)
	}
	if err != nil {
		return nil, err
	}

	p.path = path
	p.result.PathID = path.ID
	if p.state, err = e.Apply(ctx, path, p.state); err != nil {
		return nil, err
	}
	if p.destination, err = e.pathDestination(ctx, path); err != nil {
		return nil, err
	}
	return p, nil
}

// storeInput coerces a submitted value to the receiving Variable's type and writes it into state.
func (e *Engine) storeInput(input *domain.Input, raw string, state domain.VariableState) (string, error) {
	if input.VariableID == "" {
		return raw, nil
	}
	v, ok := state[input.VariableID]
	if !ok {
		return "", &domain.GraphIntegrityError{Kind: domain.KindVariable, ID: input.VariableID, Err: domain.ErrNotFound}
	}
	typ, err := schema.ForVariable(v.Type)
	if err != nil {
		return "", &domain.GraphIntegrityError{Kind: domain.KindVariable, ID: input.VariableID, Err: err}
	}
	value, err := typ.Coerce(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidOutcome, err)
	}
	v.Value = value
	state[input.VariableID] = v
	return value, nil
}

func (e *Engine) putBookmark(ctx context.Context, worldID, entryID string) error {
	err := e.store.PutBookmark(ctx, &domain.Bookmark{
		ID:        domain.AutoBookmarkID(worldID),
		WorldID:   worldID,
		EntryID:   entryID,
		UpdatedAt: e.timestamp(),
	})
	if err != nil {
		return storeErr("put bookmark", err)
	}
	return nil
}

// Restart submits a game over on the head entry.
func (e *Engine) Restart(ctx context.Context, worldID string) (domain.SessionState, error) {
	current, err := e.current(ctx, worldID)
	if err != nil {
		return domain.SessionState{}, err
	}
	return e.SubmitRoute(ctx, worldID, current.ID, domain.GameOverOutcome())
}

// History returns up to limit entries of the visible session, newest first.
// The window starts at the bookmark and stops at the latest restart entry, which is included.
// A non-positive limit uses the World's settings.
func (e *Engine) History(ctx context.Context, worldID string, limit int) ([]*domain.PlaythroughEvent, error) {
	if limit <= 0 {
		limit = domain.DefaultHistoryLimit
		s, err := e.store.GetSettings(ctx, worldID)
		if err == nil && s.HistoryLimit > 0 {
			limit = s.HistoryLimit
		} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return nil, storeErr("get settings", err)
		}
	}

	head, err := e.current(ctx, worldID)
	if err != nil {
		return nil, err
	}

	entries, err := e.store.RecentEntries(ctx, worldID, limit+1)
	if err != nil {
		return nil, storeErr("recent entries", err)
	}

	window := make([]*domain.PlaythroughEvent, 0, limit)
	for _, entry := range entries {
		if entry.Seq > head.Seq {
			// Appended but not linked yet.
			continue
		}
		window = append(window, entry)
		if entry.Type == domain.EntryRestart || len(window) == limit {
			break
		}
	}
	return window, nil
}

// Introspect exposes the current entry for diagnostics collaborators.
func (e *Engine) Introspect(ctx context.Context, worldID string) (domain.Introspection, error) {
	entry, err := e.current(ctx, worldID)
	if errors.Is(err, domain.ErrNotInstalled) {
		return domain.Introspection{WorldID: worldID, Status: domain.StatusUninstalled}, nil
	}
	if err != nil {
		return domain.Introspection{}, err
	}
	return domain.Introspection{
		WorldID:     worldID,
		Status:      e.statusOf(worldID),
		EntryID:     entry.ID,
		Destination: entry.Destination,
		State:       entry.State.Clone(),
	}, nil
}
